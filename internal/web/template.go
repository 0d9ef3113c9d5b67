package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/midi-button/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"duration": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"orUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>{{.Config.DeviceName}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>{{.Config.DeviceName}}</h1>

<h2>State</h2>
<table>
<tr><th>Power</th><td id="power">{{orUnknown (printf "%s" .Power)}}</td></tr>
<tr><th>Bluetooth</th><td id="connection" class="{{if eq (printf "%s" .Connection) "CONNECTED"}}connected{{else}}disconnected{{end}}">{{orUnknown (printf "%s" .Connection)}}</td></tr>
<tr><th>Button</th><td id="button" class="{{if eq (printf "%s" .Button) "PRESSED"}}on{{else}}off{{end}}">{{orUnknown (printf "%s" .Button)}}</td></tr>
<tr><th>Idle</th><td>{{duration .Idle}}</td></tr>
<tr><th>Last message</th><td>{{if .LastMessage}}{{.LastMessage}}{{else}}none{{end}}</td></tr>
</table>

<h2>MIDI</h2>
<table>
<tr><th>Channel</th><td>{{.Config.Channel}}</td></tr>
<tr><th>Controller</th><td>{{.Config.Controller}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Presses</th><td>{{.Counts.Presses}}</td></tr>
<tr><th>Releases</th><td>{{.Counts.Releases}}</td></tr>
<tr><th>Dropped</th><td>{{.Counts.Dropped}}</td></tr>
<tr><th>Pairings</th><td>{{.Counts.Pairings}}</td></tr>
<tr><th>Long presses</th><td>{{.Counts.LongPresses}}</td></tr>
<tr><th>Connects</th><td>{{.Counts.Connects}}</td></tr>
<tr><th>Disconnects</th><td>{{.Counts.Disconnects}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}{{if .Config.Broker}} ({{.Config.Broker}}){{end}}</td></tr>
<tr><th>Uptime</th><td>{{duration .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Long press</th><td>{{.Config.LongPressMs}}ms</td></tr>
<tr><th>Sleep after</th><td>{{.Config.SleepMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() and Idle() methods but the template needs fields.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Idle   time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Idle:     snap.Idle(),
	}
	indexTmpl.Execute(w, data)
}

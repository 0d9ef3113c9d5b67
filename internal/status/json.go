package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Power         string     `json:"power"`
	Connection    string     `json:"connection"`
	Button        string     `json:"button"`
	ModeHeld      bool       `json:"mode_held"`
	IdleSeconds   int64      `json:"idle_seconds"`
	LastMessage   string     `json:"last_message,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Presses     int `json:"presses"`
	Releases    int `json:"releases"`
	Dropped     int `json:"dropped"`
	Pairings    int `json:"pairings"`
	LongPresses int `json:"long_presses"`
	Connects    int `json:"connects"`
	Disconnects int `json:"disconnects"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	DeviceName  string `json:"device_name"`
	Channel     int    `json:"midi_channel"`
	Controller  int    `json:"controller_number"`
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	LongPressMs int64  `json:"long_press_ms"`
	SleepMs     int64  `json:"sleep_timeout_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Counts
	return StatusInner{
		Power:         orUnknown(string(snap.Power)),
		Connection:    orUnknown(string(snap.Connection)),
		Button:        orUnknown(string(snap.Button)),
		ModeHeld:      snap.ModeHeld,
		IdleSeconds:   int64(snap.Idle().Truncate(time.Second).Seconds()),
		LastMessage:   snap.LastMessage,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Presses:     c.Presses,
			Releases:    c.Releases,
			Dropped:     c.Dropped,
			Pairings:    c.Pairings,
			LongPresses: c.LongPresses,
			Connects:    c.Connects,
			Disconnects: c.Disconnects,
		},
		Config: ConfigJSON{
			DeviceName:  snap.Config.DeviceName,
			Channel:     snap.Config.Channel,
			Controller:  snap.Config.Controller,
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			LongPressMs: snap.Config.LongPressMs,
			SleepMs:     snap.Config.SleepMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

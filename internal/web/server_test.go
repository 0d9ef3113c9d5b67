package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/midi-button/internal/logic"
	"github.com/sweeney/midi-button/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		DeviceName:  "Mini MIDI Ctrl",
		Channel:     1,
		Controller:  102,
		PollMs:      10,
		DebounceMs:  50,
		LongPressMs: 5000,
		SleepMs:     30000,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPPort:    ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func getStatus(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.Snapshot{
		Power:      logic.PowerActive,
		Connection: logic.Connected,
		Button:     logic.ButtonIdle,
		Counts:     logic.EventCounts{Presses: 5, Releases: 5, Dropped: 2},
	})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Power != "ACTIVE" {
		t.Errorf("Power: got %q, want ACTIVE", sj.Status.Power)
	}
	if sj.Status.Connection != "CONNECTED" {
		t.Errorf("Connection: got %q, want CONNECTED", sj.Status.Connection)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q, want tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	}
	if sj.Status.Counts.Presses != 5 {
		t.Errorf("Counts.Presses: got %d, want 5", sj.Status.Counts.Presses)
	}
	if sj.Status.Counts.Dropped != 2 {
		t.Errorf("Counts.Dropped: got %d, want 2", sj.Status.Counts.Dropped)
	}
	if sj.Status.Config.Controller != 102 {
		t.Errorf("Config.Controller: got %d, want 102", sj.Status.Config.Controller)
	}
	if sj.Status.Config.DeviceName != "Mini MIDI Ctrl" {
		t.Errorf("Config.DeviceName: got %q", sj.Status.Config.DeviceName)
	}
}

func TestJSONUnknownStateBeforeUpdate(t *testing.T) {
	ts, _ := newTestServer(t)

	sj := getStatus(t, ts.URL)

	if sj.Status.Power != "UNKNOWN" {
		t.Errorf("Power before update: got %q, want UNKNOWN", sj.Status.Power)
	}
	if sj.Status.Button != "UNKNOWN" {
		t.Errorf("Button before update: got %q, want UNKNOWN", sj.Status.Button)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.Snapshot{Power: logic.PowerActive, Connection: logic.Connected, Button: logic.ButtonPressed})
	tr.RecordMessage([]byte{0x80, 0x80, 0xB0, 0x66, 0x7F}, true)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"Mini MIDI Ctrl", "PRESSED", "CONNECTED", "MIDI CC: Ch1 CC#102 Value=127"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	tr.Update(logic.Snapshot{Power: logic.PowerPairing, Connection: logic.Disconnected})
	sj1 := getStatus(t, ts.URL)
	if sj1.Status.Power != "PAIRING" {
		t.Errorf("Power: got %q, want PAIRING", sj1.Status.Power)
	}

	tr.Update(logic.Snapshot{
		Power:      logic.PowerActive,
		Connection: logic.Connected,
		Counts:     logic.EventCounts{Connects: 1, Pairings: 1},
	})
	tr.SetMQTTConnected(true)

	sj2 := getStatus(t, ts.URL)
	if sj2.Status.Connection != "CONNECTED" {
		t.Errorf("Connection: got %q, want CONNECTED", sj2.Status.Connection)
	}
	if sj2.Status.Counts.Connects != 1 {
		t.Errorf("Counts.Connects: got %d, want 1", sj2.Status.Counts.Connects)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}

func TestServeAndShutdown(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{DeviceName: "Mini MIDI Ctrl"})
	srv := New("", tr)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	sj := getStatus(t, "http://"+ln.Addr().String())
	if sj.Status.Config.DeviceName != "Mini MIDI Ctrl" {
		t.Errorf("DeviceName: got %q", sj.Status.Config.DeviceName)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-done; err != http.ErrServerClosed {
		t.Errorf("Serve returned %v, want ErrServerClosed", err)
	}
}

// Package status provides a thread-safe status tracker for the midi-button
// daemon. It is read by the HTTP handlers and the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/midi-button/internal/logic"
	"github.com/sweeney/midi-button/internal/midi"
)

// Config contains daemon configuration for display.
type Config struct {
	DeviceName  string
	Channel     int
	Controller  int
	PollMs      int64
	DebounceMs  int64
	LongPressMs int64
	SleepMs     int64
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Power         logic.PowerState
	Connection    logic.ConnectionState
	Button        logic.ButtonState
	ModeHeld      bool
	LastActivity  time.Time
	Counts        logic.EventCounts
	LastMessage   string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Idle returns how long the controller has gone without activity.
func (s Snapshot) Idle() time.Duration {
	if s.LastActivity.IsZero() {
		return 0
	}
	return s.Now.Sub(s.LastActivity)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update copies the controller's state. Called from the event sink and on
// every heartbeat.
func (t *Tracker) Update(s logic.Snapshot) {
	t.mu.Lock()
	t.snap.Power = s.Power
	t.snap.Connection = s.Connection
	t.snap.Button = s.Button
	t.snap.ModeHeld = s.ModeHeld
	t.snap.LastActivity = s.LastActivity
	t.snap.Counts = s.Counts
	t.mu.Unlock()
}

// RecordMessage remembers the last MIDI packet handed to the transport.
func (t *Tracker) RecordMessage(packet []byte, delivered bool) {
	msg := midi.Describe(packet)
	if !delivered {
		msg += " (dropped)"
	}
	t.mu.Lock()
	t.snap.LastMessage = msg
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

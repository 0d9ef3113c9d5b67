// Package logic contains the device lifecycle: debouncing, long-press
// detection and the controller that moves between pairing, active and
// sleeping. Hardware is reached only through the small interfaces declared
// here; time is injected through Clock or time.Time parameters.
package logic

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotReady is returned by a Transport when no peer is connected.
var ErrNotReady = errors.New("transport not ready")

// PowerState is the controller's power mode.
type PowerState string

const (
	PowerPairing  PowerState = "PAIRING"
	PowerActive   PowerState = "ACTIVE"
	PowerSleeping PowerState = "SLEEPING"
)

// ConnectionState is the link state reported by the transport.
type ConnectionState string

const (
	Disconnected ConnectionState = "DISCONNECTED"
	Connected    ConnectionState = "CONNECTED"
)

// ButtonState is the logical state of the trigger switch.
type ButtonState string

const (
	ButtonIdle    ButtonState = "IDLE"
	ButtonPressed ButtonState = "PRESSED"
)

// Edge is the direction of a debounced transition.
type Edge string

const (
	Rose Edge = "ROSE"
	Fell Edge = "FELL"
)

// DebouncedEdge is a transition accepted by the Debouncer.
type DebouncedEdge struct {
	Edge Edge
	Time time.Time
}

// LongPressEvent is emitted once per release of the mode input.
type LongPressEvent struct {
	Held time.Duration
	Time time.Time
}

// EventType identifies a lifecycle event.
type EventType string

const (
	EventPairing      EventType = "PAIRING"
	EventLongPress    EventType = "LONG_PRESS"
	EventConnected    EventType = "CONNECTED"
	EventDisconnected EventType = "DISCONNECTED"
	EventPress        EventType = "PRESS"
	EventRelease      EventType = "RELEASE"
	EventSleep        EventType = "SLEEP"
)

// Event is a lifecycle event handed to the controller's sink.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	Power      PowerState
	Connection ConnectionState
	Button     ButtonState
	// Payload is the transport payload for PRESS and RELEASE.
	Payload []byte
	// Delivered is false when the transport dropped the payload.
	Delivered bool
	// Held is the mode input hold time for LONG_PRESS.
	Held time.Duration
}

// EventCounts tracks lifecycle activity since startup.
type EventCounts struct {
	Presses     int
	Releases    int
	Dropped     int
	Pairings    int
	LongPresses int
	Connects    int
	Disconnects int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

// Snapshot is a point-in-time view of the controller.
type Snapshot struct {
	Power        PowerState
	Connection   ConnectionState
	Button       ButtonState
	ModeHeld     bool
	LastActivity time.Time
	Counts       EventCounts
}

// WakeLine names an input that can wake the device.
type WakeLine string

const (
	WakeTrigger WakeLine = "trigger"
	WakeMode    WakeLine = "mode"
)

// WakeSource is an input armed before suspending.
type WakeSource struct {
	Line      WakeLine
	ActiveLow bool
}

// Clock is a monotonic time source. Sleep blocks and is only used for the
// pairing animation.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Inputs samples the trigger and mode switches. true means pressed.
type Inputs interface {
	Read() (trigger, mode bool, err error)
}

// Indicator drives the status LED.
type Indicator interface {
	Set(on bool) error
}

// Transport carries encoded MIDI to the connected peer.
type Transport interface {
	StartAdvertising() error
	// Send returns ErrNotReady when no peer is connected.
	Send(payload []byte) error
}

// Suspender powers the device down until one of the wake sources asserts.
// On success it does not return.
type Suspender interface {
	Suspend(wake []WakeSource) error
}

// Encoder turns a logical on/off into a transport payload.
type Encoder interface {
	Encode(on bool) [5]byte
}

// Config holds the controller's timing policy.
type Config struct {
	Debounce     time.Duration
	LongPress    time.Duration
	SleepTimeout time.Duration
}

// DefaultConfig returns the stock timings: 50ms debounce, 5s long press,
// 30s sleep.
func DefaultConfig() Config {
	return Config{
		Debounce:     50 * time.Millisecond,
		LongPress:    5 * time.Second,
		SleepTimeout: 30 * time.Second,
	}
}

// Validate reports the first invalid timing.
func (c Config) Validate() error {
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive, got %v", c.Debounce)
	}
	if c.LongPress <= 0 {
		return fmt.Errorf("long press must be positive, got %v", c.LongPress)
	}
	if c.SleepTimeout <= 0 {
		return fmt.Errorf("sleep timeout must be positive, got %v", c.SleepTimeout)
	}
	return nil
}

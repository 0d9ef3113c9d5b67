// Package mqtt publishes device lifecycle telemetry with abstraction for
// testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/midi-button/internal/logic"
	"github.com/sweeney/midi-button/internal/midi"
)

// DefaultTopicPrefix is the topic root used when none is configured.
const DefaultTopicPrefix = "midi-button"

// EventsTopic returns the topic for lifecycle events under prefix.
func EventsTopic(prefix string) string {
	return prefix + "/events"
}

// SystemTopic returns the topic for system events under prefix.
func SystemTopic(prefix string) string {
	return prefix + "/system"
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a lifecycle event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "SLEEP"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Device DevicePayload `json:"device"`
}

// DevicePayload contains the lifecycle event details.
type DevicePayload struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	Power      string `json:"power"`
	Connection string `json:"connection"`
	Button     string `json:"button"`
	MIDI       *MIDI  `json:"midi,omitempty"`
	HeldMs     int64  `json:"held_ms,omitempty"`
}

// MIDI describes a sent (or dropped) packet.
type MIDI struct {
	Packet    string `json:"packet"`
	Message   string `json:"message"`
	Delivered bool   `json:"delivered"`
}

// FormatPayload creates the JSON payload for a lifecycle event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Device: DevicePayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Event:      string(event.Type),
			Power:      string(event.Power),
			Connection: string(event.Connection),
			Button:     string(event.Button),
		},
	}
	if event.Payload != nil {
		payload.Device.MIDI = &MIDI{
			Packet:    fmt.Sprintf("% X", event.Payload),
			Message:   midi.Describe(event.Payload),
			Delivered: event.Delivered,
		}
	}
	if event.Type == logic.EventLongPress {
		payload.Device.HeldMs = event.Held.Milliseconds()
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

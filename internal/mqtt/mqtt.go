// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/marker-interlock/internal/logic"
)

// Topic is the MQTT topic for transmitted interlock commands.
const Topic = "robot/interlock/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "robot/interlock/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an interlock event to the broker.
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
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "FRAME_ERROR" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Interlock InterlockPayload `json:"interlock"`
}

// InterlockPayload contains the details of one transmitted command.
type InterlockPayload struct {
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
	From      string `json:"from"`
	To        string `json:"to"`
	Target    int    `json:"target"`
	Markers   []int  `json:"markers"`
}

// FormatPayload creates the JSON payload for an interlock event.
func FormatPayload(event logic.Event) ([]byte, error) {
	markers := make([]int, len(event.Markers))
	for i, id := range event.Markers {
		markers[i] = int(id)
	}
	payload := Payload{
		Interlock: InterlockPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			Command:   string(event.Command),
			From:      string(event.From),
			To:        string(event.To),
			Target:    int(event.Target),
			Markers:   markers,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
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

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(logic.Event) error { return nil }

// PublishSystem does nothing.
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// IsConnected always reports false.
func (NopPublisher) IsConnected() bool { return false }

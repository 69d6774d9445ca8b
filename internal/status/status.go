// Package status provides a thread-safe status tracker for the interlock.
// It is read by the HTTP handlers and by the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/marker-interlock/internal/logic"
)

// Config contains interlock configuration for display.
type Config struct {
	RunID       string
	Target      logic.MarkerID
	Markers     string // valid marker set, e.g. "0-3"
	SerialPort  string
	Camera      int
	Dictionary  string
	CooldownMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of interlock state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	Counts        logic.Counts
	LastMarkers   []logic.MarkerID
	LastCommand   logic.Command
	LastCommandAt time.Time
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the interlock started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable interlock state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
// The robot is assumed RUNNING until told otherwise.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.StateRunning,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the result of one control cycle.
func (t *Tracker) Update(state logic.State, counts logic.Counts, markers []logic.MarkerID) {
	m := append([]logic.MarkerID(nil), markers...)
	t.mu.Lock()
	t.snap.State = state
	t.snap.Counts = counts
	t.snap.LastMarkers = m
	t.mu.Unlock()
}

// RecordCommand notes a command that reached the robot.
func (t *Tracker) RecordCommand(ev logic.Event) {
	t.mu.Lock()
	t.snap.LastCommand = ev.Command
	t.snap.LastCommandAt = ev.Timestamp
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the interlock state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.LastMarkers = append([]logic.MarkerID(nil), t.snap.LastMarkers...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

package status

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/marker-interlock/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Target: 2, CooldownMs: 2000, SerialPort: "/dev/ttyACM0", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.State != logic.StateRunning {
		t.Errorf("State: got %q, want RUNNING", snap.State)
	}
	if snap.Config.Target != 2 {
		t.Errorf("Config.Target: got %d, want 2", snap.Config.Target)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q", snap.Config.HTTPAddr)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if snap.LastCommand != "" {
		t.Errorf("expected no last command, got %q", snap.LastCommand)
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(logic.StateStopped, logic.Counts{Cycles: 7, Stops: 1}, []logic.MarkerID{2, 3})

	snap := tr.Snapshot()
	if snap.State != logic.StateStopped {
		t.Errorf("State: got %q, want STOPPED", snap.State)
	}
	if snap.Counts.Cycles != 7 || snap.Counts.Stops != 1 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
	if len(snap.LastMarkers) != 2 || snap.LastMarkers[0] != 2 {
		t.Errorf("LastMarkers: got %v", snap.LastMarkers)
	}
}

func TestRecordCommand(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tr.RecordCommand(logic.Event{Timestamp: at, Command: logic.CommandStop})

	snap := tr.Snapshot()
	if snap.LastCommand != logic.CommandStop {
		t.Errorf("LastCommand: got %q", snap.LastCommand)
	}
	if !snap.LastCommandAt.Equal(at) {
		t.Errorf("LastCommandAt: got %v", snap.LastCommandAt)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	markers := []logic.MarkerID{1}
	tr.Update(logic.StateStopped, logic.Counts{Stops: 1}, markers)
	markers[0] = 9

	snap1 := tr.Snapshot()
	if snap1.LastMarkers[0] != 1 {
		t.Errorf("tracker aliased the caller's slice: got %d", snap1.LastMarkers[0])
	}
	snap1.LastMarkers[0] = 8
	if got := tr.Snapshot().LastMarkers[0]; got != 1 {
		t.Errorf("snapshot aliased the tracker's slice: got %d", got)
	}

	tr.Update(logic.StateRunning, logic.Counts{Stops: 1, Continues: 1}, nil)
	if snap1.State != logic.StateStopped {
		t.Error("snapshot should be a copy; State was modified")
	}
}

func testSnapshot() Snapshot {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return Snapshot{
		State:         logic.StateStopped,
		Counts:        logic.Counts{Cycles: 120, TargetSeen: 40, Stops: 2, Continues: 1, Suppressed: 3},
		LastMarkers:   []logic.MarkerID{0, 2},
		LastCommand:   logic.CommandStop,
		LastCommandAt: start.Add(10 * time.Minute),
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config: Config{
			RunID:       "run-1",
			Target:      2,
			Markers:     "0-3",
			SerialPort:  "/dev/ttyACM0",
			Dictionary:  "4x4_250",
			CooldownMs:  2000,
			HeartbeatMs: 900000,
			Broker:      "tcp://localhost:1883",
			HTTPAddr:    ":8080",
		},
	}
}

func TestFormatJSON(t *testing.T) {
	data := FormatJSON(testSnapshot())

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, data)
	}
	s := parsed.Status

	if s.State != "STOPPED" {
		t.Errorf("State: got %q", s.State)
	}
	if s.Target != 2 {
		t.Errorf("Target: got %d", s.Target)
	}
	if len(s.Markers) != 2 || s.Markers[1] != 2 {
		t.Errorf("Markers: got %v", s.Markers)
	}
	if s.LastCommand == nil || s.LastCommand.Command != "STOP" {
		t.Errorf("LastCommand: got %+v", s.LastCommand)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if s.StartTime != "2026-01-01T00:00:00Z" {
		t.Errorf("StartTime: got %q", s.StartTime)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("MQTT: got %+v", s.MQTT)
	}
	if s.Counts.Cycles != 120 || s.Counts.Suppressed != 3 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if s.Config.CooldownMs != 2000 || s.Config.RunID != "run-1" {
		t.Errorf("Config: got %+v", s.Config)
	}
	if s.Event != "" || s.Reason != "" {
		t.Error("web status should carry no event or reason")
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Error("web JSON should be indented")
	}
}

func TestFormatJSONUnknownStateAndNoCommand(t *testing.T) {
	data := FormatJSON(Snapshot{})

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.State != "UNKNOWN" {
		t.Errorf("State: got %q, want UNKNOWN", parsed.Status.State)
	}
	if parsed.Status.LastCommand != nil {
		t.Error("expected last_command omitted")
	}
	if !strings.Contains(string(data), `"markers": []`) {
		t.Errorf("expected empty markers array, got %s", data)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason: got %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
	if strings.Contains(string(data), "\n") {
		t.Error("MQTT payload should be compact")
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "HEARTBEAT", "")
	if strings.Contains(string(data), `"reason"`) {
		t.Errorf("reason should be omitted: %s", data)
	}
	if !strings.Contains(string(data), `"event":"HEARTBEAT"`) {
		t.Errorf("missing event: %s", data)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(logic.StateStopped, logic.Counts{Cycles: i}, []logic.MarkerID{logic.MarkerID(i % 4)})
			tr.RecordCommand(logic.Event{Command: logic.CommandStop})
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}

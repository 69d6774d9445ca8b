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
	Event         string           `json:"event,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	State         string           `json:"state"`
	Target        int              `json:"target"`
	Markers       []int            `json:"markers"`
	LastCommand   *LastCommandJSON `json:"last_command,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	StartTime     string           `json:"start_time"`
	Timestamp     string           `json:"timestamp"`
	MQTT          MQTTStatus       `json:"mqtt"`
	Counts        CountsJSON       `json:"counts"`
	Config        ConfigJSON       `json:"config"`
}

// LastCommandJSON is the most recent command sent to the robot.
type LastCommandJSON struct {
	Command   string `json:"command"`
	Timestamp string `json:"timestamp"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of cycle counters.
type CountsJSON struct {
	Cycles       int `json:"cycles"`
	TargetSeen   int `json:"target_seen"`
	Stops        int `json:"stops"`
	Continues    int `json:"continues"`
	Suppressed   int `json:"suppressed"`
	SendFailures int `json:"send_failures"`
}

// ConfigJSON is the JSON representation of interlock config.
type ConfigJSON struct {
	RunID       string `json:"run_id"`
	Markers     string `json:"markers"`
	SerialPort  string `json:"serial_port"`
	Camera      int    `json:"camera"`
	Dictionary  string `json:"dictionary"`
	CooldownMs  int64  `json:"cooldown_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	markers := make([]int, len(snap.LastMarkers))
	for i, id := range snap.LastMarkers {
		markers[i] = int(id)
	}

	inner := StatusInner{
		State:         state,
		Target:        int(snap.Config.Target),
		Markers:       markers,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Cycles:       snap.Counts.Cycles,
			TargetSeen:   snap.Counts.TargetSeen,
			Stops:        snap.Counts.Stops,
			Continues:    snap.Counts.Continues,
			Suppressed:   snap.Counts.Suppressed,
			SendFailures: snap.Counts.SendFailures,
		},
		Config: ConfigJSON{
			RunID:       snap.Config.RunID,
			Markers:     snap.Config.Markers,
			SerialPort:  snap.Config.SerialPort,
			Camera:      snap.Config.Camera,
			Dictionary:  snap.Config.Dictionary,
			CooldownMs:  snap.Config.CooldownMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if snap.LastCommand != "" {
		inner.LastCommand = &LastCommandJSON{
			Command:   string(snap.LastCommand),
			Timestamp: snap.LastCommandAt.UTC().Format(time.RFC3339Nano),
		}
	}
	return inner
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

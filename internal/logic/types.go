// Package logic contains the pure interlock decision logic.
// This package has NO external dependencies (no camera, serial, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents the committed state of the actuator interlock.
type State string

const (
	StateRunning State = "RUNNING"
	StateStopped State = "STOPPED"
)

// Command is an instruction sent to the external controller.
type Command string

const (
	CommandStop     Command = "STOP"
	CommandContinue Command = "CONTINUE"
)

// commandDelimiter terminates every command on the wire.
const commandDelimiter = '\n'

// Wire returns the bytes written to the command channel for c.
func (c Command) Wire() []byte {
	return append([]byte(c), commandDelimiter)
}

// commandFor returns the command that moves the interlock into state s.
func commandFor(s State) Command {
	if s == StateStopped {
		return CommandStop
	}
	return CommandContinue
}

// Sender transmits a command to the actuator. A nil error means the
// command left the process; there is no acknowledgement.
type Sender interface {
	Send(cmd Command) error
}

// Event describes a command that was transmitted.
type Event struct {
	Timestamp time.Time
	Command   Command
	From      State
	To        State
	Target    MarkerID
	Markers   []MarkerID // markers visible in the cycle that caused the transition
}

// Counts tracks interlock activity since startup.
type Counts struct {
	Cycles       int // evaluations
	TargetSeen   int // evaluations where the target was visible
	Stops        int // STOP commands transmitted
	Continues    int // CONTINUE commands transmitted
	Suppressed   int // transitions held back by the cooldown
	SendFailures int // transmissions that returned an error
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	State     State
	Counts    Counts
}

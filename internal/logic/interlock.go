package logic

import (
	"fmt"
	"time"
)

// Interlock converts per-cycle detections into at most one command per
// cycle. The committed state only changes when a command is transmitted,
// and transmissions are spaced at least cooldown apart.
//
// Not safe for concurrent use; the control loop is its only caller.
type Interlock struct {
	target    MarkerID
	cooldown  time.Duration
	sender    Sender
	state     State
	lastSent  time.Time
	hasSent   bool
	startTime time.Time
	counts    Counts

	lastHeartbeat time.Time
}

// NewInterlock creates an interlock in the RUNNING state.
// The startTime is used for calculating uptime in heartbeat events.
func NewInterlock(target MarkerID, cooldown time.Duration, sender Sender, startTime time.Time) *Interlock {
	return &Interlock{
		target:        target,
		cooldown:      cooldown,
		sender:        sender,
		state:         StateRunning,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Evaluate feeds one cycle's detection into the interlock.
//
// It returns a non-nil Event only when a command was transmitted. A send
// failure leaves the state and cooldown timer untouched, so the same
// decision is retried on the next cycle.
func (l *Interlock) Evaluate(d Detection, now time.Time) (*Event, error) {
	l.counts.Cycles++

	desired := StateRunning
	if d.Contains(l.target) {
		l.counts.TargetSeen++
		desired = StateStopped
	}

	if desired == l.state {
		return nil, nil
	}

	if l.hasSent && now.Sub(l.lastSent) < l.cooldown {
		l.counts.Suppressed++
		return nil, nil
	}

	cmd := commandFor(desired)
	if err := l.sender.Send(cmd); err != nil {
		l.counts.SendFailures++
		return nil, fmt.Errorf("send %s: %w", cmd, err)
	}

	from := l.state
	l.state = desired
	l.lastSent = now
	l.hasSent = true
	if cmd == CommandStop {
		l.counts.Stops++
	} else {
		l.counts.Continues++
	}

	return &Event{
		Timestamp: now,
		Command:   cmd,
		From:      from,
		To:        desired,
		Target:    l.target,
		Markers:   d.IDs(),
	}, nil
}

// State returns the committed interlock state.
func (l *Interlock) State() State {
	return l.state
}

// Target returns the marker whose presence stops the actuator.
func (l *Interlock) Target() MarkerID {
	return l.target
}

// Cooldown returns the minimum spacing between transmissions.
func (l *Interlock) Cooldown() time.Duration {
	return l.cooldown
}

// LastSent returns the time of the last successful transmission.
// ok is false if nothing has been sent yet.
func (l *Interlock) LastSent() (t time.Time, ok bool) {
	return l.lastSent, l.hasSent
}

// Counts returns a copy of the activity counters.
func (l *Interlock) Counts() Counts {
	return l.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (l *Interlock) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(l.lastHeartbeat) < interval {
		return nil
	}

	l.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(l.startTime),
		State:     l.state,
		Counts:    l.counts,
	}
}

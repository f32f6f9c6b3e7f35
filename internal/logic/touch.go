package logic

import "time"

// Monitor is the debounced, hysteretic touch state machine.
// Two lines of defense against noise-driven flicker: the debounce timer
// gates how often the state may change, and the split touch/release
// thresholds keep a reading hovering near one boundary from chattering.
type Monitor struct {
	debounce       time.Duration
	state          TouchState
	lastTransition time.Time
	startTime      time.Time
	lastHeartbeat  time.Time
	counts         EventCounts
}

// NewMonitor creates a touch monitor in the Idle state. The startTime seeds
// the debounce timer and is used for uptime in heartbeat events.
func NewMonitor(debounce time.Duration, startTime time.Time) *Monitor {
	return &Monitor{
		debounce:       debounce,
		state:          StateIdle,
		lastTransition: startTime,
		startTime:      startTime,
		lastHeartbeat:  startTime,
	}
}

// Process evaluates one filtered reading against the current calibration and
// returns a transition event, or nil if the state persists. Comparisons are
// strict so a reading sitting exactly on a threshold never transitions.
func (m *Monitor) Process(filtered int, cal Calibration, now time.Time) *Event {
	if now.Sub(m.lastTransition) <= m.debounce {
		// Debounce guard failed, state persists until the next tick.
		return nil
	}

	delta := float64(filtered) - cal.Baseline

	switch m.state {
	case StateIdle:
		if delta > cal.TouchThreshold {
			m.state = StateTouched
			m.lastTransition = now
			m.counts.Touches++
			return &Event{
				Timestamp: now,
				Type:      EventTouch,
				Filtered:  filtered,
				Delta:     delta,
				Baseline:  cal.Baseline,
			}
		}
	case StateTouched:
		if delta < cal.ReleaseThreshold {
			m.state = StateIdle
			m.lastTransition = now
			m.counts.Releases++
			return &Event{
				Timestamp: now,
				Type:      EventRelease,
				Filtered:  filtered,
				Delta:     delta,
				Baseline:  cal.Baseline,
			}
		}
	}

	return nil
}

// State returns the current debounced state.
func (m *Monitor) State() TouchState {
	return m.state
}

// Counts returns a snapshot of the event counters.
func (m *Monitor) Counts() EventCounts {
	return m.counts
}

// CountSequence records one completed playback sequence.
func (m *Monitor) CountSequence() {
	m.counts.Sequences++
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since
// the last heartbeat (or startup). Returns nil if the interval has not
// elapsed or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts,
	}
}

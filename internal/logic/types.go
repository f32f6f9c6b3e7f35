// Package logic contains pure signal-conditioning and touch-detection logic.
// This package has NO external dependencies (no GPIO, DMX, MQTT, OS, or
// time.Sleep). Time is always injectable via time.Time parameters, and
// sensor access is always injectable via read functions.
package logic

import "time"

// TouchState represents the debounced state of the touch sensor.
type TouchState string

const (
	StateIdle    TouchState = "IDLE"
	StateTouched TouchState = "TOUCHED"
)

// EventType represents a state transition event.
type EventType string

const (
	EventTouch   EventType = "TOUCH"
	EventRelease EventType = "RELEASE"
)

// Event represents a state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	// Filtered is the filtered sensor reading that triggered the transition.
	Filtered int
	// Delta is Filtered minus the baseline at the time of the transition.
	Delta float64
	// Baseline is the calibrated baseline at the time of the transition.
	Baseline float64
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Touches   int
	Releases  int
	Sequences int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

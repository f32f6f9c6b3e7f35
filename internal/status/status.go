// Package status provides a thread-safe status tracker for the touchlamp
// daemon. It is designed to be read by HTTP handlers while the control loop
// writes it every tick.
package status

import (
	"sync"
	"time"

	"github.com/Anticdope/cap-test-2/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs          int64
	DebounceMs      int64
	HeartbeatMs     int64
	AdaptIntervalMs int64
	Broker          string
	HTTPAddr        string
	SerialDevice    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Touch            logic.TouchState
	Calibrated       bool
	Baseline         float64
	TouchThreshold   float64
	ReleaseThreshold float64
	NoiseAmplitude   float64
	Filtered         int
	SequenceActive   bool
	Counts           logic.EventCounts
	StartTime        time.Time
	Now              time.Time
	MQTTConnected    bool
	Config           Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Touch:     logic.StateIdle,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the per-tick fields. Called from the control loop every tick.
func (t *Tracker) Update(touch logic.TouchState, filtered int, sequenceActive bool, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Touch = touch
	t.snap.Filtered = filtered
	t.snap.SequenceActive = sequenceActive
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetCalibration records the calibration result. Called at startup and after
// every adaptive baseline update.
func (t *Tracker) SetCalibration(cal logic.Calibration) {
	t.mu.Lock()
	t.snap.Calibrated = true
	t.snap.Baseline = cal.Baseline
	t.snap.TouchThreshold = cal.TouchThreshold
	t.snap.ReleaseThreshold = cal.ReleaseThreshold
	t.snap.NoiseAmplitude = cal.NoiseAmplitude
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

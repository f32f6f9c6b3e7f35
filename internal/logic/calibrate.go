package logic

import (
	"fmt"
	"math"
	"time"
)

// CalibrationParams controls startup calibration and adaptive re-baselining.
type CalibrationParams struct {
	// SettleCount readings are discarded before baseline sampling starts,
	// letting the sensor settle after power-up.
	SettleCount int
	// BaselineCount readings are averaged to establish the baseline.
	BaselineCount int
	// NoiseCount readings are used to estimate noise amplitude.
	NoiseCount int
	// Multiplier scales the noise amplitude into the touch threshold.
	Multiplier float64
	// Floor is the minimum touch threshold, guaranteeing a margin against
	// noise even in a very quiet environment.
	Floor float64
	// Hysteresis is the release/touch threshold ratio. Must be in (0, 1)
	// so the release threshold always sits below the touch threshold.
	Hysteresis float64
	// SensorRange is the exclusive upper bound of raw readings (e.g. 1024
	// for a 10-bit source).
	SensorRange int
	// AdaptInterval is the minimum time between adaptive baseline updates.
	AdaptInterval time.Duration
	// AdaptCount readings are averaged per adaptive update burst.
	AdaptCount int
	// AdaptWeight is the blend weight of the fresh burst mean
	// (new = weight*burst + (1-weight)*old).
	AdaptWeight float64
}

// DefaultCalibrationParams returns the reference tuning for a 10-bit
// charge-time sensor.
func DefaultCalibrationParams() CalibrationParams {
	return CalibrationParams{
		SettleCount:   16,
		BaselineCount: 64,
		NoiseCount:    32,
		Multiplier:    3,
		Floor:         50,
		Hysteresis:    2.0 / 3.0,
		SensorRange:   1024,
		AdaptInterval: 10 * time.Second,
		AdaptCount:    8,
		AdaptWeight:   0.1,
	}
}

// Calibration holds the derived baseline and thresholds.
type Calibration struct {
	Baseline         float64
	TouchThreshold   float64
	ReleaseThreshold float64
	NoiseAmplitude   float64
}

// Calibrator owns the baseline and thresholds for the lifetime of the
// process. All mutation of the baseline goes through Calibrate and
// AdaptBaseline; nothing else may touch it.
type Calibrator struct {
	params     CalibrationParams
	cal        Calibration
	calibrated bool
	lastAdapt  time.Time
}

// NewCalibrator creates a Calibrator with the given parameters.
func NewCalibrator(params CalibrationParams) *Calibrator {
	return &Calibrator{params: params}
}

// Calibrate establishes the baseline and thresholds from fresh readings.
// It blocks for as many reads as the parameters demand, which is acceptable
// only at startup, never mid-loop. The read function is the raw sample
// source.
func (c *Calibrator) Calibrate(read func() int, now time.Time) (Calibration, error) {
	p := c.params
	if p.Hysteresis <= 0 || p.Hysteresis >= 1 {
		return Calibration{}, fmt.Errorf("hysteresis must be in (0, 1), got %g", p.Hysteresis)
	}
	if p.BaselineCount < 1 || p.NoiseCount < 1 {
		return Calibration{}, fmt.Errorf("baseline and noise sample counts must be positive")
	}

	for i := 0; i < p.SettleCount; i++ {
		read()
	}

	sum := 0
	for i := 0; i < p.BaselineCount; i++ {
		sum += read()
	}
	baseline := float64(sum) / float64(p.BaselineCount)

	// Mean absolute deviation from the baseline as the noise estimate.
	dev := 0.0
	for i := 0; i < p.NoiseCount; i++ {
		dev += math.Abs(float64(read()) - baseline)
	}
	noise := dev / float64(p.NoiseCount)

	touch := math.Max(noise*p.Multiplier, p.Floor)
	release := touch * p.Hysteresis

	if touch >= float64(p.SensorRange) {
		return Calibration{}, fmt.Errorf("touch threshold %.1f exceeds sensor range %d (noise amplitude %.1f)",
			touch, p.SensorRange, noise)
	}

	c.cal = Calibration{
		Baseline:         baseline,
		TouchThreshold:   touch,
		ReleaseThreshold: release,
		NoiseAmplitude:   noise,
	}
	c.calibrated = true
	c.lastAdapt = now
	return c.cal, nil
}

// AdaptBaseline blends a fresh burst of readings into the baseline so slow
// ambient drift (temperature, humidity) is tracked. It is a no-op unless the
// sensor is untouched and the adapt interval has elapsed; the Idle gate is
// what keeps a sustained touch from ever being absorbed as drift.
// Returns true if the baseline was updated.
func (c *Calibrator) AdaptBaseline(read func() int, now time.Time, state TouchState) bool {
	if !c.calibrated || state != StateIdle {
		return false
	}
	if now.Sub(c.lastAdapt) <= c.params.AdaptInterval {
		return false
	}

	sum := 0
	for i := 0; i < c.params.AdaptCount; i++ {
		sum += read()
	}
	burst := float64(sum) / float64(c.params.AdaptCount)

	w := c.params.AdaptWeight
	c.cal.Baseline = w*burst + (1-w)*c.cal.Baseline
	c.lastAdapt = now
	return true
}

// Calibration returns the current baseline and thresholds.
func (c *Calibrator) Calibration() Calibration {
	return c.cal
}

// Calibrated reports whether startup calibration has completed.
func (c *Calibrator) Calibrated() bool {
	return c.calibrated
}

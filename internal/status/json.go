package status

import (
	"encoding/json"
	"time"
)

// StatusEventJSON is the payload for system events that carry a full status
// snapshot (STARTUP, SHUTDOWN, HEARTBEAT).
type StatusEventJSON struct {
	System SystemJSON `json:"system"`
	Status StatusJSON `json:"status"`
}

// SystemJSON describes the lifecycle event itself.
type SystemJSON struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Touch          string          `json:"touch"`
	SequenceActive bool            `json:"sequence_active"`
	Filtered       int             `json:"filtered"`
	Calibration    CalibrationJSON `json:"calibration"`
	UptimeSeconds  int64           `json:"uptime_seconds"`
	StartTime      string          `json:"start_time"`
	MQTT           MQTTStatus      `json:"mqtt"`
	Counts         CountsJSON      `json:"event_counts"`
	Config         ConfigJSON      `json:"config"`
}

// CalibrationJSON is the JSON representation of the calibration state.
type CalibrationJSON struct {
	Calibrated       bool    `json:"calibrated"`
	Baseline         float64 `json:"baseline"`
	TouchThreshold   float64 `json:"touch_threshold"`
	ReleaseThreshold float64 `json:"release_threshold"`
	NoiseAmplitude   float64 `json:"noise_amplitude"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Touches   int `json:"touches"`
	Releases  int `json:"releases"`
	Sequences int `json:"sequences"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs          int64  `json:"poll_ms"`
	DebounceMs      int64  `json:"debounce_ms"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	AdaptIntervalMs int64  `json:"adapt_interval_ms"`
	Broker          string `json:"broker"`
	HTTPAddr        string `json:"http_addr"`
	SerialDevice    string `json:"serial_device"`
}

// ToJSON converts a snapshot into its JSON representation.
func ToJSON(snap Snapshot) StatusJSON {
	return StatusJSON{
		Touch:          string(snap.Touch),
		SequenceActive: snap.SequenceActive,
		Filtered:       snap.Filtered,
		Calibration: CalibrationJSON{
			Calibrated:       snap.Calibrated,
			Baseline:         snap.Baseline,
			TouchThreshold:   snap.TouchThreshold,
			ReleaseThreshold: snap.ReleaseThreshold,
			NoiseAmplitude:   snap.NoiseAmplitude,
		},
		UptimeSeconds: int64(snap.Uptime().Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
		},
		Counts: CountsJSON{
			Touches:   snap.Counts.Touches,
			Releases:  snap.Counts.Releases,
			Sequences: snap.Counts.Sequences,
		},
		Config: ConfigJSON{
			PollMs:          snap.Config.PollMs,
			DebounceMs:      snap.Config.DebounceMs,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			AdaptIntervalMs: snap.Config.AdaptIntervalMs,
			Broker:          snap.Config.Broker,
			HTTPAddr:        snap.Config.HTTPAddr,
			SerialDevice:    snap.Config.SerialDevice,
		},
	}
}

// FormatStatusEvent renders a system event carrying the full status
// snapshot. Returns nil if marshalling fails, which callers treat as "no
// raw payload".
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	payload := StatusEventJSON{
		System: SystemJSON{
			Timestamp: snap.Now.UTC().Format(time.RFC3339),
			Event:     event,
			Reason:    reason,
		},
		Status: ToJSON(snap),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return b
}

package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Anticdope/cap-test-2/internal/dmx"
	"github.com/Anticdope/cap-test-2/internal/gpio"
	"github.com/Anticdope/cap-test-2/internal/logic"
	"github.com/Anticdope/cap-test-2/internal/mqtt"
	"github.com/Anticdope/cap-test-2/internal/sequence"
)

// TestIntegrationFullFlow exercises the complete pipeline with fakes:
// calibration from a scripted sensor, a touch driving the reference light
// sequence to a fake bus, release, and MQTT payloads along the way.
func TestIntegrationFullFlow(t *testing.T) {
	params := logic.DefaultCalibrationParams()
	params.SettleCount = 2
	params.BaselineCount = 8
	params.NoiseCount = 4

	// Calibration sees a quiet signal around 500; noise amplitude is zero
	// so the floor (50) sets the touch threshold and 2/3 of it the release.
	calReadings := make([]int, params.SettleCount+params.BaselineCount+params.NoiseCount)
	for i := range calReadings {
		calReadings[i] = 500
	}
	sensor := gpio.NewFakeSensor(calReadings)

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	calibrator := logic.NewCalibrator(params)
	read := func() int {
		r, err := sensor.Read()
		if err != nil {
			t.Fatalf("sensor read: %v", err)
		}
		return r
	}
	cal, err := calibrator.Calibrate(read, start)
	if err != nil {
		t.Fatalf("calibrate: %v", err)
	}
	if cal.Baseline != 500 {
		t.Fatalf("baseline = %v, want 500", cal.Baseline)
	}
	if !(cal.ReleaseThreshold < cal.TouchThreshold) {
		t.Fatalf("thresholds out of order: %v >= %v", cal.ReleaseThreshold, cal.TouchThreshold)
	}

	filter := logic.NewFilter(3)
	filter.Seed(int(cal.Baseline))
	monitor := logic.NewMonitor(50*time.Millisecond, start)

	channels := sequence.DefaultChannelMap()
	sink := dmx.NewFakeSink()
	player := sequence.NewPlayer(sequence.DefaultScript(channels), channels, sink)
	publisher := mqtt.NewFakePublisher()

	// Simulated touch: readings jump well above the touch threshold. The
	// 3-wide median needs two samples to move, and the debounce needs 50ms
	// from startup, so the transition lands a few ticks in.
	tick := func(i int, reading int) *logic.Event {
		now := start.Add(time.Duration(i) * 20 * time.Millisecond)
		filter.Push(reading)
		event := monitor.Process(filter.Value(), calibrator.Calibration(), now)
		if event != nil {
			if err := publisher.Publish(*event); err != nil {
				t.Fatalf("publish: %v", err)
			}
			if event.Type == logic.EventTouch {
				if err := player.Start(now); err != nil {
					t.Fatalf("player start: %v", err)
				}
			}
		}
		done, err := player.Tick(now)
		if err != nil {
			t.Fatalf("player tick: %v", err)
		}
		if done {
			monitor.CountSequence()
		}
		return event
	}

	i := 1
	var touched bool
	for ; i < 20; i++ {
		if ev := tick(i, 650); ev != nil {
			if ev.Type != logic.EventTouch {
				t.Fatalf("first event = %s, want TOUCH", ev.Type)
			}
			touched = true
			i++
			break
		}
	}
	if !touched {
		t.Fatal("no touch event within 20 ticks")
	}

	// The first sequence step lit fixtures 0 and 5.
	if len(sink.Writes) != 6 {
		t.Fatalf("writes after touch = %d, want 6", len(sink.Writes))
	}
	for w, want := range map[int]int{0: 1, 3: 16} {
		if sink.Writes[w].Channel != want || sink.Writes[w].Intensity != 255 {
			t.Errorf("write %d = %+v, want channel %d at 255", w, sink.Writes[w], want)
		}
	}

	// Hold through the full 9s sequence plus slack; readings drop back to
	// ambient so a release fires along the way, and playback still runs to
	// completion.
	var released bool
	for ; i < 600; i++ {
		ev := tick(i, 500)
		if ev != nil {
			if ev.Type != logic.EventRelease {
				t.Fatalf("event = %s, want RELEASE", ev.Type)
			}
			released = true
		}
	}
	if !released {
		t.Fatal("no release event")
	}

	if monitor.Counts().Sequences != 1 {
		t.Errorf("sequences = %d, want 1", monitor.Counts().Sequences)
	}
	for _, ch := range channels.AllChannels() {
		if sink.Level(ch) != 0 {
			t.Errorf("channel %d = %d after sequence, want 0", ch, sink.Level(ch))
		}
	}

	// Published payloads decode into the touch schema.
	if len(publisher.Payloads) != 2 {
		t.Fatalf("payloads = %d, want 2", len(publisher.Payloads))
	}
	var decoded mqtt.Payload
	if err := json.Unmarshal(publisher.Payloads[0], &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded.Touch.Event != "TOUCH" {
		t.Errorf("payload event = %q, want TOUCH", decoded.Touch.Event)
	}
	if decoded.Touch.Baseline != 500 {
		t.Errorf("payload baseline = %v, want 500", decoded.Touch.Baseline)
	}
}

// TestIntegrationAdaptiveBaselineTracksDrift verifies that ambient drift is
// absorbed while idle but never while touched.
func TestIntegrationAdaptiveBaselineTracksDrift(t *testing.T) {
	params := logic.DefaultCalibrationParams()
	params.SettleCount = 1
	params.BaselineCount = 4
	params.NoiseCount = 2
	params.AdaptCount = 2
	params.AdaptInterval = 100 * time.Millisecond

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	calibrator := logic.NewCalibrator(params)

	reading := 500
	read := func() int { return reading }
	if _, err := calibrator.Calibrate(read, start); err != nil {
		t.Fatalf("calibrate: %v", err)
	}

	// Ambient drifts upward while idle: repeated due updates converge the
	// baseline toward the new ambient level.
	reading = 520
	now := start
	for i := 0; i < 50; i++ {
		now = now.Add(params.AdaptInterval + time.Millisecond)
		calibrator.AdaptBaseline(read, now, logic.StateIdle)
	}
	base := calibrator.Calibration().Baseline
	if base < 519 {
		t.Errorf("baseline = %v, want convergence toward 520", base)
	}

	// A sustained touch must never be absorbed, no matter how long it lasts.
	reading = 700
	for i := 0; i < 50; i++ {
		now = now.Add(params.AdaptInterval + time.Millisecond)
		calibrator.AdaptBaseline(read, now, logic.StateTouched)
	}
	if got := calibrator.Calibration().Baseline; got != base {
		t.Errorf("baseline moved from %v to %v during touch", base, got)
	}
}

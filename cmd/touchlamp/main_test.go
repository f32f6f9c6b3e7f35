package main

import (
	"encoding/json"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/Anticdope/cap-test-2/internal/dmx"
	"github.com/Anticdope/cap-test-2/internal/gpio"
	"github.com/Anticdope/cap-test-2/internal/logic"
	"github.com/Anticdope/cap-test-2/internal/mqtt"
	"github.com/Anticdope/cap-test-2/internal/sequence"
	"github.com/Anticdope/cap-test-2/internal/status"
)

// loopHarness drives runLoop with fakes and a synthetic clock.
type loopHarness struct {
	sensor    *gpio.FakeSensor
	indicator *gpio.FakeIndicator
	publisher *mqtt.FakePublisher
	sink      *dmx.FakeSink
	player    *sequence.Player
	tracker   *status.Tracker

	mu      sync.Mutex
	clock   time.Time
	tick    chan time.Time
	sig     chan os.Signal
	scripts chan sequence.Script
	done    chan error
}

func (h *loopHarness) now() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clock
}

// shortScript is a fast two-step sequence for loop tests:
// channel 1 on, 40ms hold, then channel 22 on with no hold.
func shortScript() sequence.Script {
	return sequence.Script{
		{Writes: []sequence.Write{{Channel: 1, Intensity: 255}}, Hold: 40 * time.Millisecond},
		{Writes: []sequence.Write{{Channel: 22, Intensity: 255}}, Hold: 0},
	}
}

// startLoop calibrates against a quiet 500 signal (touch threshold 50,
// release threshold 33.3) and starts runLoop in a goroutine.
func startLoop(t *testing.T, readings []int, heartbeat time.Duration) *loopHarness {
	t.Helper()

	params := logic.DefaultCalibrationParams()
	params.SettleCount = 1
	params.BaselineCount = 2
	params.NoiseCount = 2
	params.AdaptInterval = time.Hour // keep adaptation out of loop tests

	calReadings := append([]int{500, 500, 500, 500, 500}, readings...)

	h := &loopHarness{
		sensor:    gpio.NewFakeSensor(calReadings),
		indicator: gpio.NewFakeIndicator(),
		publisher: mqtt.NewFakePublisher(),
		sink:      dmx.NewFakeSink(),
		clock:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		tick:      make(chan time.Time),
		sig:       make(chan os.Signal, 1),
		scripts:   make(chan sequence.Script),
		done:      make(chan error, 1),
	}

	calibrator := logic.NewCalibrator(params)
	read := safeRead(h.sensor)
	cal, err := calibrator.Calibrate(read, h.clock)
	if err != nil {
		t.Fatalf("calibrate: %v", err)
	}
	if cal.TouchThreshold != 50 {
		t.Fatalf("touch threshold = %v, want floor 50", cal.TouchThreshold)
	}

	channels := sequence.DefaultChannelMap()
	h.player = sequence.NewPlayer(shortScript(), channels, h.sink)
	h.tracker = status.NewTracker(h.clock, status.Config{Broker: "tcp://test:1883"})
	h.tracker.SetCalibration(cal)

	filter := logic.NewFilter(1)
	filter.Seed(500)

	go func() {
		h.done <- runLoop(loop{
			read:       read,
			indicator:  h.indicator,
			publisher:  h.publisher,
			mqttStatus: h.publisher,
			tracker:    h.tracker,
			filter:     filter,
			calibrator: calibrator,
			player:     h.player,
			debounce:   50 * time.Millisecond,
			heartbeat:  heartbeat,
			now:        h.now,
			tick:       h.tick,
			sig:        h.sig,
			scripts:    h.scripts,
		})
	}()
	return h
}

// step advances the clock by 20ms and delivers one tick. The unbuffered
// channel means the loop has fully processed tick N before tick N+1 is
// accepted.
func (h *loopHarness) step() {
	h.mu.Lock()
	h.clock = h.clock.Add(20 * time.Millisecond)
	c := h.clock
	h.mu.Unlock()
	h.tick <- c
}

func (h *loopHarness) shutdown(t *testing.T, sig os.Signal) {
	t.Helper()
	h.sig <- sig
	select {
	case err := <-h.done:
		if err != nil {
			t.Fatalf("runLoop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runLoop did not return after signal")
	}
}

func TestLoopTouchPlaysSequenceAndPublishes(t *testing.T) {
	// Five touched ticks, then the finger lifts.
	h := startLoop(t, []int{600, 600, 600, 600, 600, 500}, 0)

	// Ticks at +20ms and +40ms are inside the debounce window; the touch
	// lands on the third tick (+60ms).
	for i := 0; i < 7; i++ {
		h.step()
	}
	h.shutdown(t, syscall.SIGTERM)

	if len(h.publisher.Events) != 2 {
		t.Fatalf("published %d events, want 2: %+v", len(h.publisher.Events), h.publisher.Events)
	}
	touch, release := h.publisher.Events[0], h.publisher.Events[1]
	if touch.Type != logic.EventTouch || touch.Filtered != 600 {
		t.Errorf("first event = %+v, want TOUCH at 600", touch)
	}
	if release.Type != logic.EventRelease || release.Filtered != 500 {
		t.Errorf("second event = %+v, want RELEASE at 500", release)
	}

	// The sequence ran: channel 1, then channel 22, then the off sweep.
	if len(h.sink.Writes) == 0 {
		t.Fatal("no bus writes recorded")
	}
	if h.sink.Writes[0] != (dmx.Write{Channel: 1, Intensity: 255}) {
		t.Errorf("first write = %+v, want channel 1 at 255", h.sink.Writes[0])
	}
	for ch := 1; ch <= 22; ch++ {
		if h.sink.Level(ch) != 0 {
			t.Errorf("channel %d = %d after shutdown, want 0", ch, h.sink.Level(ch))
		}
	}

	// Indicator: on at touch, off at release, off again at shutdown.
	wantStates := []bool{true, false, false}
	if len(h.indicator.States) != len(wantStates) {
		t.Fatalf("indicator states = %v, want %v", h.indicator.States, wantStates)
	}
	for i, want := range wantStates {
		if h.indicator.States[i] != want {
			t.Errorf("indicator state %d = %v, want %v", i, h.indicator.States[i], want)
		}
	}

	snap := h.tracker.Snapshot()
	if snap.Counts.Touches != 1 || snap.Counts.Releases != 1 || snap.Counts.Sequences != 1 {
		t.Errorf("counts = %+v, want 1/1/1", snap.Counts)
	}
}

func TestLoopShutdownPublishesRetainedEvent(t *testing.T) {
	h := startLoop(t, []int{500}, 0)
	h.step()
	h.shutdown(t, syscall.SIGINT)

	if len(h.publisher.SystemEvents) != 1 {
		t.Fatalf("system events = %d, want 1", len(h.publisher.SystemEvents))
	}
	ev := h.publisher.SystemEvents[0]
	if ev.Event != "SHUTDOWN" {
		t.Errorf("event = %q, want SHUTDOWN", ev.Event)
	}
	if ev.Reason != "SIGINT" {
		t.Errorf("reason = %q, want SIGINT", ev.Reason)
	}
	if !ev.Retained {
		t.Error("shutdown event not retained")
	}

	var decoded status.StatusEventJSON
	if err := json.Unmarshal(ev.RawPayload, &decoded); err != nil {
		t.Fatalf("unmarshal shutdown payload: %v", err)
	}
	if decoded.System.Reason != "SIGINT" {
		t.Errorf("payload reason = %q, want SIGINT", decoded.System.Reason)
	}
}

func TestLoopHeartbeat(t *testing.T) {
	h := startLoop(t, []int{500}, 100*time.Millisecond)

	// Six ticks cover 120ms, crossing one heartbeat interval.
	for i := 0; i < 6; i++ {
		h.step()
	}
	h.shutdown(t, syscall.SIGTERM)

	var heartbeats int
	for _, ev := range h.publisher.SystemEvents {
		if ev.Event == "HEARTBEAT" {
			heartbeats++
		}
	}
	if heartbeats != 1 {
		t.Errorf("heartbeats = %d, want 1", heartbeats)
	}
}

func TestLoopScriptReload(t *testing.T) {
	h := startLoop(t, []int{500, 500, 600, 600, 600, 600}, 0)

	// Two idle ticks, then swap the script while nothing is playing.
	h.step()
	h.step()
	replacement := sequence.Script{
		{Writes: []sequence.Write{{Channel: 7, Intensity: 99}}, Hold: 20 * time.Millisecond},
	}
	h.scripts <- replacement

	// Touch: the new script drives the bus.
	for i := 0; i < 4; i++ {
		h.step()
	}
	h.shutdown(t, syscall.SIGTERM)

	if len(h.sink.Writes) == 0 {
		t.Fatal("no bus writes recorded")
	}
	if h.sink.Writes[0] != (dmx.Write{Channel: 7, Intensity: 99}) {
		t.Errorf("first write = %+v, want channel 7 at 99", h.sink.Writes[0])
	}
}

func TestSafeReadFallsBackToLastGoodReading(t *testing.T) {
	sensor := gpio.NewFakeSensor([]int{512})
	read := safeRead(sensor)

	if got := read(); got != 512 {
		t.Fatalf("read = %d, want 512", got)
	}

	sensor.ReadError = os.ErrClosed
	if got := read(); got != 512 {
		t.Errorf("read after error = %d, want last good 512", got)
	}
}

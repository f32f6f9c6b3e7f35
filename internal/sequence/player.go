package sequence

import (
	"fmt"
	"time"

	"github.com/Anticdope/cap-test-2/internal/dmx"
)

// Player advances a script over the bus sink, one evaluation per tick.
// Playback state is just the current step index and its deadline, so no
// goroutine or sleep is involved and synthetic clocks drive it in tests.
//
// Once started, a sequence always runs to completion: a release or a fresh
// touch mid-playback neither cancels nor restarts it.
type Player struct {
	script   Script
	channels ChannelMap
	sink     dmx.Sink

	active   bool
	step     int
	deadline time.Time
}

// NewPlayer creates a Player for the given script and wiring.
func NewPlayer(script Script, channels ChannelMap, sink dmx.Sink) *Player {
	return &Player{script: script, channels: channels, sink: sink}
}

// Start begins playback: the first step's writes go out immediately and its
// hold deadline is armed. A Start while a sequence is active is ignored.
func (p *Player) Start(now time.Time) error {
	if p.active || len(p.script) == 0 {
		return nil
	}
	p.active = true
	p.step = 0
	return p.enterStep(now)
}

// Tick advances playback if the current step's hold has elapsed. It returns
// true exactly once per sequence, on the tick the final all-off sweep goes
// out.
func (p *Player) Tick(now time.Time) (bool, error) {
	if !p.active || now.Before(p.deadline) {
		return false, nil
	}

	p.step++
	if p.step >= len(p.script) {
		p.active = false
		if err := p.AllOff(); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, p.enterStep(now)
}

func (p *Player) enterStep(now time.Time) error {
	step := p.script[p.step]
	for _, w := range step.Writes {
		if err := p.sink.Set(w.Channel, w.Intensity); err != nil {
			return fmt.Errorf("step %d channel %d: %w", p.step, w.Channel, err)
		}
	}
	p.deadline = now.Add(step.Hold)
	return nil
}

// Active reports whether a sequence is playing.
func (p *Player) Active() bool {
	return p.active
}

// AllOff writes zero intensity to every mapped channel. Used at startup, on
// release, and as the final sweep of every sequence.
func (p *Player) AllOff() error {
	for _, ch := range p.channels.AllChannels() {
		if err := p.sink.Set(ch, 0); err != nil {
			return fmt.Errorf("all off channel %d: %w", ch, err)
		}
	}
	return nil
}

// SetScript swaps the playback script. Rejected while a sequence is active
// so a live reload can never tear a running sequence.
func (p *Player) SetScript(script Script) error {
	if p.active {
		return fmt.Errorf("sequence active, script not replaced")
	}
	if err := script.Validate(); err != nil {
		return err
	}
	p.script = script
	return nil
}

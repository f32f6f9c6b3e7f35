package sequence

import (
	"fmt"
	"time"

	"github.com/Anticdope/cap-test-2/internal/dmx"
)

// Write is a single (channel, intensity) bus write.
type Write struct {
	Channel   int  `yaml:"channel"`
	Intensity byte `yaml:"intensity"`
}

// Step is one playback step: a batch of writes, then a hold before the
// next step starts.
type Step struct {
	Writes []Write       `yaml:"writes"`
	Hold   time.Duration `yaml:"hold"`
}

// Script is the ordered playback script. Immutable during playback.
type Script []Step

// fixtureWrites sets every channel of a fixture to one intensity.
func fixtureWrites(m ChannelMap, fixture int, intensity byte) []Write {
	var ws []Write
	for _, ch := range m.FixtureChannels(fixture) {
		ws = append(ws, Write{Channel: ch, Intensity: intensity})
	}
	return ws
}

// DefaultScript returns the reference playback: outer fixture pairs light up
// moving inward, then the accent flashes and everything goes dark.
func DefaultScript(m ChannelMap) Script {
	pair := func(a, b int, hold time.Duration) Step {
		return Step{
			Writes: append(fixtureWrites(m, a, 255), fixtureWrites(m, b, 255)...),
			Hold:   hold,
		}
	}
	return Script{
		pair(0, 5, 2*time.Second),
		pair(1, 4, 2*time.Second),
		pair(2, 3, 2*time.Second),
		{Writes: fixtureWrites(m, AccentFixture, 255), Hold: 3 * time.Second},
		{Writes: fixtureWrites(m, AccentFixture, 0), Hold: 0},
	}
}

// Validate checks that a script is playable over the given channel map.
func (s Script) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("script has no steps")
	}
	for i, step := range s {
		if len(step.Writes) == 0 {
			return fmt.Errorf("step %d has no writes", i)
		}
		if step.Hold < 0 {
			return fmt.Errorf("step %d has negative hold %v", i, step.Hold)
		}
		for _, w := range step.Writes {
			if w.Channel < 1 || w.Channel > dmx.UniverseSize {
				return fmt.Errorf("step %d writes channel %d, outside [1, %d]", i, w.Channel, dmx.UniverseSize)
			}
		}
	}
	return nil
}

// Duration returns the total hold time of the script.
func (s Script) Duration() time.Duration {
	var d time.Duration
	for _, step := range s {
		d += step.Hold
	}
	return d
}

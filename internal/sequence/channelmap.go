// Package sequence drives the fixed lighting script that plays when the
// lamp is touched. Playback is advanced one step per control-loop tick
// against an injected clock, never by sleeping.
package sequence

// Fixture is a contiguous block of bus channels belonging to one light.
type Fixture struct {
	Start int `yaml:"start"` // first channel, 1-based
	Width int `yaml:"width"` // channel count (3 for RGB, 1 for single)
}

// ChannelMap maps logical fixture indexes to bus channels. Static wiring
// configuration, never mutated at runtime.
type ChannelMap struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// Reference wiring: seven RGB fixtures on channels 1-21, then the single
// accent channel on 22.
const (
	numRGBFixtures = 7
	rgbWidth       = 3

	// AccentFixture is the index of the single-channel accent light.
	AccentFixture = numRGBFixtures
)

// DefaultChannelMap returns the reference fixture wiring.
func DefaultChannelMap() ChannelMap {
	m := ChannelMap{}
	ch := 1
	for i := 0; i < numRGBFixtures; i++ {
		m.Fixtures = append(m.Fixtures, Fixture{Start: ch, Width: rgbWidth})
		ch += rgbWidth
	}
	m.Fixtures = append(m.Fixtures, Fixture{Start: ch, Width: 1})
	return m
}

// FixtureChannels returns the channel numbers of one fixture, ascending.
func (m ChannelMap) FixtureChannels(i int) []int {
	f := m.Fixtures[i]
	chs := make([]int, f.Width)
	for j := range chs {
		chs[j] = f.Start + j
	}
	return chs
}

// AllChannels returns every mapped channel, in fixture order.
func (m ChannelMap) AllChannels() []int {
	var chs []int
	for i := range m.Fixtures {
		chs = append(chs, m.FixtureChannels(i)...)
	}
	return chs
}

package dmx

import "fmt"

// Write records a single (channel, intensity) write.
type Write struct {
	Channel   int
	Intensity byte
}

// FakeSink records every write for test assertions.
type FakeSink struct {
	// Writes contains all writes in the order they arrived.
	Writes []Write

	// levels holds the current intensity per channel.
	levels map[int]byte

	// Closed tracks if Close was called.
	Closed bool

	// SetError, if set, will be returned by Set.
	SetError error
}

// NewFakeSink creates a FakeSink.
func NewFakeSink() *FakeSink {
	return &FakeSink{levels: make(map[int]byte)}
}

// Set records the write.
func (f *FakeSink) Set(channel int, intensity byte) error {
	if f.SetError != nil {
		return f.SetError
	}
	if channel < 1 || channel > UniverseSize {
		return fmt.Errorf("channel %d out of range [1, %d]", channel, UniverseSize)
	}
	f.Writes = append(f.Writes, Write{Channel: channel, Intensity: intensity})
	f.levels[channel] = intensity
	return nil
}

// Level returns the current intensity of a channel (0 if never written).
func (f *FakeSink) Level(channel int) byte {
	return f.levels[channel]
}

// Close marks the sink as closed.
func (f *FakeSink) Close() error {
	f.Closed = true
	return nil
}

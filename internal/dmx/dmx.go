// Package dmx provides the lighting bus sink with abstraction for testing.
// The real implementation drives an Enttec-style USB DMX adapter over a
// serial port; the fake records writes for assertions.
package dmx

// UniverseSize is the number of channels in a DMX universe.
const UniverseSize = 512

// Sink accepts per-channel intensity writes. Writes are fire-and-forget:
// the bus is unidirectional and nothing acknowledges them.
type Sink interface {
	// Set writes one channel intensity. Channels are 1-based.
	Set(channel int, intensity byte) error

	// Close releases the underlying transport.
	Close() error
}

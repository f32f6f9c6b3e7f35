package dmx

import (
	"fmt"

	"go.bug.st/serial"
)

// SerialSink writes DMX frames to an Enttec-style USB adapter. It keeps the
// full universe in memory and retransmits the whole frame on every Set, so
// the adapter always holds a consistent picture of all channels.
type SerialSink struct {
	port     serial.Port
	universe [UniverseSize]byte
}

// OpenSerialSink opens the named serial device at the given baud rate.
func OpenSerialSink(device string, baud int) (*SerialSink, error) {
	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}
	return &SerialSink{port: port}, nil
}

// Set updates one channel and transmits the refreshed universe.
func (s *SerialSink) Set(channel int, intensity byte) error {
	if channel < 1 || channel > UniverseSize {
		return fmt.Errorf("channel %d out of range [1, %d]", channel, UniverseSize)
	}
	s.universe[channel-1] = intensity

	if _, err := s.port.Write(encodeFrame(s.universe[:])); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close blanks the universe and closes the port.
func (s *SerialSink) Close() error {
	s.universe = [UniverseSize]byte{}
	if _, err := s.port.Write(encodeFrame(s.universe[:])); err != nil {
		s.port.Close()
		return fmt.Errorf("write blackout frame: %w", err)
	}
	if err := s.port.Close(); err != nil {
		return fmt.Errorf("close port: %w", err)
	}
	return nil
}

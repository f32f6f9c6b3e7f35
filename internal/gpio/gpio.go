// Package gpio provides the capacitive sensor input and indicator output
// with hardware abstraction. The real implementations use the Linux GPIO
// character device. The fakes allow testing without hardware.
package gpio

// Sensor reads the capacitive touch sensor.
type Sensor interface {
	// Read returns one raw reading in [0, MaxReading]. Larger readings mean
	// a longer charge time, i.e. more capacitance (a finger near the pad).
	Read() (int, error)

	// Close releases GPIO resources.
	Close() error
}

// Indicator drives the binary touch indicator output (an LED).
type Indicator interface {
	// SetActive turns the indicator on or off.
	SetActive(active bool) error

	// Close releases GPIO resources, leaving the indicator off.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinDrive = 23 // charges the sense pad through the timing resistor
	DefaultPinSense = 24 // reads the pad voltage
	DefaultPinLED   = 25 // touch indicator
)

// MaxReading is the upper bound of a raw sensor reading (10-bit scale, to
// match the charge-count clamp in the real sensor).
const MaxReading = 1023

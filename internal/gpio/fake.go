package gpio

import "errors"

// FakeSensor is a test double that returns scripted readings.
type FakeSensor struct {
	// Readings contains scripted raw values to return.
	// Each call to Read() consumes the next one.
	Readings []int

	// index tracks current position in Readings
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	// Reads counts how many times Read was called.
	Reads int
}

// NewFakeSensor creates a FakeSensor with the given readings.
func NewFakeSensor(readings []int) *FakeSensor {
	return &FakeSensor{Readings: readings}
}

// Read returns the next scripted reading.
// If readings are exhausted, returns the last one repeatedly.
func (f *FakeSensor) Read() (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}

	if len(f.Readings) == 0 {
		return 0, errors.New("no readings configured")
	}

	f.Reads++
	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r, nil
}

// Close marks the sensor as closed.
func (f *FakeSensor) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the sensor to the beginning of its readings.
func (f *FakeSensor) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
}

// FakeIndicator records indicator transitions for test assertions.
type FakeIndicator struct {
	// States contains every value passed to SetActive, in order.
	States []bool

	// Closed tracks if Close was called.
	Closed bool

	// SetError, if set, will be returned by SetActive.
	SetError error
}

// NewFakeIndicator creates a FakeIndicator.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// SetActive records the requested state.
func (f *FakeIndicator) SetActive(active bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, active)
	return nil
}

// Active returns the most recently set state, or false if never set.
func (f *FakeIndicator) Active() bool {
	if len(f.States) == 0 {
		return false
	}
	return f.States[len(f.States)-1]
}

// Close marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.Closed = true
	return nil
}

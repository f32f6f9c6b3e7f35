//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealSensor measures capacitance by charge-time counting: the drive line
// charges the sense pad through a high-value resistor, and the reading is
// the number of polls of the sense line until it reads high. A finger near
// the pad adds capacitance and stretches the charge time.
type RealSensor struct {
	chip  *gpiocdev.Chip
	drive *gpiocdev.Line
	sense *gpiocdev.Line
}

// NewRealSensor requests the drive and sense lines on gpiochip0.
func NewRealSensor(pinDrive, pinSense int) (*RealSensor, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	drive, err := chip.RequestLine(pinDrive, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request drive pin %d: %w", pinDrive, err)
	}

	sense, err := chip.RequestLine(pinSense, gpiocdev.AsInput)
	if err != nil {
		drive.Close()
		chip.Close()
		return nil, fmt.Errorf("request sense pin %d: %w", pinSense, err)
	}

	return &RealSensor{chip: chip, drive: drive, sense: sense}, nil
}

// Read performs one charge cycle and returns the charge count, clamped to
// [0, MaxReading].
func (s *RealSensor) Read() (int, error) {
	// Discharge the pad first so every cycle starts from the same level.
	if err := s.drive.SetValue(0); err != nil {
		return 0, fmt.Errorf("discharge: %w", err)
	}
	for i := 0; i < MaxReading; i++ {
		v, err := s.sense.Value()
		if err != nil {
			return 0, fmt.Errorf("read sense pin: %w", err)
		}
		if v == 0 {
			break
		}
	}

	if err := s.drive.SetValue(1); err != nil {
		return 0, fmt.Errorf("charge: %w", err)
	}
	count := 0
	for count < MaxReading {
		v, err := s.sense.Value()
		if err != nil {
			return 0, fmt.Errorf("read sense pin: %w", err)
		}
		if v == 1 {
			break
		}
		count++
	}

	return count, nil
}

// Close releases GPIO resources. The drive line is reconfigured to input
// before closing so the pad is left floating, matching Pi boot defaults.
func (s *RealSensor) Close() error {
	var errs []error

	if s.drive != nil {
		if err := s.drive.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure drive pin: %w", err))
		}
		if err := s.drive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close drive pin: %w", err))
		}
	}
	if s.sense != nil {
		if err := s.sense.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sense pin: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealIndicator drives the indicator LED through a GPIO output line.
type RealIndicator struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealIndicator requests the LED line on gpiochip0, initially off.
func NewRealIndicator(pin int) (*RealIndicator, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request led pin %d: %w", pin, err)
	}

	return &RealIndicator{chip: chip, line: line}, nil
}

// SetActive turns the LED on or off.
func (i *RealIndicator) SetActive(active bool) error {
	v := 0
	if active {
		v = 1
	}
	if err := i.line.SetValue(v); err != nil {
		return fmt.Errorf("set led: %w", err)
	}
	return nil
}

// Close turns the LED off and releases GPIO resources.
func (i *RealIndicator) Close() error {
	var errs []error

	if i.line != nil {
		if err := i.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear led: %w", err))
		}
		if err := i.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led pin: %w", err))
		}
	}
	if i.chip != nil {
		if err := i.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

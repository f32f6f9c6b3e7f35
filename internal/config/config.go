// Package config loads the optional YAML configuration file covering
// calibration tuning, fixture wiring, and the light script. Operational
// knobs (poll interval, broker, addresses) stay on flags in cmd.
package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/Anticdope/cap-test-2/internal/logic"
	"github.com/Anticdope/cap-test-2/internal/sequence"
)

// Calibration mirrors logic.CalibrationParams with YAML tags. Zero fields
// keep their defaults.
type Calibration struct {
	SettleCount   int           `yaml:"settle_count"`
	BaselineCount int           `yaml:"baseline_count"`
	NoiseCount    int           `yaml:"noise_count"`
	Multiplier    float64       `yaml:"multiplier"`
	Floor         float64       `yaml:"floor"`
	Hysteresis    float64       `yaml:"hysteresis"`
	AdaptInterval time.Duration `yaml:"adapt_interval"`
	AdaptWeight   float64       `yaml:"adapt_weight"`
}

// Config is the full YAML document.
type Config struct {
	Calibration Calibration        `yaml:"calibration"`
	Fixtures    []sequence.Fixture `yaml:"fixtures"`
	Script      []ScriptStep       `yaml:"script"`
}

// ScriptStep is one YAML playback step.
type ScriptStep struct {
	Writes []ScriptWrite `yaml:"writes"`
	Hold   time.Duration `yaml:"hold"`
}

// ScriptWrite is one YAML channel write.
type ScriptWrite struct {
	Channel   int `yaml:"channel"`
	Intensity int `yaml:"intensity"`
}

// Default returns the built-in configuration: reference calibration tuning,
// reference fixture wiring, reference script.
func Default() Config {
	p := logic.DefaultCalibrationParams()
	return Config{
		Calibration: Calibration{
			SettleCount:   p.SettleCount,
			BaselineCount: p.BaselineCount,
			NoiseCount:    p.NoiseCount,
			Multiplier:    p.Multiplier,
			Floor:         p.Floor,
			Hysteresis:    p.Hysteresis,
			AdaptInterval: p.AdaptInterval,
			AdaptWeight:   p.AdaptWeight,
		},
	}
}

// Load reads the YAML file at path and overlays it on the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := c.BuildScript(); err != nil {
		return err
	}
	return nil
}

// CalibrationParams converts the YAML calibration section into engine
// parameters, filling unset fields from the defaults.
func (c Config) CalibrationParams() logic.CalibrationParams {
	p := logic.DefaultCalibrationParams()
	cal := c.Calibration
	if cal.SettleCount > 0 {
		p.SettleCount = cal.SettleCount
	}
	if cal.BaselineCount > 0 {
		p.BaselineCount = cal.BaselineCount
	}
	if cal.NoiseCount > 0 {
		p.NoiseCount = cal.NoiseCount
	}
	if cal.Multiplier > 0 {
		p.Multiplier = cal.Multiplier
	}
	if cal.Floor > 0 {
		p.Floor = cal.Floor
	}
	if cal.Hysteresis > 0 {
		p.Hysteresis = cal.Hysteresis
	}
	if cal.AdaptInterval > 0 {
		p.AdaptInterval = cal.AdaptInterval
	}
	if cal.AdaptWeight > 0 {
		p.AdaptWeight = cal.AdaptWeight
	}
	return p
}

// ChannelMap returns the configured fixture wiring, or the reference wiring
// when the file does not define one.
func (c Config) ChannelMap() sequence.ChannelMap {
	if len(c.Fixtures) == 0 {
		return sequence.DefaultChannelMap()
	}
	return sequence.ChannelMap{Fixtures: c.Fixtures}
}

// BuildScript returns the configured playback script, validated, or the
// reference script when the file does not define one.
func (c Config) BuildScript() (sequence.Script, error) {
	m := c.ChannelMap()
	if len(c.Script) == 0 {
		return sequence.DefaultScript(m), nil
	}

	var script sequence.Script
	for i, step := range c.Script {
		s := sequence.Step{Hold: step.Hold}
		for _, w := range step.Writes {
			if w.Intensity < 0 || w.Intensity > 255 {
				return nil, fmt.Errorf("script step %d: intensity %d outside [0, 255]", i, w.Intensity)
			}
			s.Writes = append(s.Writes, sequence.Write{Channel: w.Channel, Intensity: byte(w.Intensity)})
		}
		script = append(script, s)
	}
	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return script, nil
}

package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/rocket-telemetry/internal/recording"
)

// Config is the flight computer configuration.
type Config struct {
	Settings Settings       `yaml:"settings"`
	Link     LinkConfig     `yaml:"link"`
	Sampling SamplingConfig `yaml:"sampling"`
	Sensor   SensorConfig   `yaml:"sensor"`
}

// Settings holds global application settings.
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// LinkConfig describes this node on the radio link.
type LinkConfig struct {
	LocalPeer string `yaml:"localPeer"` // 6-byte address, MAC-style
	Listen    string `yaml:"listen"`    // UDP listen address
}

// SamplingConfig paces the telemetry loop.
type SamplingConfig struct {
	IntervalMS       int `yaml:"intervalMS"`
	RecorderCapacity int `yaml:"recorderCapacity"`
}

// Interval returns the sampling cadence, covering the sensor settle time.
func (c SamplingConfig) Interval() time.Duration {
	if c.IntervalMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// SensorConfig shapes the simulated barometer until real hardware is
// wired in.
type SensorConfig struct {
	PadPressurePa  float64 `yaml:"padPressurePa"`
	ApogeeFt       float64 `yaml:"apogeeFt"`
	AscentTimeS    int     `yaml:"ascentTimeS"`
	DescentTimeS   int     `yaml:"descentTimeS"`
	LiftoffDelayS  int     `yaml:"liftoffDelayS"`
	BatteryRuntime int     `yaml:"batteryRuntimeMin"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	config := Config{
		Sampling: SamplingConfig{
			IntervalMS:       100,
			RecorderCapacity: recording.DefaultCapacity,
		},
	}
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if config.Link.LocalPeer == "" {
		return nil, fmt.Errorf("link.localPeer is required")
	}
	if config.Link.Listen == "" {
		return nil, fmt.Errorf("link.listen is required")
	}
	return &config, nil
}

// LogLevel parses the configured level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

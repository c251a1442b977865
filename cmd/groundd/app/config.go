package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/rocket-telemetry/internal/groundstation"
	"github.com/roman-kulish/rocket-telemetry/internal/mqtt"
)

// Config is the ground station configuration.
type Config struct {
	Settings Settings       `yaml:"settings"`
	Link     LinkConfig     `yaml:"link"`
	Receiver ReceiverConfig `yaml:"receiver"`
	Storage  StorageConfig  `yaml:"storage"`
	MQTT     mqtt.Config    `yaml:"mqtt"`
}

// Settings holds global application settings.
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// LinkConfig describes both ends of the radio link: this node and the
// flight computer it talks to.
type LinkConfig struct {
	LocalPeer      string `yaml:"localPeer"`      // This node's 6-byte address
	Listen         string `yaml:"listen"`         // UDP listen address
	FlightPeer     string `yaml:"flightPeer"`     // Flight computer's address
	FlightEndpoint string `yaml:"flightEndpoint"` // Flight computer's UDP endpoint
}

// ReceiverConfig tunes stream reconstruction.
type ReceiverConfig struct {
	CadenceMS         int `yaml:"cadenceMS"`
	MaxRequestsPerGap int `yaml:"maxRequestsPerGap"`
}

// Cadence returns the expected telemetry cadence.
func (c ReceiverConfig) Cadence() time.Duration {
	if c.CadenceMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.CadenceMS) * time.Millisecond
}

// StorageConfig locates the flight log.
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	config := Config{
		Receiver: ReceiverConfig{
			CadenceMS:         100,
			MaxRequestsPerGap: groundstation.DefaultMaxRequestsPerGap,
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
	if config.Link.FlightPeer == "" {
		return nil, fmt.Errorf("link.flightPeer is required")
	}
	if config.Link.FlightEndpoint == "" {
		return nil, fmt.Errorf("link.flightEndpoint is required")
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

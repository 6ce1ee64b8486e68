package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/tello-control/tello/internal/command"
)

// DefaultPort is the well-known command port of the device.
const DefaultPort = 8889

// Config represents the complete client configuration.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Timing   TimingConfig   `yaml:"timing"`
	Movement MovementConfig `yaml:"movement"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DeviceConfig holds the remote address of the drone.
type DeviceConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	LocalAddr string `yaml:"localAddr"` // optional local bind address, "" picks any
}

// TimingConfig holds command and keep-alive timing.
type TimingConfig struct {
	CommandTimeout    time.Duration `yaml:"commandTimeout"`
	KeepAliveInterval time.Duration `yaml:"keepAliveInterval"` // 0 disables keep-alive
	KeepAliveCommand  string        `yaml:"keepAliveCommand"`
}

// MovementConfig holds parameter-range settings.
type MovementConfig struct {
	SpeedRange     command.Range `yaml:"speedRange"`
	SingleAxisRule string        `yaml:"singleAxisRule"` // "legacy" or "strict"
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // "text" or "json"
	File       string `yaml:"file"`   // optional rotating log file
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// MetricsConfig holds the optional prometheus listener.
type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr"` // "" disables the listener
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Host: "192.168.10.1",
			Port: DefaultPort,
		},
		Timing: TimingConfig{
			CommandTimeout:    7 * time.Second,
			KeepAliveInterval: 10 * time.Second,
			KeepAliveCommand:  command.ReadBattery,
		},
		Movement: MovementConfig{
			SpeedRange:     command.DefaultSpeedRange,
			SingleAxisRule: command.AxisLegacy.String(),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load merges Default() + optional YAML file + TELLO_* env overrides.
// When path is empty, TELLO_CONFIG is consulted.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TELLO_CONFIG")
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg. Keys absent from the file keep their current values.
func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies TELLO_* environment variables to the config.
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("TELLO_HOST"); val != "" {
		cfg.Device.Host = val
	}

	if val := os.Getenv("TELLO_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("TELLO_PORT: %w", err)
		}
		cfg.Device.Port = port
	}

	if val := os.Getenv("TELLO_LOCAL_ADDR"); val != "" {
		cfg.Device.LocalAddr = val
	}

	if val := os.Getenv("TELLO_COMMAND_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("TELLO_COMMAND_TIMEOUT: %w", err)
		}
		cfg.Timing.CommandTimeout = d
	}

	if val := os.Getenv("TELLO_KEEPALIVE_INTERVAL"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("TELLO_KEEPALIVE_INTERVAL: %w", err)
		}
		cfg.Timing.KeepAliveInterval = d
	}

	if val := os.Getenv("TELLO_KEEPALIVE_COMMAND"); val != "" {
		cfg.Timing.KeepAliveCommand = val
	}

	if val := os.Getenv("TELLO_SPEED_MIN"); val != "" {
		v, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("TELLO_SPEED_MIN: %w", err)
		}
		cfg.Movement.SpeedRange.Min = v
	}

	if val := os.Getenv("TELLO_SPEED_MAX"); val != "" {
		v, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("TELLO_SPEED_MAX: %w", err)
		}
		cfg.Movement.SpeedRange.Max = v
	}

	if val := os.Getenv("TELLO_SINGLE_AXIS_RULE"); val != "" {
		cfg.Movement.SingleAxisRule = val
	}

	if val := os.Getenv("TELLO_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}

	if val := os.Getenv("TELLO_LOG_FILE"); val != "" {
		cfg.Logging.File = val
	}

	if val := os.Getenv("TELLO_METRICS_ADDR"); val != "" {
		cfg.Metrics.ListenAddr = val
	}

	return nil
}

// Address returns host:port of the device.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Device.Host, c.Device.Port)
}

// AxisRule returns the parsed single-axis rule. Validate guarantees it parses.
func (c *Config) AxisRule() command.AxisRule {
	rule, _ := command.ParseAxisRule(c.Movement.SingleAxisRule)
	return rule
}

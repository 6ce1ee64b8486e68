package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tello-control/tello/internal/command"
)

// MaxCommandTimeout bounds how long a single send may block.
const MaxCommandTimeout = 60 * time.Second

// Validate checks the configuration for values the client cannot work with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if strings.TrimSpace(cfg.Device.Host) == "" {
		return fmt.Errorf("device host must not be empty")
	}

	if cfg.Device.Port <= 0 || cfg.Device.Port > 65535 {
		return fmt.Errorf("device port %d is outside range [1, 65535]", cfg.Device.Port)
	}

	if cfg.Timing.CommandTimeout <= 0 || cfg.Timing.CommandTimeout > MaxCommandTimeout {
		return fmt.Errorf("command timeout %v is outside range (0, %v]", cfg.Timing.CommandTimeout, MaxCommandTimeout)
	}

	if cfg.Timing.KeepAliveInterval < 0 {
		return fmt.Errorf("keep-alive interval %v must not be negative", cfg.Timing.KeepAliveInterval)
	}

	if cfg.Timing.KeepAliveInterval > 0 && strings.TrimSpace(cfg.Timing.KeepAliveCommand) == "" {
		return fmt.Errorf("keep-alive command must not be empty when keep-alive is enabled")
	}

	r := cfg.Movement.SpeedRange
	if r.Min <= 0 || r.Max > command.GoSpeedRange.Max || r.Min > r.Max {
		return fmt.Errorf("invalid speed range: min=%d, max=%d (must be 1-%d)", r.Min, r.Max, command.GoSpeedRange.Max)
	}

	if _, ok := command.ParseAxisRule(cfg.Movement.SingleAxisRule); !ok {
		return fmt.Errorf("invalid single-axis rule %q, must be one of: [legacy strict]", cfg.Movement.SingleAxisRule)
	}

	if _, err := logrus.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	switch cfg.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, must be one of: [text json]", cfg.Logging.Format)
	}

	return nil
}

package command

import (
	"fmt"
	"strings"
)

// Failover is the recovery action attempted once when a chained command fails.
type Failover int

const (
	// FailoverNone attempts no recovery. It is the zero value, so an unset
	// policy behaves as no recovery.
	FailoverNone Failover = iota
	FailoverLand
	FailoverHover
	FailoverEmergency
)

// Command returns the command sent for the failover action. The second
// result is false for FailoverNone.
func (f Failover) Command() (Command, bool) {
	switch f {
	case FailoverLand:
		return Raw(TextLand), true
	case FailoverHover:
		return Raw(TextStop), true
	case FailoverEmergency:
		return Raw(TextEmergency), true
	default:
		return Command{}, false
	}
}

func (f Failover) String() string {
	switch f {
	case FailoverLand:
		return "land"
	case FailoverHover:
		return "hover"
	case FailoverEmergency:
		return "emergency"
	default:
		return "none"
	}
}

// ParseFailover maps a configuration or CLI value to a Failover.
func ParseFailover(raw string) (Failover, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		return FailoverNone, nil
	case "land":
		return FailoverLand, nil
	case "hover", "stop":
		return FailoverHover, nil
	case "emergency":
		return FailoverEmergency, nil
	default:
		return FailoverNone, fmt.Errorf("unknown failover policy %q", raw)
	}
}

// IsFailoverText reports whether text is the wire form of a failover action.
func IsFailoverText(text string) bool {
	switch strings.TrimSpace(text) {
	case TextLand, TextStop, TextEmergency:
		return true
	default:
		return false
	}
}

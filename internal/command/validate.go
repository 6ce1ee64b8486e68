package command

// Distance bounds accepted by the device, in centimetres.
const (
	MinDistance      = -500
	MaxDistance      = 500
	MinMoveMagnitude = 20
)

// Common speed ranges, in cm/s.
var (
	DefaultSpeedRange = Range{Min: 10, Max: 60}
	GoSpeedRange      = Range{Min: 10, Max: 100}
)

// Range is a closed integer interval.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Contains reports whether v lies within the closed interval.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Validate reports whether speed and distances are acceptable to the device.
//
// A nil speed and a nil distances slice means there is nothing to validate
// and is rejected. A non-nil empty distances slice is vacuously valid. When
// distances are given, every element must lie within [-500, 500] and at
// least one must have a magnitude strictly greater than 20.
func Validate(speed *int, distances []int, speedRange Range) bool {
	if speed == nil && distances == nil {
		return false
	}

	if speed != nil && !speedRange.Contains(*speed) {
		return false
	}

	if len(distances) == 0 {
		return true
	}

	moves := false
	for _, d := range distances {
		if d < MinDistance || d > MaxDistance {
			return false
		}
		if abs(d) > MinMoveMagnitude {
			moves = true
		}
	}

	return moves
}

// AxisRule selects how single-axis moves (up, down, left, right, forward,
// back) are bounded.
type AxisRule int

const (
	// AxisLegacy accepts any distance of at least 20 with no upper bound.
	AxisLegacy AxisRule = iota
	// AxisStrict applies the shared Validate rule to the single distance.
	AxisStrict
)

func (r AxisRule) String() string {
	switch r {
	case AxisStrict:
		return "strict"
	default:
		return "legacy"
	}
}

// ParseAxisRule maps a configuration value to an AxisRule.
func ParseAxisRule(raw string) (AxisRule, bool) {
	switch raw {
	case "", "legacy":
		return AxisLegacy, true
	case "strict":
		return AxisStrict, true
	default:
		return AxisLegacy, false
	}
}

// ValidateAxis reports whether cm is an acceptable single-axis distance.
func ValidateAxis(cm int, rule AxisRule) bool {
	if rule == AxisStrict {
		return Validate(nil, []int{cm}, DefaultSpeedRange)
	}
	return cm >= MinMoveMagnitude
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package command

import (
	"fmt"
	"strings"
)

// Well-known command texts.
const (
	TextActivate  = "command"
	TextTakeoff   = "takeoff"
	TextLand      = "land"
	TextEmergency = "emergency"
	TextStop      = "stop"
)

// SuccessToken is the leading reply content that marks a command as accepted.
const SuccessToken = "ok"

// Params are the numeric arguments of a command, kept only for validation.
type Params struct {
	Speed      *int
	Distances  []int
	SpeedRange Range

	// axis marks a single-axis move bounded by rule instead of Validate.
	axis bool
	rule AxisRule
}

// Valid reports whether the parameter set passes its range rule.
func (p Params) Valid() bool {
	if p.axis {
		if len(p.Distances) != 1 {
			return false
		}
		return ValidateAxis(p.Distances[0], p.rule)
	}
	return Validate(p.Speed, p.Distances, p.SpeedRange)
}

// Command is an immutable text command plus the parameter sets that gate it.
type Command struct {
	text   string
	params []Params
}

// Raw wraps free-form command text. It carries no parameters and is never
// rejected by validation.
func Raw(text string) Command {
	return Command{text: strings.TrimSpace(text)}
}

// Text returns the wire form of the command.
func (c Command) Text() string {
	return c.text
}

// Valid reports whether every attached parameter set is in range.
func (c Command) Valid() bool {
	for _, p := range c.params {
		if !p.Valid() {
			return false
		}
	}
	return true
}

func (c Command) String() string {
	return c.text
}

// Direction is a single-axis movement direction.
type Direction string

const (
	Up      Direction = "up"
	Down    Direction = "down"
	Left    Direction = "left"
	Right   Direction = "right"
	Forward Direction = "forward"
	Back    Direction = "back"
)

// Move builds a single-axis movement of cm centimetres.
func Move(dir Direction, cm int, rule AxisRule) Command {
	return Command{
		text:   fmt.Sprintf("%s %d", dir, cm),
		params: []Params{{Distances: []int{cm}, axis: true, rule: rule}},
	}
}

// Rotate builds a cw or ccw rotation. Angles are passed through unmodified.
func Rotate(degrees int, clockwise bool) Command {
	verb := "ccw"
	if clockwise {
		verb = "cw"
	}
	return Command{text: fmt.Sprintf("%s %d", verb, degrees)}
}

// FlipDirection is one of the four flip directions.
type FlipDirection string

const (
	FlipLeft    FlipDirection = "l"
	FlipRight   FlipDirection = "r"
	FlipForward FlipDirection = "f"
	FlipBack    FlipDirection = "b"
)

// Flip builds a flip command.
func Flip(dir FlipDirection) Command {
	return Command{text: "flip " + string(dir)}
}

// Point is a position relative to the drone, in centimetres.
type Point struct {
	X, Y, Z int
}

func (p Point) distances() []int {
	return []int{p.X, p.Y, p.Z}
}

// Go builds a straight flight to p at speed cm/s. Speed must be within GoSpeedRange.
func Go(p Point, speed int) Command {
	return Command{
		text:   fmt.Sprintf("go %d %d %d %d", p.X, p.Y, p.Z, speed),
		params: []Params{{Speed: &speed, Distances: p.distances(), SpeedRange: GoSpeedRange}},
	}
}

// Curve builds a curved flight through p1 to p2. Each point is validated on
// its own against speedRange.
func Curve(p1, p2 Point, speed int, speedRange Range) Command {
	return Command{
		text: fmt.Sprintf("curve %d %d %d %d %d %d %d", p1.X, p1.Y, p1.Z, p2.X, p2.Y, p2.Z, speed),
		params: []Params{
			{Speed: &speed, Distances: p1.distances(), SpeedRange: speedRange},
			{Speed: &speed, Distances: p2.distances(), SpeedRange: speedRange},
		},
	}
}

// Speed builds a set-speed command. Speed must be within GoSpeedRange.
func Speed(speed int) Command {
	return Command{
		text:   fmt.Sprintf("speed %d", speed),
		params: []Params{{Speed: &speed, Distances: []int{}, SpeedRange: GoSpeedRange}},
	}
}

// Read queries understood by the device. Replies carry a value, not the success token.
const (
	ReadBattery = "battery?"
	ReadSpeed   = "speed?"
	ReadTime    = "time?"
	ReadWifi    = "wifi?"
	ReadSDK     = "sdk?"
	ReadSerial  = "sn?"
)

// IsRead reports whether text is a read query.
func IsRead(text string) bool {
	return strings.HasSuffix(strings.TrimSpace(text), "?")
}

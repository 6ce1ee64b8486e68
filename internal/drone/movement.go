package drone

import (
	"context"

	"github.com/tello-control/tello/internal/command"
)

// Movement primitives validate their parameters and send a single command
// without a failover. Each reports whether the device accepted it.

// Up climbs cm centimetres.
func (c *Client) Up(ctx context.Context, cm int) bool {
	return c.move(ctx, command.Up, cm)
}

// Down descends cm centimetres.
func (c *Client) Down(ctx context.Context, cm int) bool {
	return c.move(ctx, command.Down, cm)
}

// Left moves cm centimetres to the left.
func (c *Client) Left(ctx context.Context, cm int) bool {
	return c.move(ctx, command.Left, cm)
}

// Right moves cm centimetres to the right.
func (c *Client) Right(ctx context.Context, cm int) bool {
	return c.move(ctx, command.Right, cm)
}

// Forward moves cm centimetres ahead.
func (c *Client) Forward(ctx context.Context, cm int) bool {
	return c.move(ctx, command.Forward, cm)
}

// Back moves cm centimetres backwards.
func (c *Client) Back(ctx context.Context, cm int) bool {
	return c.move(ctx, command.Back, cm)
}

// CW rotates clockwise by degrees. The angle is sent as given.
func (c *Client) CW(ctx context.Context, degrees int) bool {
	return c.Rotate(ctx, degrees, true)
}

// CCW rotates counter-clockwise by degrees. The angle is sent as given.
func (c *Client) CCW(ctx context.Context, degrees int) bool {
	return c.Rotate(ctx, degrees, false)
}

// Rotate turns by degrees in the given direction.
func (c *Client) Rotate(ctx context.Context, degrees int, clockwise bool) bool {
	return c.single(ctx, command.Rotate(degrees, clockwise))
}

// Flip flips in dir.
func (c *Client) Flip(ctx context.Context, dir command.FlipDirection) bool {
	return c.single(ctx, command.Flip(dir))
}

// Go flies straight to (x, y, z) at speed cm/s.
func (c *Client) Go(ctx context.Context, x, y, z, speed int) bool {
	return c.single(ctx, command.Go(command.Point{X: x, Y: y, Z: z}, speed))
}

// Curve flies through p1 to p2. Both points are checked against the
// client speed range.
func (c *Client) Curve(ctx context.Context, p1, p2 command.Point, speed int) bool {
	return c.single(ctx, command.Curve(p1, p2, speed, c.speedRange))
}

// SetSpeed sets the cruise speed in cm/s.
func (c *Client) SetSpeed(ctx context.Context, speed int) bool {
	return c.single(ctx, command.Speed(speed))
}

func (c *Client) move(ctx context.Context, dir command.Direction, cm int) bool {
	return c.single(ctx, command.Move(dir, cm, c.axisRule))
}

package drone

import (
	"context"
	"time"

	"github.com/tello-control/tello/internal/command"
	"github.com/tello-control/tello/internal/events"
)

// LandOptions configure BeforeLand.
type LandOptions struct {
	Do         string // optional command sent before landing
	Turnoff    bool   // shut the client down once landing resolves
	Completion func() // optional, runs after landing resolves
}

// Activate puts the device into SDK mode. It must be the first command
// sent to a real drone.
func (c *Client) Activate(ctx context.Context) bool {
	return c.single(ctx, command.Raw(command.TextActivate))
}

// Takeoff sends takeoff and reports whether the device accepted it.
func (c *Client) Takeoff(ctx context.Context) bool {
	ok := c.single(ctx, command.Raw(command.TextTakeoff))
	c.bus.Publish(events.TopicLifecycle, events.Event{Type: events.TypeTakeoff, Command: command.TextTakeoff, OK: ok})
	return ok
}

// TakeoffAnd sends takeoff and then do. It is true only if both succeed.
func (c *Client) TakeoffAnd(ctx context.Context, do string) bool {
	if !c.Takeoff(ctx) {
		return false
	}
	return c.single(ctx, command.Raw(do))
}

// TakeoffThen sends takeoff and runs completion only if the device accepted it.
func (c *Client) TakeoffThen(ctx context.Context, completion func()) bool {
	ok := c.Takeoff(ctx)
	if ok && completion != nil {
		completion()
	}
	return ok
}

// BeforeLand sends opts.Do when set, then always sends land. With
// opts.Turnoff the keep-alive is stopped before BeforeLand returns and the
// rest of the teardown runs asynchronously; wait on ShutdownDone for it.
// The completion runs once landing resolved, whatever its outcome.
func (c *Client) BeforeLand(ctx context.Context, opts LandOptions) bool {
	if opts.Do != "" {
		if !c.ChainText(ctx, opts.Do).Continuable() {
			c.logger.WithField("command", opts.Do).Warn("pre-landing command failed, landing anyway")
		}
	}

	ok := c.Land(ctx)
	c.bus.Publish(events.TopicLifecycle, events.Event{Type: events.TypeLanded, Command: command.TextLand, OK: ok})

	if opts.Turnoff {
		c.scheduleShutdown()
	}
	if opts.Completion != nil {
		opts.Completion()
	}

	return ok
}

// Land sends land.
func (c *Client) Land(ctx context.Context) bool {
	return c.single(ctx, command.Raw(command.TextLand))
}

// Emergency stops all motors immediately.
func (c *Client) Emergency(ctx context.Context) bool {
	return c.single(ctx, command.Raw(command.TextEmergency))
}

// Stop makes the drone hover in place.
func (c *Client) Stop(ctx context.Context) bool {
	return c.single(ctx, command.Raw(command.TextStop))
}

// Hover is an alias of Stop.
func (c *Client) Hover(ctx context.Context) bool {
	return c.Stop(ctx)
}

// KeepAlive sends the keep-alive command every interval until
// ClearKeepAlive or Close. A running ticker is replaced.
func (c *Client) KeepAlive(every time.Duration) error {
	return c.keepAlive.Start(every)
}

// ClearKeepAlive stops the keep-alive ticker. No keep-alive is sent after
// it returns.
func (c *Client) ClearKeepAlive() {
	c.keepAlive.Stop()
}

// KeepAliveActive reports whether a keep-alive ticker is running.
func (c *Client) KeepAliveActive() bool {
	return c.keepAlive.Active()
}

// single sends cmd once with no failover. The result is the device's answer
// to cmd itself.
func (c *Client) single(ctx context.Context, cmd command.Command) bool {
	return c.ChainWith(ctx, cmd, command.FailoverNone).Continuable()
}

package drone

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tello-control/tello/internal/channel"
	"github.com/tello-control/tello/internal/command"
	"github.com/tello-control/tello/internal/events"
	"github.com/tello-control/tello/internal/metrics"
)

// Chain broken reasons.
const (
	brokenValidation = "validation"
	brokenDevice     = "device"
	brokenFailover   = "failover"
)

// Step is the result of one chained command. The zero value is Broken.
type Step struct {
	client *Client
}

// Continuable reports whether the chain may go on.
func (s Step) Continuable() bool {
	return s.client != nil
}

// Client returns the client of a Continuable step, or nil when Broken.
func (s Step) Client() *Client {
	return s.client
}

// Chain sends cmd with the hover failover if the step is Continuable.
func (s Step) Chain(ctx context.Context, cmd command.Command) Step {
	return s.ChainWith(ctx, cmd, command.FailoverHover)
}

// ChainWith sends cmd with the given failover if the step is Continuable.
// A Broken step stays Broken without contacting the device.
func (s Step) ChainWith(ctx context.Context, cmd command.Command, failover command.Failover) Step {
	if s.client == nil {
		return Step{}
	}
	return s.client.ChainWith(ctx, cmd, failover)
}

// ChainText chains free-form command text with the hover failover.
func (s Step) ChainText(ctx context.Context, text string) Step {
	return s.Chain(ctx, command.Raw(text))
}

// Chain sends cmd with the hover failover.
func (c *Client) Chain(ctx context.Context, cmd command.Command) Step {
	return c.ChainWith(ctx, cmd, command.FailoverHover)
}

// ChainText chains free-form command text with the hover failover.
func (c *Client) ChainText(ctx context.Context, text string) Step {
	return c.Chain(ctx, command.Raw(text))
}

// ChainWith sends cmd and, if the device rejects it, sends the failover
// command once. The step is Continuable when either send succeeded.
// Commands with out of range parameters are never sent.
func (c *Client) ChainWith(ctx context.Context, cmd command.Command, failover command.Failover) Step {
	logger := c.logger.WithFields(logrus.Fields{"command": cmd.Text(), "failover": failover.String()})

	if !cmd.Valid() {
		c.setErr(fmt.Errorf("%w: %q", command.ErrValidationRejected, cmd.Text()))
		metrics.ObserveChainBroken(brokenValidation)
		logger.Warn("command rejected: parameters out of range")
		return Step{}
	}

	reply := c.send(ctx, cmd.Text())
	if reply.OK() {
		return Step{client: c}
	}

	fc, ok := failover.Command()
	if !ok {
		metrics.ObserveChainBroken(brokenDevice)
		logger.WithField("reason", reply.Reason()).Warn("command failed")
		return Step{}
	}

	recovery := c.send(ctx, fc.Text())
	metrics.ObserveFailover(failover.String(), recovery.OK())
	c.bus.Publish(events.TopicFailover, events.Event{
		Type:    events.TypeFailover,
		Command: fc.Text(),
		OK:      recovery.OK(),
		Reason:  recovery.Reason(),
	})

	if recovery.OK() {
		logger.WithField("reason", reply.Reason()).Warn("command failed, failover succeeded")
		return Step{client: c}
	}

	c.setErr(fmt.Errorf("%w: %q after %q: %w", command.ErrFailoverExhausted, fc.Text(), cmd.Text(), recovery.Err))
	metrics.ObserveChainBroken(brokenFailover)
	logger.WithFields(logrus.Fields{
		"reason":          reply.Reason(),
		"failover_reason": recovery.Reason(),
	}).Error("command and failover failed")

	return Step{}
}

// send performs one round trip and records its outcome.
func (c *Client) send(ctx context.Context, text string) channel.Reply {
	reply := c.ch.Send(ctx, text)
	if !reply.OK() {
		c.setErr(reply.Err)
	}
	c.bus.Publish(events.TopicCommand, events.Event{
		Type:    events.TypeReply,
		Command: text,
		OK:      reply.OK(),
		Reason:  reply.Reason(),
	})
	return reply
}

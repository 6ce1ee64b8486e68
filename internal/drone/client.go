package drone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tello-control/tello/internal/channel"
	"github.com/tello-control/tello/internal/command"
	"github.com/tello-control/tello/internal/config"
	"github.com/tello-control/tello/internal/events"
	"github.com/tello-control/tello/internal/group"
	"github.com/tello-control/tello/internal/keepalive"
	"github.com/tello-control/tello/internal/logging"
)

// Options configure New.
type Options struct {
	Address          string        // remote host:port
	LocalAddr        string        // optional local bind address
	Timeout          time.Duration // per-command reply timeout
	SpeedRange       command.Range // used by Curve, zero means command.DefaultSpeedRange
	AxisRule         command.AxisRule
	KeepAliveCommand string

	Logger *logrus.Entry
	Events *events.Bus // optional, not closed by the client
}

// OptionsFromConfig maps a loaded configuration onto client options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Address:          cfg.Address(),
		LocalAddr:        cfg.Device.LocalAddr,
		Timeout:          cfg.Timing.CommandTimeout,
		SpeedRange:       cfg.Movement.SpeedRange,
		AxisRule:         cfg.AxisRule(),
		KeepAliveCommand: cfg.Timing.KeepAliveCommand,
	}
}

// Client controls one drone.
type Client struct {
	speedRange command.Range
	axisRule   command.AxisRule
	logger     *logrus.Entry
	bus        *events.Bus

	ch        *channel.Channel
	group     *group.Group
	keepAlive *keepalive.Manager

	errMu   sync.Mutex
	lastErr error

	shutdownOnce sync.Once
	closeOnce    sync.Once
	closeErr     error
	closed       chan struct{}
}

// New opens the command channel. It fails when the socket cannot be
// created; no further operation makes sense without one.
func New(ctx context.Context, opts Options) (*Client, error) {
	logger := logging.OrDiscard(opts.Logger)

	ch, err := channel.Open(ctx, channel.Options{
		Address:   opts.Address,
		LocalAddr: opts.LocalAddr,
		Timeout:   opts.Timeout,
		Logger:    logger.WithField("component", "channel"),
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	speedRange := opts.SpeedRange
	if speedRange == (command.Range{}) {
		speedRange = command.DefaultSpeedRange
	}

	c := &Client{
		speedRange: speedRange,
		axisRule:   opts.AxisRule,
		logger:     logger.WithFields(logrus.Fields{"component": "drone", "remote": ch.Remote()}),
		bus:        opts.Events,
		ch:         ch,
		group:      group.New(context.Background()),
		closed:     make(chan struct{}),
	}
	c.keepAlive = keepalive.New(ch, c.group, keepalive.Options{
		Command: opts.KeepAliveCommand,
		Logger:  logger,
		OnTick:  c.onKeepAlive,
	})

	c.logger.WithField("local", ch.LocalAddr()).Info("client ready")

	return c, nil
}

// Remote returns the device address.
func (c *Client) Remote() string {
	return c.ch.Remote()
}

// Active reports whether the command channel is open.
func (c *Client) Active() bool {
	return c.ch.IsActive()
}

// LastError returns the cause of the most recent failed send, validation
// rejection or failover, or nil.
func (c *Client) LastError() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErr
}

func (c *Client) setErr(err error) {
	c.errMu.Lock()
	c.lastErr = err
	c.errMu.Unlock()
}

// Close stops the keep-alive, closes the channel and waits for every
// goroutine the client started. It is idempotent and safe for concurrent
// use; later calls return the result of the first.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.keepAlive.Stop()
		c.closeErr = c.ch.Close()
		c.group.Close()

		c.bus.Publish(events.TopicLifecycle, events.Event{Type: events.TypeShutdown, OK: c.closeErr == nil})
		c.logger.Info("client closed")
		close(c.closed)
	})
	return c.closeErr
}

// ShutdownDone is closed once teardown has finished, whether it ran from
// Close or from the shutdown scheduled by BeforeLand.
func (c *Client) ShutdownDone() <-chan struct{} {
	return c.closed
}

// scheduleShutdown stops the keep-alive before returning, then runs the rest
// of the teardown on its own goroutine. That goroutine cannot live in the
// client group because Close waits for the group.
func (c *Client) scheduleShutdown() {
	c.keepAlive.Stop()
	c.shutdownOnce.Do(func() {
		c.logger.Debug("shutdown scheduled")
		go func() {
			_ = c.Close()
		}()
	})
}

func (c *Client) onKeepAlive(err error) {
	ev := events.Event{Type: events.TypeKeepAlive, Command: c.keepAlive.Command(), OK: err == nil}
	if err != nil {
		ev.Reason = command.Reason(err)
	}
	c.bus.Publish(events.TopicKeepAlive, ev)
}

// Package keepalive keeps the drone control session warm by sending a
// lightweight command on a fixed interval. Failures are absorbed: a missed
// keep-alive never reaches foreground callers.
package keepalive

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tello-control/tello/internal/command"
	"github.com/tello-control/tello/internal/logging"
	"github.com/tello-control/tello/internal/metrics"
)

// ErrInvalidInterval is returned by Start for a non-positive interval.
var ErrInvalidInterval = errors.New("keep-alive interval must be positive")

// ErrNotRunnable is returned by Start when the runner refuses new work.
var ErrNotRunnable = errors.New("keep-alive runner is closed")

// Exchanger sends one command and returns the raw reply.
type Exchanger interface {
	Exchange(ctx context.Context, text string) ([]byte, error)
}

// Runner starts fn on a goroutine owned by the caller. It returns false if
// it no longer accepts work.
type Runner interface {
	Go(fn func(ctx context.Context)) bool
}

// Options configure a Manager.
type Options struct {
	Command string // defaults to "battery?"
	Logger  *logrus.Entry
	OnTick  func(err error) // optional, called after every send
}

// Manager runs at most one keep-alive ticker at a time.
type Manager struct {
	sender  Exchanger
	runner  Runner
	command string
	logger  *logrus.Entry
	onTick  func(err error)

	mu       sync.Mutex
	stop     context.CancelFunc
	done     chan struct{}
}

// New creates a stopped Manager that sends through sender on goroutines
// started by runner.
func New(sender Exchanger, runner Runner, opts Options) *Manager {
	if opts.Command == "" {
		opts.Command = command.ReadBattery
	}
	return &Manager{
		sender:  sender,
		runner:  runner,
		command: opts.Command,
		logger:  logging.OrDiscard(opts.Logger).WithField("component", "keepalive"),
		onTick:  opts.OnTick,
	}
}

// Start begins sending every interval. A running ticker is stopped and replaced.
func (m *Manager) Start(interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	stopCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	started := m.runner.Go(func(ctx context.Context) {
		defer close(done)
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		// Stop cancels the send context too, so a tick waiting behind a
		// foreground command gives up instead of sending.
		unregister := context.AfterFunc(stopCtx, cancel)
		defer unregister()

		m.run(ctx, interval)
	})
	if !started {
		stop()
		return ErrNotRunnable
	}

	m.stop = stop
	m.done = done
	m.logger.WithField("interval", interval).Info("started")

	return nil
}

// Stop cancels the ticker and waits for the loop to exit. Once Stop returns
// no further keep-alive is sent. An in-flight send finishes first.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Command returns the text sent on every tick.
func (m *Manager) Command() string {
	return m.command
}

// Active reports whether a ticker is running.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

func (m *Manager) stopLocked() {
	if m.stop == nil {
		return
	}
	m.stop()
	<-m.done
	m.stop = nil
	m.done = nil
	m.logger.Info("stopped")
}

func (m *Manager) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// a tick and a stop can be ready together
		if ctx.Err() != nil {
			return
		}
		m.tick(ctx)
	}
}

func (m *Manager) tick(ctx context.Context) {
	_, err := m.sender.Exchange(ctx, m.command)
	if ctx.Err() != nil {
		// stopped while waiting for the channel
		return
	}
	metrics.ObserveKeepAlive(err == nil)
	if err != nil {
		m.logger.WithError(err).Debug("keep-alive failed")
	} else {
		m.logger.Debug("keep-alive sent")
	}
	if m.onTick != nil {
		m.onTick(err)
	}
}

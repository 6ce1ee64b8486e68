package channel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tello-control/tello/internal/command"
	"github.com/tello-control/tello/internal/logging"
	"github.com/tello-control/tello/internal/metrics"
)

const (
	defaultTimeout   = 7 * time.Second
	maxDatagramSize  = 2048
	maxStaleDrainOps = 16
	staleDrainWait   = time.Millisecond
)

// ErrClosed is returned when a command is sent on a closed channel.
var ErrClosed = errors.New("command channel is closed")

// Options configure Open.
type Options struct {
	Address   string        // remote host:port
	LocalAddr string        // optional local bind address
	Timeout   time.Duration // per-command reply timeout
	Logger    *logrus.Entry
}

// Channel owns the UDP socket to the drone. Send and Exchange are
// serialized; Close may be called concurrently and unblocks a pending read.
type Channel struct {
	remote  string
	timeout time.Duration
	logger  *logrus.Entry

	sendMu sync.Mutex
	buf    []byte

	mu   sync.RWMutex
	conn net.Conn
}

// Open dials the remote address. Failures wrap command.ErrTransportOpenFailed.
func Open(ctx context.Context, opts Options) (*Channel, error) {
	logger := logging.OrDiscard(opts.Logger).WithFields(logrus.Fields{"remote": opts.Address})

	if opts.Address == "" {
		logger.Warn("open failed: address is empty")
		return nil, fmt.Errorf("%w: address is empty", command.ErrTransportOpenFailed)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	dialer := net.Dialer{}
	if opts.LocalAddr != "" {
		laddr, err := net.ResolveUDPAddr("udp", opts.LocalAddr)
		if err != nil {
			logger.WithError(err).Warn("open failed: invalid local address")
			return nil, fmt.Errorf("%w: resolve local address %q: %w", command.ErrTransportOpenFailed, opts.LocalAddr, err)
		}
		dialer.LocalAddr = laddr
	}

	conn, err := dialer.DialContext(ctx, "udp", opts.Address)
	if err != nil {
		logger.WithError(err).Warn("open failed")
		return nil, fmt.Errorf("%w: dial udp %s: %w", command.ErrTransportOpenFailed, opts.Address, err)
	}
	logger.WithField("local", conn.LocalAddr().String()).Info("opened")

	return &Channel{
		remote:  opts.Address,
		timeout: opts.Timeout,
		logger:  logger,
		buf:     make([]byte, maxDatagramSize),
		conn:    conn,
	}, nil
}

// Remote returns the remote address the channel was opened with.
func (c *Channel) Remote() string {
	return c.remote
}

// LocalAddr returns the bound local address, or "" once closed.
func (c *Channel) LocalAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil {
		return ""
	}
	return c.conn.LocalAddr().String()
}

// IsActive is true between a successful Open and Close.
func (c *Channel) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil
}

// Close releases the socket. It is idempotent.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		c.logger.Debug("close skipped: not open")
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		c.logger.WithError(err).Warn("close failed")
		return err
	}
	c.logger.Info("closed")

	return nil
}

// Send transmits text and classifies the reply.
func (c *Channel) Send(ctx context.Context, text string) Reply {
	start := time.Now()
	raw, err := c.Exchange(ctx, text)
	if err != nil {
		status := metrics.StatusError
		if errors.Is(err, command.ErrNoResponse) {
			status = metrics.StatusTimeout
		}
		metrics.ObserveCommand(text, status, time.Since(start))
		return Failed(text, err)
	}

	reply := Classify(text, raw)
	if reply.OK() {
		metrics.ObserveCommand(text, metrics.StatusSuccess, time.Since(start))
	} else {
		metrics.ObserveCommand(text, metrics.StatusError, time.Since(start))
	}
	return reply
}

// Exchange transmits text as one datagram and returns the raw bytes of the
// single reply datagram. It blocks until the reply arrives, the timeout
// elapses, the context deadline passes or the channel is closed.
func (c *Channel) Exchange(ctx context.Context, text string) ([]byte, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	logger := c.logger.WithField("command", text)

	conn, err := c.currentConn()
	if err != nil {
		logger.Debug("send failed: not open")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		logger.WithError(err).Debug("send canceled")
		return nil, err
	}

	c.drainStale(conn)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	_ = conn.SetWriteDeadline(deadline)
	if _, err := conn.Write([]byte(text)); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrClosed
		}
		logger.WithError(err).Warn("write command failed")
		return nil, fmt.Errorf("write command %q: %w", text, err)
	}
	sentAt := time.Now()
	logger.Debug("sent")

	_ = conn.SetReadDeadline(deadline)
	n, err := conn.Read(c.buf)
	if err != nil {
		var netErr net.Error
		switch {
		case errors.Is(err, net.ErrClosed):
			logger.Debug("read reply aborted: channel closed")
			return nil, ErrClosed
		case errors.As(err, &netErr) && netErr.Timeout():
			logger.Debug("no response")
			return nil, fmt.Errorf("%w: %q after %v", command.ErrNoResponse, text, time.Since(sentAt).Round(time.Millisecond))
		default:
			logger.WithError(err).Debug("read reply failed")
			return nil, fmt.Errorf("%w: %q: %w", command.ErrNoResponse, text, err)
		}
	}

	reply := append([]byte(nil), c.buf[:n]...)
	logger.WithField("reply", string(reply)).Debug("received")

	return reply, nil
}

// drainStale discards datagrams that arrived after an earlier command timed
// out, so they are not taken as the reply to the next command.
func (c *Channel) drainStale(conn net.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(staleDrainWait))
	for i := 0; i < maxStaleDrainOps; i++ {
		n, err := conn.Read(c.buf)
		if err != nil {
			return
		}
		c.logger.WithField("reply", string(c.buf[:n])).Debug("discarded stale reply")
	}
}

func (c *Channel) currentConn() (net.Conn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil {
		return nil, ErrClosed
	}
	return c.conn, nil
}

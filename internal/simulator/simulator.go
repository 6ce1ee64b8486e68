// Package simulator provides a drone emulator that answers text commands
// over UDP. It lets tests and local development exercise the client without
// a real device.
//
// Every command is answered with the configured response. A failover
// command (land, stop, emergency) arriving right after a failed reply is
// answered with the failover response instead, when one is set. Read
// queries ending in '?' get canned values and do not affect that state.
//
// Nothing on the wire marks a failover attempt, so a land, stop or
// emergency sent as an ordinary command right after a failure is answered
// with the failover response too. Tests that need the primary response
// there should call ClearFailoverResponse first.
package simulator

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tello-control/tello/internal/command"
	"github.com/tello-control/tello/internal/logging"
)

// DefaultAddr is where a real drone listens for commands.
const DefaultAddr = "127.0.0.1:8889"

const maxDatagramSize = 2048

// ErrAlreadyStarted is returned by Start on a running simulator.
var ErrAlreadyStarted = errors.New("simulator already started")

// Simulator is a UDP responder with configurable replies.
type Simulator struct {
	addr   string
	logger *logrus.Entry

	mu               sync.RWMutex
	cmdResponse      string
	failoverResponse *string
	silent           bool
	delay            time.Duration
	lastFailed       bool
	readValues       map[string]string
	received         []string

	connMu sync.Mutex
	conn   net.PacketConn
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates a simulator that will bind addr on Start. Use port 0 to let
// the system pick one and read it back with Addr.
func New(addr string, logger *logrus.Entry) *Simulator {
	if addr == "" {
		addr = DefaultAddr
	}

	return &Simulator{
		addr:        addr,
		logger:      logging.OrDiscard(logger).WithField("component", "simulator"),
		cmdResponse: command.SuccessToken,
		readValues: map[string]string{
			command.ReadBattery: "87",
			command.ReadSpeed:   "100.0",
			command.ReadTime:    "0s",
			command.ReadWifi:    "90",
			command.ReadSDK:     "20",
			command.ReadSerial:  "0TQDG44EDBNYXK",
		},
	}
}

// Start binds the address and begins answering datagrams.
func (s *Simulator) Start() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn != nil {
		return ErrAlreadyStarted
	}

	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.conn = conn
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.serve(conn, s.done)

	s.logger.WithField("addr", conn.LocalAddr().String()).Info("simulator listening")
	return nil
}

// Stop closes the socket and waits for the serve loop to exit. It is idempotent.
func (s *Simulator) Stop() error {
	s.connMu.Lock()
	conn := s.conn
	done := s.done
	s.conn = nil
	s.done = nil
	s.connMu.Unlock()

	if conn == nil {
		return nil
	}

	close(done)
	err := conn.Close()
	s.wg.Wait()
	s.logger.Info("simulator stopped")

	return err
}

// Addr returns the bound address while running, or the configured one otherwise.
func (s *Simulator) Addr() string {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		return s.conn.LocalAddr().String()
	}
	return s.addr
}

// SetResponse sets the reply to primary command attempts.
func (s *Simulator) SetResponse(resp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmdResponse = resp
}

// SetFailoverResponse sets the reply to failover attempts.
func (s *Simulator) SetFailoverResponse(resp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failoverResponse = &resp
}

// ClearFailoverResponse makes failover attempts use the primary response again.
func (s *Simulator) ClearFailoverResponse() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failoverResponse = nil
}

// SetSilent drops every incoming command without replying.
func (s *Simulator) SetSilent(silent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silent = silent
}

// SetDelay holds each reply back for d.
func (s *Simulator) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SetReadValue sets the reply to a read query such as "battery?".
func (s *Simulator) SetReadValue(query, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readValues[query] = value
}

// Received returns every command received so far, oldest first.
func (s *Simulator) Received() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.received))
	copy(out, s.received)
	return out
}

// Count returns how many times text was received.
func (s *Simulator) Count(text string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.received {
		if r == text {
			n++
		}
	}
	return n
}

// ResetReceived clears the command history.
func (s *Simulator) ResetReceived() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = nil
}

func (s *Simulator) serve(conn net.PacketConn, done chan struct{}) {
	defer s.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.WithError(err).Warn("read failed")
			continue
		}

		text := strings.TrimSpace(string(buf[:n]))
		resp, delay, ok := s.respond(text)
		logger := s.logger.WithFields(logrus.Fields{"command": text, "peer": peer.String()})
		if !ok {
			logger.Debug("dropped")
			continue
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-done:
				return
			}
		}

		if _, err := conn.WriteTo([]byte(resp), peer); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.WithError(err).Warn("write failed")
			continue
		}
		logger.WithField("reply", resp).Debug("answered")
	}
}

// respond records text and picks the reply. ok is false when the command is dropped.
func (s *Simulator) respond(text string) (resp string, delay time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received = append(s.received, text)
	if s.silent {
		return "", 0, false
	}

	if command.IsRead(text) {
		v, found := s.readValues[text]
		if !found {
			v = "error"
		}
		return v, s.delay, true
	}

	resp = s.cmdResponse
	if s.lastFailed && s.failoverResponse != nil && command.IsFailoverText(text) {
		resp = *s.failoverResponse
	}
	s.lastFailed = !strings.HasPrefix(resp, command.SuccessToken)

	return resp, s.delay, true
}

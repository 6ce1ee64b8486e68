package keepalive

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tello-control/tello/internal/channel"
	"github.com/tello-control/tello/internal/command"
	"github.com/tello-control/tello/internal/group"
	"github.com/tello-control/tello/internal/simulator"
)

type recordingExchanger struct {
	mu    sync.Mutex
	sent  []string
	err   error
	delay time.Duration
}

func (r *recordingExchanger) Exchange(ctx context.Context, text string) ([]byte, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	if r.err != nil {
		return nil, r.err
	}
	return []byte("87"), nil
}

func (r *recordingExchanger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func newManager(t *testing.T, ex Exchanger, opts Options) (*Manager, *group.Group) {
	t.Helper()
	g := group.New(context.Background())
	t.Cleanup(g.Close)
	return New(ex, g, opts), g
}

func TestStartSendsOnInterval(t *testing.T) {
	defer goleak.VerifyNone(t)

	ex := &recordingExchanger{}
	m, g := newManager(t, ex, Options{})

	require.NoError(t, m.Start(10*time.Millisecond))
	assert.True(t, m.Active())

	assert.Eventually(t, func() bool { return ex.count() >= 3 }, time.Second, 5*time.Millisecond)

	m.Stop()
	g.Close()

	ex.mu.Lock()
	defer ex.mu.Unlock()
	for _, text := range ex.sent {
		assert.Equal(t, command.ReadBattery, text)
	}
}

func TestCustomCommand(t *testing.T) {
	ex := &recordingExchanger{}
	m, _ := newManager(t, ex, Options{Command: "command"})

	require.NoError(t, m.Start(5*time.Millisecond))
	defer m.Stop()

	assert.Eventually(t, func() bool { return ex.count() >= 1 }, time.Second, 5*time.Millisecond)
	ex.mu.Lock()
	assert.Equal(t, "command", ex.sent[0])
	ex.mu.Unlock()
}

func TestStopSilencesTicker(t *testing.T) {
	ex := &recordingExchanger{}
	m, _ := newManager(t, ex, Options{})

	require.NoError(t, m.Start(10*time.Millisecond))
	assert.Eventually(t, func() bool { return ex.count() >= 1 }, time.Second, 5*time.Millisecond)

	m.Stop()
	assert.False(t, m.Active())

	after := ex.count()
	time.Sleep(35 * time.Millisecond)
	assert.Equal(t, after, ex.count(), "keep-alive sent after Stop returned")
}

func TestStopWithoutStart(t *testing.T) {
	m, _ := newManager(t, &recordingExchanger{}, Options{})

	m.Stop()
	m.Stop()
	assert.False(t, m.Active())
}

func TestRestartReplacesTicker(t *testing.T) {
	ex := &recordingExchanger{}
	m, _ := newManager(t, ex, Options{})

	require.NoError(t, m.Start(time.Hour))
	require.NoError(t, m.Start(10*time.Millisecond))
	defer m.Stop()

	assert.Eventually(t, func() bool { return ex.count() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestInvalidInterval(t *testing.T) {
	m, _ := newManager(t, &recordingExchanger{}, Options{})

	for _, interval := range []time.Duration{0, -time.Second} {
		assert.ErrorIs(t, m.Start(interval), ErrInvalidInterval)
	}
	assert.False(t, m.Active())
}

func TestStartAfterRunnerClosed(t *testing.T) {
	m, g := newManager(t, &recordingExchanger{}, Options{})
	g.Close()

	assert.ErrorIs(t, m.Start(time.Second), ErrNotRunnable)
	assert.False(t, m.Active())
}

func TestFailuresAreAbsorbed(t *testing.T) {
	boom := errors.New("boom")
	ex := &recordingExchanger{err: boom}

	var failures atomic.Int32
	m, _ := newManager(t, ex, Options{OnTick: func(err error) {
		if errors.Is(err, boom) {
			failures.Add(1)
		}
	}})

	require.NoError(t, m.Start(5*time.Millisecond))
	assert.Eventually(t, func() bool { return failures.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, m.Active(), "failures must not stop the ticker")
	m.Stop()
}

func TestStopWaitsForInFlightSend(t *testing.T) {
	ex := &recordingExchanger{delay: 30 * time.Millisecond}
	var ticks atomic.Int32
	m, _ := newManager(t, ex, Options{OnTick: func(error) { ticks.Add(1) }})

	require.NoError(t, m.Start(5*time.Millisecond))
	assert.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)

	m.Stop()
	after := ex.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, ex.count())
}

func TestGroupCloseEndsTicker(t *testing.T) {
	defer goleak.VerifyNone(t)

	ex := &recordingExchanger{}
	g := group.New(context.Background())
	m := New(ex, g, Options{})

	require.NoError(t, m.Start(5*time.Millisecond))
	g.Close()

	assert.False(t, m.Active())
	m.Stop()
}

func TestKeepAliveOverChannel(t *testing.T) {
	sim := simulator.New("127.0.0.1:0", nil)
	require.NoError(t, sim.Start())
	defer func() { _ = sim.Stop() }()

	ch, err := channel.Open(context.Background(), channel.Options{Address: sim.Addr(), Timeout: 200 * time.Millisecond})
	require.NoError(t, err)
	defer func() { _ = ch.Close() }()

	m, _ := newManager(t, ch, Options{})
	require.NoError(t, m.Start(10*time.Millisecond))

	assert.Eventually(t, func() bool { return sim.Count(command.ReadBattery) >= 2 }, time.Second, 5*time.Millisecond)
	m.Stop()

	// foreground sends still work and keep-alives have stopped
	reply := ch.Send(context.Background(), command.TextTakeoff)
	assert.True(t, reply.OK())
	before := sim.Count(command.ReadBattery)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, sim.Count(command.ReadBattery))
}

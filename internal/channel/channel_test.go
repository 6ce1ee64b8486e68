package channel

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tello-control/tello/internal/command"
	"github.com/tello-control/tello/internal/simulator"
)

func newPair(t *testing.T, timeout time.Duration) (*simulator.Simulator, *Channel) {
	t.Helper()
	sim := simulator.New("127.0.0.1:0", nil)
	require.NoError(t, sim.Start())
	t.Cleanup(func() { _ = sim.Stop() })

	ch, err := Open(context.Background(), Options{Address: sim.Addr(), Timeout: timeout})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	return sim, ch
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		raw    []byte
		ok     bool
		reason string
	}{
		{"ok token", []byte("ok"), true, ""},
		{"ok with trailing bytes", []byte("ok\r\n"), true, ""},
		{"error token", []byte("error"), false, "error"},
		{"error with detail", []byte("error Motor stop"), false, "error Motor stop"},
		{"empty reply", []byte{}, false, "empty response"},
		{"token must lead", []byte(" ok"), false, "ok"},
		{"read value", []byte("87"), false, "87"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := Classify("takeoff", tt.raw)
			assert.Equal(t, tt.ok, reply.OK())
			assert.Equal(t, tt.reason, reply.Reason())
			assert.Equal(t, "takeoff", reply.Command)
			if !tt.ok {
				assert.ErrorIs(t, reply.Err, command.ErrDeviceReported)
			}
		})
	}
}

func TestOpenFailures(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.ErrorIs(t, err, command.ErrTransportOpenFailed)

	_, err = Open(context.Background(), Options{Address: "not-an-address"})
	assert.ErrorIs(t, err, command.ErrTransportOpenFailed)

	_, err = Open(context.Background(), Options{Address: "127.0.0.1:8889", LocalAddr: "nope:nope"})
	assert.ErrorIs(t, err, command.ErrTransportOpenFailed)
}

func TestSendSuccess(t *testing.T) {
	sim, ch := newPair(t, time.Second)

	reply := ch.Send(context.Background(), "takeoff")
	require.True(t, reply.OK(), reply.Reason())
	assert.Equal(t, "ok", reply.Raw)
	assert.Equal(t, []string{"takeoff"}, sim.Received())
	assert.True(t, ch.IsActive())
}

func TestSendDeviceError(t *testing.T) {
	sim, ch := newPair(t, time.Second)
	sim.SetResponse("error")

	reply := ch.Send(context.Background(), "cw 90")
	assert.False(t, reply.OK())
	assert.ErrorIs(t, reply.Err, command.ErrDeviceReported)
	assert.Equal(t, "error", reply.Reason())
}

func TestSendTimeout(t *testing.T) {
	sim, ch := newPair(t, 100*time.Millisecond)
	sim.SetSilent(true)

	start := time.Now()
	reply := ch.Send(context.Background(), "takeoff")
	assert.False(t, reply.OK())
	assert.ErrorIs(t, reply.Err, command.ErrNoResponse)
	assert.Equal(t, "no response", reply.Reason())
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestSendHonoursContextDeadline(t *testing.T) {
	sim, ch := newPair(t, 5*time.Second)
	sim.SetSilent(true)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	reply := ch.Send(ctx, "takeoff")
	assert.ErrorIs(t, reply.Err, command.ErrNoResponse)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSendCanceledContext(t *testing.T) {
	sim, ch := newPair(t, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply := ch.Send(ctx, "takeoff")
	assert.ErrorIs(t, reply.Err, context.Canceled)
	assert.Empty(t, sim.Received(), "nothing is sent for a canceled context")
}

func TestLateReplyIsNotMisattributed(t *testing.T) {
	sim, ch := newPair(t, 100*time.Millisecond)
	sim.SetDelay(200 * time.Millisecond)
	sim.SetResponse("error late")

	reply := ch.Send(context.Background(), "cw 90")
	require.ErrorIs(t, reply.Err, command.ErrNoResponse)

	// let the late reply land in the socket buffer
	time.Sleep(200 * time.Millisecond)

	sim.SetDelay(0)
	sim.SetResponse("ok")
	reply = ch.Send(context.Background(), "ccw 90")
	assert.True(t, reply.OK(), reply.Reason())
}

func TestExchangeReturnsRawValue(t *testing.T) {
	sim, ch := newPair(t, time.Second)
	sim.SetReadValue("battery?", "55")

	raw, err := ch.Exchange(context.Background(), "battery?")
	require.NoError(t, err)
	assert.Equal(t, "55", string(raw))
}

func TestSendIsSerialized(t *testing.T) {
	sim, ch := newPair(t, time.Second)
	sim.SetDelay(20 * time.Millisecond)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]Reply, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ch.Send(context.Background(), "stop")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.True(t, r.OK(), r.Reason())
	}
	assert.Equal(t, workers, sim.Count("stop"))
}

func TestCloseIdempotent(t *testing.T) {
	_, ch := newPair(t, time.Second)

	assert.NotEmpty(t, ch.LocalAddr())
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.False(t, ch.IsActive())
	assert.Empty(t, ch.LocalAddr())

	reply := ch.Send(context.Background(), "takeoff")
	assert.ErrorIs(t, reply.Err, ErrClosed)
}

func TestCloseUnblocksPendingSend(t *testing.T) {
	sim, ch := newPair(t, 5*time.Second)
	sim.SetSilent(true)

	done := make(chan Reply, 1)
	go func() { done <- ch.Send(context.Background(), "takeoff") }()

	require.Eventually(t, func() bool { return sim.Count("takeoff") == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, ch.Close())

	select {
	case reply := <-done:
		assert.True(t, errors.Is(reply.Err, ErrClosed))
	case <-time.After(time.Second):
		t.Fatal("send still blocked after close")
	}
}

func TestSendToUnboundPort(t *testing.T) {
	// grab a free port and release it so nothing listens there
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := pc.LocalAddr().String()
	require.NoError(t, pc.Close())

	ch, err := Open(context.Background(), Options{Address: addr, Timeout: 100 * time.Millisecond})
	require.NoError(t, err, "opening a datagram channel does not need a listener")
	defer ch.Close()

	reply := ch.Send(context.Background(), "takeoff")
	assert.ErrorIs(t, reply.Err, command.ErrNoResponse)
}

package group

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestCloseWaitsForGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)

	g := New(context.Background())
	var finished atomic.Int32

	for i := 0; i < 4; i++ {
		require.True(t, g.Go(func(ctx context.Context) {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			finished.Add(1)
		}))
	}

	g.Close()
	assert.Equal(t, int32(4), finished.Load())
	assert.False(t, g.Go(func(context.Context) {}))
}

func TestGoAfterClose(t *testing.T) {
	g := New(context.Background())
	g.Close()
	g.Close()

	ran := false
	assert.False(t, g.Go(func(context.Context) { ran = true }))
	assert.False(t, ran)
}

func TestParentCancelPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	g := New(parent)
	defer g.Close()

	canceled := make(chan struct{})
	require.True(t, g.Go(func(ctx context.Context) {
		<-ctx.Done()
		close(canceled)
	}))

	cancel()
	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("group context not canceled with parent")
	}
}

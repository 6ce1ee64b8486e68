// Package group tracks the background goroutines that belong to one client
// so they can be canceled and awaited together.
package group

import (
	"context"
	"sync"
)

// Group owns a cancelable context and every goroutine started through Go.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// New creates a group whose context is derived from parent.
func New(parent context.Context) *Group {
	ctx, cancel := context.WithCancel(parent)
	return &Group{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Go runs fn on a new goroutine with the group context. It returns false
// without running fn once the group is closed.
func (g *Group) Go(fn func(ctx context.Context)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn(g.ctx)
	}()
	return true
}

// Close cancels the context and waits for every goroutine to return. It is
// idempotent; concurrent callers all wait for completion.
func (g *Group) Close() {
	g.mu.Lock()
	first := !g.closed
	g.closed = true
	g.mu.Unlock()

	if !first {
		<-g.done
		return
	}

	g.cancel()
	g.wg.Wait()
	close(g.done)
}

// Package events carries client lifecycle notifications to interested
// listeners: command outcomes, failover attempts, keep-alive ticks and
// shutdown completion.
package events

import (
	"sync"
	"time"

	"github.com/cskr/pubsub"
	"github.com/sirupsen/logrus"

	"github.com/tello-control/tello/internal/logging"
)

// Topics published by the client.
const (
	TopicCommand   = "command"
	TopicFailover  = "failover"
	TopicKeepAlive = "keepalive"
	TopicLifecycle = "lifecycle"
)

// Event types.
const (
	TypeTakeoff  = "takeoff"
	TypeLanded   = "landed"
	TypeShutdown = "shutdown"

	TypeReply     = "reply"
	TypeFailover  = "failover"
	TypeKeepAlive = "keepalive"
)

// Event is a single notification.
type Event struct {
	Type    string    `json:"type"`
	Command string    `json:"command,omitempty"`
	OK      bool      `json:"ok"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"ts"`
}

// Subscription receives Event values until the bus is closed.
type Subscription chan interface{}

// Bus is a topic based fan-out. Each subscriber buffers up to the bus
// capacity; events for a subscriber whose buffer is full are dropped, so a
// slow listener never stalls the client.
type Bus struct {
	mu     sync.RWMutex
	ps     *pubsub.PubSub
	closed bool
	logger *logrus.Entry
}

// New creates a bus. A non-positive capacity selects 128.
func New(capacity int, logger *logrus.Entry) *Bus {
	if capacity <= 0 {
		capacity = 128
	}
	return &Bus{
		ps:     pubsub.New(capacity),
		logger: logging.OrDiscard(logger),
	}
}

// Publish sends ev on topic without blocking on subscribers. Publishing on
// a closed bus is a no-op.
func (b *Bus) Publish(topic string, ev Event) {
	if b == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	b.logger.WithFields(logrus.Fields{"topic": topic, "type": ev.Type}).Debug("publish")
	b.ps.TryPub(ev, topic)
}

// Subscribe returns a channel receiving events on topics. On a closed bus
// the channel is already closed.
func (b *Bus) Subscribe(topics ...string) Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		ch := make(Subscription)
		close(ch)
		return ch
	}
	b.logger.WithField("topics", topics).Debug("subscribe")
	return b.ps.Sub(topics...)
}

// Unsubscribe removes ch from topics, or from every topic when none are
// given. The channel is closed once it has no topics left.
func (b *Bus) Unsubscribe(ch Subscription, topics ...string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	if len(topics) == 0 {
		b.ps.Unsub(ch)
		return
	}
	b.ps.Unsub(ch, topics...)
}

// Close shuts the bus down and closes every subscription channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.ps.Shutdown()
}

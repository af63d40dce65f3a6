// Package bus implements the in-process topic pub/sub the engines use to
// notify each other. Delivery is sequential in subscription order; a
// panicking subscriber is recovered and logged, never disturbing later
// subscribers.
package bus

import (
	"context"
	"sync"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/logging"
)

// Message is what subscribers receive.
type Message struct {
	Topic   string
	Payload any
}

// HandlerFunc consumes a published message.
type HandlerFunc func(ctx context.Context, msg Message)

type subscription struct {
	id      string
	once    bool
	handler HandlerFunc
}

// Bus is a topic keyed publish/subscribe hub, safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]subscription
	logger logging.Logger
}

// New constructs an empty bus. A nil logger falls back to NoOpLogger.
func New(logger logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Bus{topics: make(map[string][]subscription), logger: logger}
}

// Subscribe registers a handler for a topic and returns a cancel closure.
// The closure is idempotent.
func (b *Bus) Subscribe(topic string, handler HandlerFunc) func() {
	return b.subscribe(topic, handler, false)
}

// SubscribeOnce registers a handler that is removed after its first
// delivery. The returned closure cancels it early.
func (b *Bus) SubscribeOnce(topic string, handler HandlerFunc) func() {
	return b.subscribe(topic, handler, true)
}

func (b *Bus) subscribe(topic string, handler HandlerFunc, once bool) func() {
	sub := subscription{id: core.NewID(), once: once, handler: handler}

	b.mu.Lock()
	b.topics[topic] = append(b.topics[topic], sub)
	b.mu.Unlock()

	return func() { b.unsubscribe(topic, sub.id) }
}

func (b *Bus) unsubscribe(topic, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.topics[topic]
	out := subs[:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		delete(b.topics, topic)
		return
	}
	b.topics[topic] = out
}

// Publish delivers the payload to every current subscriber of the topic,
// sequentially in subscription order. Handlers run on the caller's
// goroutine; a panicking handler is recovered and logged.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.topics[topic]...)
	b.mu.RUnlock()

	msg := Message{Topic: topic, Payload: payload}
	for _, sub := range subs {
		b.deliver(ctx, topic, sub, msg)
	}
}

func (b *Bus) deliver(ctx context.Context, topic string, sub subscription, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("bus handler panicked topic=%s sub=%s: %v", topic, sub.id, r)
		}
	}()
	if sub.once {
		b.unsubscribe(topic, sub.id)
	}
	sub.handler(ctx, msg)
}

// Subscribers returns the number of current subscriptions for a topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

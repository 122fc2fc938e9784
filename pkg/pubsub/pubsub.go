// Package pubsub fans messages out to subscribers and shares one expensive
// upstream source between any number of consumers.
package pubsub

import (
	"context"
	"errors"
	"sync"
)

// DefaultBuffer is the per-subscriber channel capacity
const DefaultBuffer = 100

// ErrShutdown is returned when subscribing to a PubSub that has shut down
var ErrShutdown = errors.New("pubsub: shut down")

// PubSub provides topic based publish/subscribe. Publishing never blocks:
// a subscriber whose buffer is full misses the message.
type PubSub[T any] struct {
	subscribers map[string]map[*Subscription[T]]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	buffer      int
}

// Subscription represents a subscription to a topic
type Subscription[T any] struct {
	topic     string
	channel   chan T
	ps        *PubSub[T]
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once // Ensures channel is only closed once
}

// NewPubSub creates a new PubSub with DefaultBuffer sized subscriptions
func NewPubSub[T any]() *PubSub[T] {
	return NewPubSubWithBuffer[T](DefaultBuffer)
}

// NewPubSubWithBuffer creates a PubSub whose subscriber channels hold up to
// buffer messages.
func NewPubSubWithBuffer[T any](buffer int) *PubSub[T] {
	if buffer < 0 {
		buffer = 0
	}
	return &PubSub[T]{
		subscribers: make(map[string]map[*Subscription[T]]bool),
		shutdown:    make(chan struct{}),
		buffer:      buffer,
	}
}

// Subscribe creates a new subscription to a topic. The subscription ends
// when ctx is cancelled, on Unsubscribe, or on Shutdown.
func (ps *PubSub[T]) Subscribe(ctx context.Context, topic string) (*Subscription[T], error) {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return nil, ErrShutdown
	}
	ps.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		topic:   topic,
		channel: make(chan T, ps.buffer),
		ps:      ps,
		ctx:     subCtx,
		cancel:  cancel,
	}

	ps.mu.Lock()
	if ps.subscribers[topic] == nil {
		ps.subscribers[topic] = make(map[*Subscription[T]]bool)
	}
	ps.subscribers[topic][sub] = true
	ps.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-ps.shutdown:
			sub.Unsubscribe()
		}
	}()

	return sub, nil
}

// Publish sends a message to all subscribers of a topic and reports how
// many received it. Sends happen under the read lock; channels are only
// closed under the write lock, so a send never meets a closed channel.
func (ps *PubSub[T]) Publish(topic string, message T) int {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return 0
	}
	ps.shutdownMu.Unlock()

	ps.mu.RLock()
	defer ps.mu.RUnlock()

	delivered := 0
	for sub := range ps.subscribers[topic] {
		if sub.send(message) {
			delivered++
		}
	}
	return delivered
}

// GetSubscriberCount returns the number of subscribers for a topic
func (ps *PubSub[T]) GetSubscriberCount(topic string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[topic])
}

// Shutdown closes all subscriptions and shuts down the PubSub
func (ps *PubSub[T]) Shutdown() {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.isShutdown = true
	ps.shutdownMu.Unlock()

	close(ps.shutdown)

	ps.mu.Lock()
	for topic := range ps.subscribers {
		for sub := range ps.subscribers[topic] {
			sub.close()
		}
		delete(ps.subscribers, topic)
	}
	ps.mu.Unlock()
}

// Channel returns the subscription's message channel
func (s *Subscription[T]) Channel() <-chan T {
	return s.channel
}

// Unsubscribe removes the subscription and closes its channel
func (s *Subscription[T]) Unsubscribe() {
	s.cancel()

	s.ps.mu.Lock()
	defer s.ps.mu.Unlock()

	if s.ps.subscribers[s.topic] != nil {
		delete(s.ps.subscribers[s.topic], s)
		if len(s.ps.subscribers[s.topic]) == 0 {
			delete(s.ps.subscribers, s.topic)
		}
	}

	s.close()
}

// send delivers without blocking. Callers hold ps.mu.
func (s *Subscription[T]) send(message T) bool {
	select {
	case s.channel <- message:
		return true
	default:
		return false
	}
}

// close closes the subscription channel once. Callers hold ps.mu for
// writing.
func (s *Subscription[T]) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}

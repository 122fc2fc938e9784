package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const streamTopic = "stream"

// Source is an upstream that yields one message per Recv call. Recv must
// return once ctx is done or the source is closed.
type Source[T any] interface {
	Recv(ctx context.Context) (T, error)
	Close() error
}

// Opener connects a Source. It is called when the first handle is
// acquired, and again after the last handle is released and a new one
// is acquired.
type Opener[T any] func(ctx context.Context) (Source[T], error)

// SharedStream owns one Source and fans its messages out to every handle.
// The source is opened on the first Acquire and closed on the last Release.
type SharedStream[T any] struct {
	open    Opener[T]
	buffer  int
	onError func(error)

	mu     sync.Mutex
	refs   int
	ps     *PubSub[T]
	src    Source[T]
	cancel context.CancelFunc
	done   chan struct{}
}

// StreamOption configures a SharedStream
type StreamOption[T any] func(*SharedStream[T])

// WithBuffer sets the per-handle channel capacity
func WithBuffer[T any](n int) StreamOption[T] {
	return func(s *SharedStream[T]) { s.buffer = n }
}

// WithErrorHandler is called when the source fails while handles are held.
// The stream stops delivering until it is reopened.
func WithErrorHandler[T any](fn func(error)) StreamOption[T] {
	return func(s *SharedStream[T]) { s.onError = fn }
}

// NewSharedStream creates a stream that connects lazily through open
func NewSharedStream[T any](open Opener[T], opts ...StreamOption[T]) *SharedStream[T] {
	s := &SharedStream[T]{open: open, buffer: DefaultBuffer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle is one consumer's view of a SharedStream
type Handle[T any] struct {
	stream  *SharedStream[T]
	sub     *Subscription[T]
	release sync.Once
}

// Acquire registers a consumer, opening the source if this is the first.
// ctx bounds the open call only; the handle lives until Release.
func (s *SharedStream[T]) Acquire(ctx context.Context) (*Handle[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		if err := s.start(ctx); err != nil {
			return nil, err
		}
	}

	sub, err := s.ps.Subscribe(context.Background(), streamTopic)
	if err != nil {
		if s.refs == 0 {
			s.stop()
		}
		return nil, err
	}
	s.refs++
	return &Handle[T]{stream: s, sub: sub}, nil
}

// Refs returns the number of live handles
func (s *SharedStream[T]) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

func (s *SharedStream[T]) start(ctx context.Context) error {
	src, err := s.open(ctx)
	if err != nil {
		return fmt.Errorf("open shared stream: %w", err)
	}
	pumpCtx, cancel := context.WithCancel(context.Background())
	s.src = src
	s.ps = NewPubSubWithBuffer[T](s.buffer)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.pump(pumpCtx, src, s.ps, s.done)
	return nil
}

func (s *SharedStream[T]) pump(ctx context.Context, src Source[T], ps *PubSub[T], done chan struct{}) {
	defer close(done)
	for {
		msg, err := src.Recv(ctx)
		if err != nil {
			if ctx.Err() == nil && s.onError != nil {
				s.onError(err)
			}
			return
		}
		ps.Publish(streamTopic, msg)
	}
}

// stop closes the source and waits for the pump. Caller holds s.mu.
func (s *SharedStream[T]) stop() {
	if s.src == nil {
		return
	}
	s.cancel()
	closeErr := s.src.Close()
	<-s.done
	s.ps.Shutdown()
	if closeErr != nil && !errors.Is(closeErr, context.Canceled) && s.onError != nil {
		s.onError(closeErr)
	}
	s.src, s.ps, s.cancel, s.done = nil, nil, nil, nil
}

// Events returns the handle's message channel. It is closed on Release.
func (h *Handle[T]) Events() <-chan T {
	return h.sub.Channel()
}

// Release drops the handle. Releasing the last handle closes the source.
// Safe to call more than once.
func (h *Handle[T]) Release() {
	h.release.Do(func() {
		s := h.stream
		s.mu.Lock()
		defer s.mu.Unlock()

		h.sub.Unsubscribe()
		s.refs--
		if s.refs == 0 {
			s.stop()
		}
	})
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dd0wney/cluso-agentviz/pkg/events"
	"github.com/dd0wney/cluso-agentviz/pkg/logging"
	"github.com/dd0wney/cluso-agentviz/pkg/pubsub"
	"github.com/dd0wney/cluso-agentviz/pkg/transport"
)

// ErrClosed is returned when attaching a stream to a closed engine
var ErrClosed = errors.New("engine closed")

// ErrStreamAttached is returned when the engine already holds a stream
var ErrStreamAttached = errors.New("engine already attached to an event stream")

var (
	streamsMu sync.Mutex
	streams   = make(map[string]*pubsub.SharedStream[events.Event])
)

// DefaultEventStream returns the process-wide shared stream for addr.
// Every engine viewing the same address shares one socket, which is
// closed when the last engine releases it.
func DefaultEventStream(addr string, logger logging.Logger) *pubsub.SharedStream[events.Event] {
	streamsMu.Lock()
	defer streamsMu.Unlock()

	if s, ok := streams[addr]; ok {
		return s
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := pubsub.NewSharedStream(transport.Opener(addr, logger),
		pubsub.WithErrorHandler[events.Event](func(err error) {
			logger.Error("event stream failed", logging.Addr(addr), logging.Error(err))
		}),
	)
	streams[addr] = s
	return s
}

// AttachStream acquires a handle on stream and feeds its events into the
// packet bridge until Close. An engine holds at most one stream.
func (e *Engine) AttachStream(ctx context.Context, stream *pubsub.SharedStream[events.Event]) error {
	e.streamMu.Lock()
	defer e.streamMu.Unlock()

	if e.ctx.Err() != nil {
		return ErrClosed
	}
	if e.handle != nil {
		return ErrStreamAttached
	}

	h, err := stream.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("attach event stream: %w", err)
	}
	e.stream, e.handle = stream, h
	e.pumpDone = make(chan struct{})
	if e.metrics != nil {
		e.metrics.SetStreamSubscribers(stream.Refs())
	}

	go func(done chan struct{}) {
		defer close(done)
		e.bridge.Pump(e.ctx, h.Events())
	}(e.pumpDone)

	e.logger.Info("event stream attached", logging.Int("refs", stream.Refs()))
	return nil
}

// Close stops Run, closes the bridge so late events are rejected, and
// releases the stream handle. Safe to call more than once.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.cancel()
		e.bridge.Close()

		e.streamMu.Lock()
		defer e.streamMu.Unlock()
		if e.handle != nil {
			e.handle.Release()
			<-e.pumpDone
			if e.metrics != nil {
				e.metrics.SetStreamSubscribers(e.stream.Refs())
			}
			e.handle = nil
		}
		e.logger.Info("engine closed")
	})
	return nil
}

// Package transport carries agent events over nanomsg pub/sub sockets.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/cluso-agentviz/pkg/events"
	"github.com/dd0wney/cluso-agentviz/pkg/logging"
	"github.com/dd0wney/cluso-agentviz/pkg/pubsub"
)

// DefaultPollInterval bounds how long Recv blocks before rechecking its
// context.
const DefaultPollInterval = 250 * time.Millisecond

// ErrClosed is returned by Recv and Publish after Close
var ErrClosed = errors.New("transport: closed")

// NNGSource receives events from a PUB socket
type NNGSource struct {
	sock   mangos.Socket
	poll   time.Duration
	logger logging.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial connects a SUB socket to addr and subscribes to the event topic
func Dial(addr string, logger logging.Logger) (*NNGSource, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionSubscribe, []byte(events.Topic)); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to subscribe to %q: %w", events.Topic, err)
	}
	if err := sock.SetOption(mangos.OptionRecvDeadline, DefaultPollInterval); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to set receive deadline: %w", err)
	}
	// Non-blocking dial lets the source start before the publisher is up
	if err := sock.DialOptions(addr, map[string]any{mangos.OptionDialAsynch: true}); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	logger.Info("subscribed to event stream", logging.Addr(addr))
	return &NNGSource{
		sock:   sock,
		poll:   DefaultPollInterval,
		logger: logger.With(logging.Component("nng-source")),
		closed: make(chan struct{}),
	}, nil
}

// Recv blocks until the next valid event arrives, ctx is done or the
// source is closed. Malformed messages are logged and skipped.
func (s *NNGSource) Recv(ctx context.Context) (events.Event, error) {
	for {
		select {
		case <-ctx.Done():
			return events.Event{}, ctx.Err()
		case <-s.closed:
			return events.Event{}, ErrClosed
		default:
		}

		msg, err := s.sock.Recv()
		switch {
		case errors.Is(err, mangos.ErrRecvTimeout):
			continue
		case errors.Is(err, mangos.ErrClosed):
			return events.Event{}, ErrClosed
		case err != nil:
			return events.Event{}, fmt.Errorf("receive event: %w", err)
		}

		evt, err := events.Decode(msg)
		if err != nil {
			s.logger.Warn("dropping malformed event", logging.Error(err), logging.Int("bytes", len(msg)))
			continue
		}
		return evt, nil
	}
}

// Close shuts the socket. Safe to call more than once.
func (s *NNGSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.sock.Close()
	})
	return err
}

// Opener returns a SharedStream opener that dials addr on demand
func Opener(addr string, logger logging.Logger) pubsub.Opener[events.Event] {
	return func(ctx context.Context) (pubsub.Source[events.Event], error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Dial(addr, logger)
	}
}

// NNGPublisher sends events on a PUB socket
type NNGPublisher struct {
	mu     sync.Mutex
	sock   mangos.Socket
	closed bool
}

// Listen binds a PUB socket to addr
func Listen(addr string) (*NNGPublisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &NNGPublisher{sock: sock}, nil
}

// DialPublisher connects a PUB socket to a listening subscriber
func DialPublisher(addr string) (*NNGPublisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &NNGPublisher{sock: sock}, nil
}

// Publish encodes and sends one event. Subscribers that are not yet
// connected miss it.
func (p *NNGPublisher) Publish(evt events.Event) error {
	data, err := events.Encode(evt)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := p.sock.Send(data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close shuts the socket
func (p *NNGPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.sock.Close()
}

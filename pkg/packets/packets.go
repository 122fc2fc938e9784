// Package packets turns external agent events into short-lived animated
// packets. The bridge only appends; expiry is decided by the render pass.
package packets

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-agentviz/pkg/events"
)

// DefaultLifetime is how long a packet takes to travel its link.
const DefaultLifetime = 800 * time.Millisecond

// Packet is one in-flight message animation.
type Packet struct {
	ID          uuid.UUID
	EventID     string
	Kind        string
	Source      string
	Destination string
	Broadcast   bool
	Start       time.Time
}

// Progress returns the fraction of the lifetime elapsed at now. Values above
// 1 mean the packet has expired.
func (p Packet) Progress(now time.Time, lifetime time.Duration) float64 {
	if lifetime <= 0 {
		return 1
	}
	return float64(now.Sub(p.Start)) / float64(lifetime)
}

// Clock returns the current time
type Clock func() time.Time

// Bridge collects packets spawned from events. It is safe for concurrent use:
// events arrive from subscription goroutines while frames read on the
// engine goroutine.
type Bridge struct {
	mu      sync.Mutex
	packets []Packet
	closed  bool

	lifetime time.Duration
	now      Clock
	onSpawn  func(Packet)
	onReject func(events.Event)
	rejected atomic.Uint64
}

// Option customises a Bridge
type Option func(*Bridge)

// WithClock replaces time.Now
func WithClock(c Clock) Option {
	return func(b *Bridge) { b.now = c }
}

// WithSpawnHook is called after each packet is appended, outside the lock.
func WithSpawnHook(fn func(Packet)) Option {
	return func(b *Bridge) { b.onSpawn = fn }
}

// WithRejectHook is called for each event that arrives after Close.
func WithRejectHook(fn func(events.Event)) Option {
	return func(b *Bridge) { b.onReject = fn }
}

// NewBridge creates a bridge whose packets live for lifetime.
func NewBridge(lifetime time.Duration, opts ...Option) *Bridge {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	b := &Bridge{
		packets:  make([]Packet, 0, 64),
		lifetime: lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Lifetime returns the fixed packet lifetime
func (b *Bridge) Lifetime() time.Duration { return b.lifetime }

// OnEvent appends one packet for the event and returns false if the bridge
// has been closed. It never prunes and never renders.
func (b *Bridge) OnEvent(e events.Event) bool {
	p := Packet{
		ID:          uuid.New(),
		EventID:     e.ID,
		Kind:        e.Kind,
		Source:      e.SourceID,
		Destination: e.DestinationID,
		Broadcast:   e.IsBroadcast(),
		Start:       b.now(),
	}
	if p.Broadcast {
		p.Destination = ""
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.rejected.Add(1)
		if b.onReject != nil {
			b.onReject(e)
		}
		return false
	}
	b.packets = append(b.packets, p)
	b.mu.Unlock()

	if b.onSpawn != nil {
		b.onSpawn(p)
	}
	return true
}

// Snapshot appends the live packets to dst and returns it.
func (b *Bridge) Snapshot(dst []Packet) []Packet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append(dst, b.packets...)
}

// Remove drops the packets with the given ids and returns how many were
// removed.
func (b *Bridge) Remove(ids []uuid.UUID) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.packets[:0]
	for _, p := range b.packets {
		if _, ok := drop[p.ID]; !ok {
			kept = append(kept, p)
		}
	}
	removed := len(b.packets) - len(kept)
	clear(b.packets[len(kept):])
	b.packets = kept
	return removed
}

// Len returns the number of live packets
func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.packets)
}

// Rejected returns how many events arrived after Close
func (b *Bridge) Rejected() uint64 { return b.rejected.Load() }

// Close stops accepting events immediately. It is safe to call more than once.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Closed reports whether Close has been called
func (b *Bridge) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Pump feeds events from ch into the bridge until ctx is done, ch is closed
// or the bridge is closed.
func (b *Bridge) Pump(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if !b.OnEvent(e) {
				return
			}
		}
	}
}

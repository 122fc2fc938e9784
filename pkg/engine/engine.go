// Package engine wires the simulation, the packet bridge, the compositor
// and the interaction controller together and drives them from a single
// goroutine.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/cluso-agentviz/pkg/events"
	"github.com/dd0wney/cluso-agentviz/pkg/interaction"
	"github.com/dd0wney/cluso-agentviz/pkg/logging"
	"github.com/dd0wney/cluso-agentviz/pkg/metrics"
	"github.com/dd0wney/cluso-agentviz/pkg/packets"
	"github.com/dd0wney/cluso-agentviz/pkg/pubsub"
	"github.com/dd0wney/cluso-agentviz/pkg/render"
	"github.com/dd0wney/cluso-agentviz/pkg/viewport"
	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

// Options configures an Engine. Zero values fall back to the package
// defaults of each component.
type Options struct {
	Force       visualization.ForceConfig
	Ingest      visualization.IngestConfig
	Style       render.Style
	Interaction interaction.Config
	Lifetime    time.Duration

	ScreenWidth  float64
	ScreenHeight float64

	PhysicsInterval time.Duration
	FrameInterval   time.Duration
	InputBuffer     int

	Random  visualization.RandomFloat
	Clock   packets.Clock
	Metrics *metrics.Registry
	Logger  logging.Logger
}

// DefaultOptions returns options for a 1000x700 world on a 1200x840 screen
func DefaultOptions() Options {
	return Options{
		Force:           visualization.DefaultForceConfig(),
		Ingest:          visualization.IngestConfig{Bounds: visualization.Bounds{Width: 1000, Height: 700, Inset: 30}},
		Style:           render.DefaultStyle(),
		Interaction:     interaction.DefaultConfig(),
		Lifetime:        packets.DefaultLifetime,
		ScreenWidth:     1200,
		ScreenHeight:    840,
		PhysicsInterval: 16 * time.Millisecond,
		FrameInterval:   33 * time.Millisecond,
		InputBuffer:     64,
	}
}

// Engine owns every piece of simulation and view state. Positions are
// written only by the integrator; pins, selection and the transform only
// by the controller. Both run on whichever goroutine calls Step, Frame and
// Apply, which is the Run goroutine when Run is used.
type Engine struct {
	opts Options

	store      *visualization.Store
	ingestor   *visualization.Ingestor
	integrator *visualization.ForceIntegrator
	bridge     *packets.Bridge
	compositor *render.Compositor
	controller *interaction.Controller
	transform  *viewport.Transform

	metrics *metrics.Registry
	logger  logging.Logger

	input     chan InputEvent
	snapshots chan visualization.Snapshot
	packetBuf []packets.Packet

	mirror     atomic.Pointer[Mirror]
	mirrorNode []NodeSummary
	mirrorVer  uint64

	ctx       context.Context
	cancel    context.CancelFunc
	streamMu  sync.Mutex
	stream    *pubsub.SharedStream[events.Event]
	handle    *pubsub.Handle[events.Event]
	pumpDone  chan struct{}
	closeOnce sync.Once
}

// New creates an engine with an empty graph
func New(opts Options) *Engine {
	def := DefaultOptions()
	if opts.Ingest.Bounds.Width <= 0 || opts.Ingest.Bounds.Height <= 0 {
		opts.Ingest.Bounds = def.Ingest.Bounds
	}
	if opts.ScreenWidth <= 0 || opts.ScreenHeight <= 0 {
		opts.ScreenWidth, opts.ScreenHeight = def.ScreenWidth, def.ScreenHeight
	}
	if opts.PhysicsInterval <= 0 {
		opts.PhysicsInterval = def.PhysicsInterval
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = def.FrameInterval
	}
	if opts.InputBuffer <= 0 {
		opts.InputBuffer = def.InputBuffer
	}
	if opts.Style == (render.Style{}) {
		opts.Style = def.Style
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	logger := opts.Logger.With(logging.Component("engine"))

	e := &Engine{
		opts:      opts,
		store:     visualization.NewStore(),
		metrics:   opts.Metrics,
		logger:    logger,
		input:     make(chan InputEvent, opts.InputBuffer),
		snapshots: make(chan visualization.Snapshot, 1),
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	e.ingestor = visualization.NewIngestor(opts.Ingest, opts.Random, opts.Logger)

	forceOpts := []visualization.ForceOption{
		visualization.WithResetHook(func(id string) {
			logger.Warn("node reset after non-finite state", logging.NodeID(id))
		}),
	}
	if opts.Random != nil {
		forceOpts = append(forceOpts, visualization.WithRandom(opts.Random))
	}
	e.integrator = visualization.NewForceIntegrator(opts.Force, forceOpts...)

	bridgeOpts := []packets.Option{}
	if opts.Clock != nil {
		bridgeOpts = append(bridgeOpts, packets.WithClock(opts.Clock))
	}
	if e.metrics != nil {
		bridgeOpts = append(bridgeOpts,
			packets.WithSpawnHook(func(p packets.Packet) { e.metrics.RecordPacketSpawned(p.Broadcast) }),
			packets.WithRejectHook(func(events.Event) { e.metrics.RecordPacketRejected() }),
		)
	}
	e.bridge = packets.NewBridge(opts.Lifetime, bridgeOpts...)

	e.compositor = render.NewCompositor(opts.Style)

	cx, cy := opts.Ingest.Bounds.Center()
	t := viewport.New(opts.ScreenWidth, opts.ScreenHeight, cx, cy)
	t.Fit(opts.Ingest.Bounds.Width, opts.Ingest.Bounds.Height)
	e.transform = &t

	e.controller = interaction.NewController(e.store, e.transform, e.compositor.NodeRadius, opts.Interaction, opts.Logger)

	e.refreshMirror()
	return e
}

// Store returns the node arena. Only read it from the engine goroutine.
func (e *Engine) Store() *visualization.Store { return e.store }

// Bridge returns the packet bridge. It is safe for concurrent use.
func (e *Engine) Bridge() *packets.Bridge { return e.bridge }

// Controller returns the interaction controller
func (e *Engine) Controller() *interaction.Controller { return e.controller }

// Transform returns a copy of the current viewport transform
func (e *Engine) Transform() viewport.Transform { return *e.transform }

// Integrator returns the force integrator
func (e *Engine) Integrator() *visualization.ForceIntegrator { return e.integrator }

// Bounds returns the simulation area
func (e *Engine) Bounds() visualization.Bounds { return e.opts.Ingest.Bounds }

// LoadSnapshot merges a snapshot into the running simulation. Existing
// agents keep their positions. Call it from the engine goroutine; other
// goroutines use Submit.
func (e *Engine) LoadSnapshot(snap visualization.Snapshot) visualization.IngestReport {
	start := time.Now()
	report := e.ingestor.Ingest(e.store, snap)
	if report.Changed {
		e.controller.Prune()
		e.logger.Info("snapshot applied",
			logging.Count(e.store.Len()),
			logging.Int("added", report.NodesAdded),
			logging.Int("removed", report.NodesRemoved),
			logging.Int("links", len(e.store.Springs)),
		)
	}
	if e.metrics != nil {
		e.metrics.RecordIngest(report, time.Since(start))
		e.metrics.SetGraphSize(e.store.Len(), len(e.store.Springs), e.pinned())
	}
	e.refreshMirror()
	return report
}

// Submit queues a snapshot for the engine goroutine. Only the latest
// pending snapshot is kept. Safe for concurrent use.
func (e *Engine) Submit(snap visualization.Snapshot) {
	for {
		select {
		case e.snapshots <- snap:
			return
		default:
		}
		select {
		case <-e.snapshots:
		default:
		}
	}
}

// Step advances the simulation by one tick
func (e *Engine) Step() {
	start := time.Now()
	before := e.integrator.Resets()
	e.store.Nodes = e.integrator.Tick(e.store.Nodes, e.store.Springs, e.opts.Ingest.Bounds)
	if e.metrics != nil {
		e.metrics.RecordTick(time.Since(start), e.integrator.Resets()-before)
	}
}

// Frame renders the current state onto s and removes the packets that
// finished before now. The surface size drives the viewport size.
func (e *Engine) Frame(s render.Surface, now time.Time) render.FrameStats {
	if w, h := s.Size(); w != e.transform.ScreenW || h != e.transform.ScreenH {
		e.transform.Resize(w, h)
	}

	e.packetBuf = e.bridge.Snapshot(e.packetBuf[:0])
	stats := e.compositor.RenderFrame(s, render.Frame{
		Nodes:     e.store.Nodes,
		Springs:   e.store.Springs,
		Lookup:    e.store.Lookup,
		Packets:   e.packetBuf,
		Lifetime:  e.bridge.Lifetime(),
		Transform: *e.transform,
		Selection: e.controller.Selection(),
		Now:       now,
	})
	clear(e.packetBuf)

	removed := e.bridge.Remove(stats.Expired)
	if e.metrics != nil {
		e.metrics.RecordFrame(stats)
		e.metrics.RecordPacketsExpired(removed)
		e.metrics.SetLivePackets(e.bridge.Len())
	}
	e.refreshMirror()
	return stats
}

func (e *Engine) pinned() int {
	n := 0
	for i := range e.store.Nodes {
		if e.store.Nodes[i].Pinned() {
			n++
		}
	}
	return n
}

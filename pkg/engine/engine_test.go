package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-agentviz/pkg/events"
	"github.com/dd0wney/cluso-agentviz/pkg/metrics"
	"github.com/dd0wney/cluso-agentviz/pkg/pubsub"
	"github.com/dd0wney/cluso-agentviz/pkg/render"
	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func triangle() visualization.Snapshot {
	return visualization.Snapshot{
		Nodes: []visualization.SnapshotNode{
			{ID: "planner", Name: "Planner", Risk: 10, ActivityCount: 4},
			{ID: "coder", Name: "Coder", Risk: 50},
			{ID: "reviewer", Name: "Reviewer", Risk: 90},
		},
		Links: []visualization.Link{
			{Source: "planner", Target: "coder", Weight: 1},
			{Source: "coder", Target: "reviewer", Weight: 1},
			{Source: "reviewer", Target: "planner", Weight: 1},
		},
	}
}

func newTestEngine(t *testing.T) (*Engine, *fakeClock, *metrics.Registry) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	reg := metrics.NewRegistry()
	opts := DefaultOptions()
	opts.Clock = clock.Now
	opts.Metrics = reg
	e := New(opts)
	t.Cleanup(func() { e.Close() })
	return e, clock, reg
}

func TestNewFitsWorld(t *testing.T) {
	e, _, _ := newTestEngine(t)

	tr := e.Transform()
	assert.InDelta(t, 1.2, tr.Zoom, 1e-9)
	assert.Equal(t, 500.0, tr.OriginX)
	assert.Equal(t, 350.0, tr.OriginY)

	m := e.Mirror()
	require.NotNil(t, m)
	assert.Empty(t, m.Nodes)
	assert.Nil(t, m.Selected)
}

func TestLoadSnapshotMergesById(t *testing.T) {
	e, _, _ := newTestEngine(t)

	report := e.LoadSnapshot(triangle())
	assert.True(t, report.Changed)
	assert.Equal(t, 3, report.NodesAdded)
	for i := 0; i < 20; i++ {
		e.Step()
	}

	planner := *e.Store().Node("planner")
	version := e.Store().Version()
	mirrorNodes := e.Mirror().Nodes

	report = e.LoadSnapshot(triangle())
	assert.False(t, report.Changed)
	assert.Equal(t, version, e.Store().Version())
	assert.Equal(t, planner.X, e.Store().Node("planner").X)
	assert.Equal(t, planner.Y, e.Store().Node("planner").Y)
	assert.Same(t, &mirrorNodes[0], &e.Mirror().Nodes[0], "unchanged graph must not recopy the mirror")

	snap := triangle()
	snap.Nodes = snap.Nodes[:2]
	report = e.LoadSnapshot(snap)
	assert.True(t, report.Changed)
	assert.Equal(t, 1, report.NodesRemoved)
	assert.Len(t, e.Mirror().Nodes, 2)
	assert.Equal(t, 1, e.Mirror().Links)
}

func TestStepRecordsMetrics(t *testing.T) {
	e, _, reg := newTestEngine(t)
	e.LoadSnapshot(triangle())

	for i := 0; i < 5; i++ {
		e.Step()
	}
	assert.Equal(t, uint64(5), e.Integrator().Ticks())

	families, err := reg.GetPrometheusRegistry().Gather()
	require.NoError(t, err)
	var ticks float64
	for _, f := range families {
		if f.GetName() == "agentviz_physics_ticks_total" {
			ticks = f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 5.0, ticks)
}

func TestFramePrunesExpiredPackets(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	e.LoadSnapshot(triangle())

	require.True(t, e.Bridge().OnEvent(events.New("task", "planner", "coder")))
	require.True(t, e.Bridge().OnEvent(events.New("alert", "reviewer", "")))

	s := render.NewImageSurface(1200, 840)

	stats := e.Frame(s, clock.Advance(400*time.Millisecond))
	assert.Equal(t, 2, stats.Packets)
	assert.Empty(t, stats.Expired)
	assert.Equal(t, 2, e.Bridge().Len())

	stats = e.Frame(s, clock.Advance(time.Second))
	assert.Len(t, stats.Expired, 2)
	assert.Equal(t, 0, e.Bridge().Len())
	assert.Equal(t, 0, e.Mirror().Packets)
}

func TestFrameSkipsPacketsForUnknownAgents(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	e.LoadSnapshot(triangle())
	e.Bridge().OnEvent(events.New("", "ghost", "coder"))

	stats := e.Frame(render.NewCellSurface(80, 24), clock.Advance(100*time.Millisecond))
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, e.Bridge().Len())
}

func TestFrameFollowsSurfaceSize(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	e.Frame(render.NewCellSurface(100, 30), clock.Now())

	tr := e.Transform()
	assert.Equal(t, 100.0, tr.ScreenW)
	assert.Equal(t, 60.0, tr.ScreenH)
}

func TestApplyInput(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.LoadSnapshot(triangle())

	n := e.Store().Node("coder")
	sx, sy := e.Transform().WorldToScreen(n.X, n.Y)

	e.Apply(InputEvent{Kind: PointerDown, X: sx, Y: sy})
	e.Apply(InputEvent{Kind: PointerUp, X: sx, Y: sy})
	assert.Equal(t, "coder", e.Controller().Selected())

	e.Apply(InputEvent{Kind: TogglePin})
	assert.True(t, e.Store().Node("coder").Pinned())
	e.Frame(render.NewImageSurface(1200, 840), time.Now())
	require.NotNil(t, e.Mirror().Selected)
	assert.Equal(t, "Coder", e.Mirror().Selected.Name)
	assert.True(t, e.Mirror().Pinned)

	zoom := e.Transform().Zoom
	e.Apply(InputEvent{Kind: Wheel, X: 600, Y: 420, Delta: 2})
	assert.Greater(t, e.Transform().Zoom, zoom)

	e.Apply(InputEvent{Kind: Pan, X: 30, Y: -10})
	assert.Equal(t, 30.0, e.Transform().PanX)

	e.Apply(InputEvent{Kind: ResetView})
	assert.InDelta(t, zoom, e.Transform().Zoom, 1e-9)
	assert.Zero(t, e.Transform().PanX)

	e.Apply(InputEvent{Kind: Resize, X: 640, Y: 480})
	assert.Equal(t, 640.0, e.Transform().ScreenW)
}

func TestSubmitKeepsLatestSnapshot(t *testing.T) {
	e, _, _ := newTestEngine(t)

	first := triangle()
	latest := triangle()
	latest.Nodes = latest.Nodes[:1]

	e.Submit(first)
	e.Submit(latest)
	assert.Equal(t, 0, e.Store().Len())

	e.Drain()
	assert.Equal(t, 1, e.Store().Len())
}

func TestRunDrivesLoopsUntilCancelled(t *testing.T) {
	opts := DefaultOptions()
	opts.PhysicsInterval = time.Millisecond
	opts.FrameInterval = 5 * time.Millisecond
	e := New(opts)
	defer e.Close()

	e.Submit(triangle())
	e.Input() <- InputEvent{Kind: Pan, X: 5, Y: 5}

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan render.FrameStats, 100)
	done := make(chan error, 1)
	go func() {
		done <- e.Run(ctx, render.NewCellSurface(60, 20), func(s render.FrameStats) {
			select {
			case frames <- s:
			default:
			}
		})
	}()

	require.Eventually(t, func() bool {
		m := e.Mirror()
		return len(frames) >= 3 && len(m.Nodes) == 3 && m.PanX == 5
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Greater(t, e.Mirror().Ticks, uint64(0))
}

func TestCloseStopsRun(t *testing.T) {
	e := New(DefaultOptions())
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background(), render.NewCellSurface(10, 5), nil) }()

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.True(t, e.Bridge().Closed())
}

type chanSource struct {
	ch     chan events.Event
	closed chan struct{}
	once   sync.Once
}

func (c *chanSource) Recv(ctx context.Context) (events.Event, error) {
	select {
	case e := <-c.ch:
		return e, nil
	case <-c.closed:
		return events.Event{}, errors.New("closed")
	case <-ctx.Done():
		return events.Event{}, ctx.Err()
	}
}

func (c *chanSource) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func TestAttachStreamFeedsBridge(t *testing.T) {
	src := &chanSource{ch: make(chan events.Event), closed: make(chan struct{})}
	stream := pubsub.NewSharedStream[events.Event](func(context.Context) (pubsub.Source[events.Event], error) {
		return src, nil
	})

	e1, _, reg := newTestEngine(t)
	e2, _, _ := newTestEngine(t)
	require.NoError(t, e1.AttachStream(context.Background(), stream))
	require.NoError(t, e2.AttachStream(context.Background(), stream))
	assert.ErrorIs(t, e1.AttachStream(context.Background(), stream), ErrStreamAttached)
	assert.Equal(t, 2, stream.Refs())

	src.ch <- events.New("task", "planner", "coder")
	require.Eventually(t, func() bool {
		return e1.Bridge().Len() == 1 && e2.Bridge().Len() == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, e1.Close())
	assert.Equal(t, 1, stream.Refs())
	select {
	case <-src.closed:
		t.Fatal("source closed while another engine holds it")
	default:
	}

	families, err := reg.GetPrometheusRegistry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "agentviz_event_stream_subscribers" {
			assert.Equal(t, 1.0, f.GetMetric()[0].GetGauge().GetValue())
		}
	}

	require.NoError(t, e2.Close())
	assert.Equal(t, 0, stream.Refs())
	<-src.closed

	assert.ErrorIs(t, e1.AttachStream(context.Background(), stream), ErrClosed)
	assert.False(t, e1.Bridge().OnEvent(events.New("", "late", "")))
}

func TestDefaultEventStreamIsShared(t *testing.T) {
	a := DefaultEventStream("inproc://engine-default-test", nil)
	b := DefaultEventStream("inproc://engine-default-test", nil)
	c := DefaultEventStream("inproc://engine-other-test", nil)
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-agentviz/pkg/viewport"
	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

type fixture struct {
	store     *visualization.Store
	transform *viewport.Transform
	ctrl      *Controller
	selects   []SelectEvent
}

// newFixture places node A at world (500, 350), which is the screen centre
// (400, 300) at zoom 1, and node B 100 units to its right.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := visualization.NewStore()
	bounds := visualization.Bounds{Width: 1000, Height: 700, Inset: 30}
	visualization.NewIngestor(visualization.IngestConfig{Bounds: bounds}, nil, nil).Ingest(store, visualization.Snapshot{
		Nodes: []visualization.SnapshotNode{{ID: "A"}, {ID: "B"}},
	})
	store.Node("A").X, store.Node("A").Y = 500, 350
	store.Node("B").X, store.Node("B").Y = 600, 350

	tr := viewport.New(800, 600, 500, 350)
	f := &fixture{store: store, transform: &tr}
	f.ctrl = NewController(store, &tr, nil, DefaultConfig(), nil)
	f.ctrl.OnSelect(func(e SelectEvent) { f.selects = append(f.selects, e) })
	return f
}

func TestHitTestIsZoomInvariantOnScreen(t *testing.T) {
	f := newFixture(t)

	id, ok := f.ctrl.HitTest(400+10, 300)
	require.True(t, ok)
	assert.Equal(t, "A", id)

	_, ok = f.ctrl.HitTest(400+13, 300)
	assert.False(t, ok, "radius 8 + slop 4 = 12 screen units")

	f.transform.ZoomAt(400, 300, 4, 0.1, 8)
	id, ok = f.ctrl.HitTest(400+10, 300)
	require.True(t, ok)
	assert.Equal(t, "A", id)
	_, ok = f.ctrl.HitTest(400+13, 300)
	assert.False(t, ok)
}

func TestPanningOnEmptySpace(t *testing.T) {
	f := newFixture(t)

	f.ctrl.PointerDown(100, 100)
	assert.Equal(t, Panning, f.ctrl.State())

	f.ctrl.PointerMove(130, 90)
	f.ctrl.PointerMove(150, 80)
	assert.Equal(t, 50.0, f.transform.PanX)
	assert.Equal(t, -20.0, f.transform.PanY)

	f.ctrl.PointerUp(150, 80)
	assert.Equal(t, Idle, f.ctrl.State())
	assert.Empty(t, f.selects, "a pan is not a click")
}

func TestClickOnEmptySpaceClearsSelection(t *testing.T) {
	f := newFixture(t)
	f.ctrl.PointerDown(400, 300)
	f.ctrl.PointerUp(400, 300)
	require.Equal(t, "A", f.ctrl.Selected())

	f.ctrl.PointerDown(50, 50)
	f.ctrl.PointerUp(50, 50)
	assert.Empty(t, f.ctrl.Selected())
	assert.Equal(t, []SelectEvent{{NodeID: "A"}, {NodeID: ""}}, f.selects)
}

func TestPureClickNeverPins(t *testing.T) {
	f := newFixture(t)

	f.ctrl.PointerDown(400, 300)
	assert.Equal(t, DraggingNode, f.ctrl.State())
	assert.False(t, f.store.Node("A").Pinned())

	f.ctrl.PointerMove(400, 300) // no displacement
	assert.False(t, f.store.Node("A").Pinned())
	assert.False(t, f.ctrl.Moved())

	f.ctrl.PointerUp(400, 300)
	assert.False(t, f.store.Node("A").Pinned())
	assert.Equal(t, []SelectEvent{{NodeID: "A"}}, f.selects)
}

func TestDragPinsAndReleaseClears(t *testing.T) {
	f := newFixture(t)

	f.ctrl.PointerDown(400, 300)
	f.ctrl.PointerMove(300, 150)
	require.True(t, f.store.Node("A").Pinned())

	wx, wy := f.transform.ScreenToWorld(300, 150)
	assert.Equal(t, visualization.Pin{X: wx, Y: wy}, *f.store.Node("A").Pin)

	// The pin follows every move
	f.ctrl.PointerMove(310, 160)
	wx, wy = f.transform.ScreenToWorld(310, 160)
	assert.Equal(t, visualization.Pin{X: wx, Y: wy}, *f.store.Node("A").Pin)

	f.ctrl.PointerUp(310, 160)
	assert.False(t, f.store.Node("A").Pinned())
	assert.Empty(t, f.selects, "a drag is not a selection")
}

// TestDragThenSeparateClick drags A to world (100, 200), releases, then
// clicks it without moving.
func TestDragThenSeparateClick(t *testing.T) {
	f := newFixture(t)

	f.ctrl.PointerDown(400, 300)
	sx, sy := f.transform.WorldToScreen(100, 200)
	f.ctrl.PointerMove(sx, sy)
	assert.Equal(t, visualization.Pin{X: 100, Y: 200}, *f.store.Node("A").Pin)
	f.ctrl.PointerUp(sx, sy)

	// The integrator moves the released node onto the drop point.
	f.store.Node("A").X, f.store.Node("A").Y = 100, 200

	f.ctrl.PointerDown(sx, sy)
	f.ctrl.PointerUp(sx, sy)

	assert.False(t, f.store.Node("A").Pinned())
	assert.Equal(t, []SelectEvent{{NodeID: "A"}}, f.selects)
	assert.Equal(t, "A", f.ctrl.Selected())
}

func TestExplicitFixSurvivesDrag(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.ctrl.TogglePin("A"))
	assert.Equal(t, visualization.Pin{X: 500, Y: 350}, *f.store.Node("A").Pin)

	f.ctrl.PointerDown(400, 300)
	f.ctrl.PointerMove(420, 300)
	f.ctrl.PointerUp(420, 300)

	require.True(t, f.store.Node("A").Pinned())
	assert.Equal(t, 520.0, f.store.Node("A").Pin.X)

	assert.False(t, f.ctrl.TogglePin("A"))
	assert.False(t, f.store.Node("A").Pinned())
	assert.False(t, f.ctrl.TogglePin("missing"))
}

func TestHoverIsSideEffectFree(t *testing.T) {
	f := newFixture(t)
	before := *f.transform

	f.ctrl.PointerMove(500, 300)
	assert.Equal(t, "B", f.ctrl.Hovered())
	f.ctrl.PointerMove(10, 10)
	assert.Empty(t, f.ctrl.Hovered())

	assert.Equal(t, before, *f.transform)
	assert.False(t, f.store.Node("B").Pinned())
	assert.Empty(t, f.selects)
}

func TestWheelZoomsAroundCursor(t *testing.T) {
	f := newFixture(t)

	wx, wy := f.transform.ScreenToWorld(600, 100)
	f.ctrl.Wheel(600, 100, 3)
	assert.InDelta(t, 1.331, f.transform.Zoom, 1e-9)

	sx, sy := f.transform.WorldToScreen(wx, wy)
	assert.InDelta(t, 600, sx, 1e-9)
	assert.InDelta(t, 100, sy, 1e-9)

	f.ctrl.Wheel(600, 100, 1000)
	assert.Equal(t, DefaultConfig().MaxZoom, f.transform.Zoom)
	f.ctrl.Wheel(600, 100, -1000)
	assert.Equal(t, DefaultConfig().MinZoom, f.transform.Zoom)
}

func TestPruneForgetsMissingNodes(t *testing.T) {
	f := newFixture(t)
	f.ctrl.PointerDown(400, 300)
	f.ctrl.PointerUp(400, 300)
	f.ctrl.TogglePin("B")

	visualization.NewIngestor(visualization.IngestConfig{Bounds: visualization.Bounds{Width: 1000, Height: 700}}, nil, nil).
		Ingest(f.store, visualization.Snapshot{Nodes: []visualization.SnapshotNode{{ID: "C"}}})
	f.ctrl.Prune()

	assert.Empty(t, f.ctrl.Selected())
	assert.False(t, f.ctrl.Fixed("B"))
}

func TestCancelReleasesDraggedNode(t *testing.T) {
	f := newFixture(t)
	f.ctrl.PointerDown(400, 300)
	f.ctrl.PointerMove(450, 300)
	require.True(t, f.store.Node("A").Pinned())

	f.ctrl.Cancel()
	assert.Equal(t, Idle, f.ctrl.State())
	assert.False(t, f.store.Node("A").Pinned())
}

func TestDragStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "panning", Panning.String())
	assert.Equal(t, "dragging", DraggingNode.String())
}

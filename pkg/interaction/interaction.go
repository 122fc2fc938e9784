// Package interaction turns pointer input into viewport changes, node pins
// and selection. It shares the engine's single viewport transform so hit
// testing and drawing always agree.
package interaction

import (
	"math"

	"github.com/dd0wney/cluso-agentviz/pkg/logging"
	"github.com/dd0wney/cluso-agentviz/pkg/render"
	"github.com/dd0wney/cluso-agentviz/pkg/viewport"
	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

// Controller owns the drag state machine. It writes only pins, the
// transform and selection state; positions belong to the integrator.
type Controller struct {
	store     *visualization.Store
	transform *viewport.Transform
	radius    func(n *visualization.Node) float64
	config    Config
	logger    logging.Logger
	onSelect  func(SelectEvent)

	state  DragState
	dragID string
	moved  bool
	downX  float64
	downY  float64
	lastX  float64
	lastY  float64

	selected string
	hovered  string
	fixed    map[string]bool
}

// NewController creates a controller. radius returns a node's on-screen
// radius; nil means a constant 8.
func NewController(store *visualization.Store, transform *viewport.Transform, radius func(*visualization.Node) float64, config Config, logger logging.Logger) *Controller {
	if config.ZoomStep <= 1 {
		config.ZoomStep = DefaultConfig().ZoomStep
	}
	if config.MinZoom <= 0 {
		config.MinZoom = DefaultConfig().MinZoom
	}
	if config.MaxZoom < config.MinZoom {
		config.MaxZoom = math.Max(DefaultConfig().MaxZoom, config.MinZoom)
	}
	if radius == nil {
		radius = func(*visualization.Node) float64 { return 8 }
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Controller{
		store:     store,
		transform: transform,
		radius:    radius,
		config:    config,
		logger:    logger.With(logging.Component("interaction")),
		fixed:     make(map[string]bool),
	}
}

// OnSelect registers the selection callback
func (c *Controller) OnSelect(fn func(SelectEvent)) { c.onSelect = fn }

// State returns the current drag state
func (c *Controller) State() DragState { return c.state }

// Moved reports whether the current gesture has moved past the threshold
func (c *Controller) Moved() bool { return c.moved }

// Selected returns the selected node id
func (c *Controller) Selected() string { return c.selected }

// Hovered returns the hovered node id
func (c *Controller) Hovered() string { return c.hovered }

// Selection returns the state the renderer needs
func (c *Controller) Selection() render.Selection {
	return render.Selection{Selected: c.selected, Hovered: c.hovered}
}

// Fixed reports whether a node was explicitly pinned
func (c *Controller) Fixed(id string) bool { return c.fixed[id] }

// HitTest returns the node under a screen point. The pick radius is
// converted to world units so it stays constant on screen at any zoom.
func (c *Controller) HitTest(sx, sy float64) (string, bool) {
	wx, wy := c.transform.ScreenToWorld(sx, sy)

	best := ""
	bestDist := math.Inf(1)
	for i := range c.store.Nodes {
		n := &c.store.Nodes[i]
		limit := c.transform.WorldDistance(c.radius(n) + c.config.HitSlop)
		d := math.Hypot(n.X-wx, n.Y-wy)
		if d <= limit && d < bestDist {
			best, bestDist = n.ID, d
		}
	}
	return best, best != ""
}

// PointerDown starts a pan or a node drag
func (c *Controller) PointerDown(sx, sy float64) {
	if c.state != Idle {
		return
	}
	c.moved = false
	c.downX, c.downY = sx, sy
	c.lastX, c.lastY = sx, sy

	if id, ok := c.HitTest(sx, sy); ok {
		c.state = DraggingNode
		c.dragID = id
		return
	}
	c.state = Panning
}

// PointerMove pans, drags or updates hover depending on state
func (c *Controller) PointerMove(sx, sy float64) {
	switch c.state {
	case Idle:
		c.updateHover(sx, sy)
	case Panning:
		c.trackMovement(sx, sy)
		c.transform.PanBy(sx-c.lastX, sy-c.lastY)
	case DraggingNode:
		c.trackMovement(sx, sy)
		if c.moved {
			wx, wy := c.transform.ScreenToWorld(sx, sy)
			c.store.SetPin(c.dragID, wx, wy)
		}
	}
	c.lastX, c.lastY = sx, sy
}

// PointerUp ends the gesture. A node drag without movement is a click and
// selects the node; a moved node is released back to the simulation unless
// it was explicitly fixed.
func (c *Controller) PointerUp(sx, sy float64) {
	switch c.state {
	case Panning:
		if !c.moved {
			c.selectNode("")
		}
	case DraggingNode:
		if c.moved {
			if c.fixed[c.dragID] {
				wx, wy := c.transform.ScreenToWorld(sx, sy)
				c.store.SetPin(c.dragID, wx, wy)
			} else {
				c.store.ClearPin(c.dragID)
			}
		} else {
			c.selectNode(c.dragID)
		}
	}

	c.state = Idle
	c.dragID = ""
	c.moved = false
	c.updateHover(sx, sy)
}

// Cancel abandons the gesture, releasing any dragged node.
func (c *Controller) Cancel() {
	if c.state == DraggingNode && c.moved && !c.fixed[c.dragID] {
		c.store.ClearPin(c.dragID)
	}
	c.state = Idle
	c.dragID = ""
	c.moved = false
}

// Wheel zooms by ZoomStep per notch, keeping the point under the cursor
// fixed. Positive notches zoom in.
func (c *Controller) Wheel(sx, sy, notches float64) {
	z := c.transform.Zoom * math.Pow(c.config.ZoomStep, notches)
	c.transform.ZoomAt(sx, sy, z, c.config.MinZoom, c.config.MaxZoom)
	c.logger.Debug("zoom", logging.Zoom(c.transform.Zoom))
}

// ZoomCenter zooms around the screen centre
func (c *Controller) ZoomCenter(notches float64) {
	cx, cy := c.transform.ScreenCenter()
	c.Wheel(cx, cy, notches)
}

// Pan moves the view by a screen delta
func (c *Controller) Pan(dx, dy float64) {
	c.transform.PanBy(dx, dy)
}

// TogglePin fixes a node at its current position, or releases it.
func (c *Controller) TogglePin(id string) bool {
	n := c.store.Node(id)
	if n == nil {
		return false
	}
	if c.fixed[id] {
		delete(c.fixed, id)
		c.store.ClearPin(id)
		return false
	}
	c.fixed[id] = true
	c.store.SetPin(id, n.X, n.Y)
	return true
}

// Prune forgets selection, hover and fixes for nodes that no longer exist.
func (c *Controller) Prune() {
	if c.selected != "" && c.store.Node(c.selected) == nil {
		c.selected = ""
	}
	if c.hovered != "" && c.store.Node(c.hovered) == nil {
		c.hovered = ""
	}
	for id := range c.fixed {
		if c.store.Node(id) == nil {
			delete(c.fixed, id)
		}
	}
	if c.state == DraggingNode && c.store.Node(c.dragID) == nil {
		c.state = Idle
		c.dragID = ""
	}
}

func (c *Controller) trackMovement(sx, sy float64) {
	if !c.moved && math.Hypot(sx-c.downX, sy-c.downY) > c.config.DragThreshold {
		c.moved = true
	}
}

func (c *Controller) updateHover(sx, sy float64) {
	id, _ := c.HitTest(sx, sy)
	c.hovered = id
}

func (c *Controller) selectNode(id string) {
	c.selected = id
	c.logger.Debug("selection changed", logging.NodeID(id))
	if c.onSelect != nil {
		c.onSelect(SelectEvent{NodeID: id})
	}
}

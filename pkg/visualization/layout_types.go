package visualization

import (
	"math"
)

// RandomFloat returns a pseudo-random number in [0, 1). It is injected so
// that simulations are reproducible in tests.
type RandomFloat func() float64

// Pin fixes a node at a world position until cleared.
type Pin struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a simulated agent.
type Node struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Risk          float64 `json:"risk"`
	ActivityCount int     `json:"activityCount"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	VX            float64 `json:"vx"`
	VY            float64 `json:"vy"`
	Pin           *Pin    `json:"pin,omitempty"`
}

// Pinned reports whether the node is currently fixed.
func (n *Node) Pinned() bool { return n.Pin != nil }

// Label returns the display name, falling back to the id.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// Link is an undirected spring between two agents, as delivered by a snapshot.
type Link struct {
	Source string  `json:"source" yaml:"source"`
	Target string  `json:"target" yaml:"target"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Spring is a Link resolved to indices into the node slice.
type Spring struct {
	A      int
	B      int
	Weight float64
}

// SnapshotNode is the wire form of a node in a snapshot.
type SnapshotNode struct {
	ID            string  `json:"id" yaml:"id" validate:"required,max=256"`
	Name          string  `json:"name" yaml:"name" validate:"max=512"`
	Risk          float64 `json:"risk" yaml:"risk"`
	ActivityCount int     `json:"activityCount" yaml:"activityCount"`
}

// Snapshot is a complete structural view of the agent graph. It is consumed
// wholesale on every refresh.
type Snapshot struct {
	Nodes []SnapshotNode `json:"nodes" yaml:"nodes"`
	Links []Link         `json:"links" yaml:"links"`
}

// Bounds is the simulation area in world units. Nodes are kept inside the
// rectangle shrunk by Inset on every side.
type Bounds struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Inset  float64 `json:"inset" yaml:"inset"`
}

// Center returns the world origin used for gravity and the viewport.
func (b Bounds) Center() (float64, float64) {
	return b.Width / 2, b.Height / 2
}

// Inner returns the inset rectangle. A degenerate inset collapses to the
// centre line on that axis.
func (b Bounds) Inner() (minX, minY, maxX, maxY float64) {
	cx, cy := b.Center()
	inset := math.Max(b.Inset, 0)
	minX, maxX = inset, b.Width-inset
	if minX > maxX {
		minX, maxX = cx, cx
	}
	minY, maxY = inset, b.Height-inset
	if minY > maxY {
		minY, maxY = cy, cy
	}
	return minX, minY, maxX, maxY
}

// Contains reports whether (x, y) lies inside the inset rectangle.
func (b Bounds) Contains(x, y float64) bool {
	minX, minY, maxX, maxY := b.Inner()
	return x >= minX && x <= maxX && y >= minY && y <= maxY
}

// ForceConfig configures the force integrator. All constants are
// dimensionless tuning values; none has a physical unit.
type ForceConfig struct {
	Repulsion   float64 // pairwise inverse-square push
	Spring      float64 // link stiffness, scaled by link weight
	Gravity     float64 // pull toward the world centre
	Jitter      float64 // per-axis random nudge amplitude
	Friction    float64 // velocity multiplier applied each tick
	MaxSpeed    float64 // per-tick speed cap
	Restitution float64 // fraction of speed kept after hitting the boundary
	Epsilon     float64 // substitute separation for coincident nodes
	Seed        int64   // seed for the default random source
}

// DefaultForceConfig returns the tuning used by the viewer.
func DefaultForceConfig() ForceConfig {
	return ForceConfig{
		Repulsion:   2000,
		Spring:      0.01,
		Gravity:     0.001,
		Jitter:      0.05,
		Friction:    0.85,
		MaxSpeed:    8,
		Restitution: 0.5,
		Epsilon:     0.01,
		Seed:        1,
	}
}

// IngestConfig configures snapshot ingestion.
type IngestConfig struct {
	Bounds        Bounds
	SeedRadius    float64 // radius of the circle new nodes are seeded on
	MaxLinkWeight float64
}

// IngestReport summarises one snapshot ingestion.
type IngestReport struct {
	NodesKept    int
	NodesAdded   int
	NodesRemoved int
	NodesDropped int // invalid or duplicate entries
	LinksKept    int
	LinksDropped int
	Changed      bool
}

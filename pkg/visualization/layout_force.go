package visualization

import (
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
)

// ForceIntegrator advances the force-directed simulation one fixed step at a
// time. Repulsion is evaluated for every pair, so a tick costs O(n²); this is
// fine for the few hundred agents the viewer targets.
type ForceIntegrator struct {
	config  ForceConfig
	random  RandomFloat
	onReset func(id string)
	resets  atomic.Uint64
	ticks   atomic.Uint64
}

// ForceOption customises a ForceIntegrator
type ForceOption func(*ForceIntegrator)

// WithRandom replaces the seeded random source.
func WithRandom(r RandomFloat) ForceOption {
	return func(fi *ForceIntegrator) { fi.random = r }
}

// WithResetHook is called with the node id whenever a non-finite node is reset.
func WithResetHook(fn func(id string)) ForceOption {
	return func(fi *ForceIntegrator) { fi.onReset = fn }
}

// NewForceIntegrator creates a new force integrator
func NewForceIntegrator(config ForceConfig, opts ...ForceOption) *ForceIntegrator {
	if config.Epsilon <= 0 {
		config.Epsilon = 0.01
	}
	if config.MaxSpeed <= 0 {
		config.MaxSpeed = math.Inf(1)
	}
	fi := &ForceIntegrator{
		config: config,
		random: rand.New(rand.NewSource(config.Seed)).Float64,
	}
	for _, opt := range opts {
		opt(fi)
	}
	return fi
}

// Config returns the integrator's constants
func (fi *ForceIntegrator) Config() ForceConfig { return fi.config }

// Resets returns how many times a node has been reset after going non-finite.
func (fi *ForceIntegrator) Resets() uint64 { return fi.resets.Load() }

// Ticks returns how many steps have been taken.
func (fi *ForceIntegrator) Ticks() uint64 { return fi.ticks.Load() }

// Tick advances nodes by one step in place and returns the slice. Springs
// referencing indices outside nodes are skipped. Tick never fails: a node
// whose state becomes NaN or infinite is moved to a random position inside
// the bounds and counted.
func (fi *ForceIntegrator) Tick(nodes []Node, springs []Spring, bounds Bounds) []Node {
	fi.ticks.Add(1)
	c := fi.config

	for i := range nodes {
		if !nodeFinite(&nodes[i]) {
			fi.reset(&nodes[i], bounds)
		}
	}

	// Repulsion between every pair
	eps2 := c.Epsilon * c.Epsilon
	for i := 0; i < len(nodes); i++ {
		a := &nodes[i]
		for j := i + 1; j < len(nodes); j++ {
			b := &nodes[j]
			dx := a.X - b.X
			dy := a.Y - b.Y
			d2 := dx*dx + dy*dy
			// Pairs closer than Epsilon repel as if Epsilon apart; exactly
			// coincident ones are split along x.
			switch {
			case d2 == 0:
				dx, dy, d2 = c.Epsilon, 0, eps2
			case d2 < eps2:
				scale := c.Epsilon / math.Sqrt(d2)
				dx, dy, d2 = dx*scale, dy*scale, eps2
			}
			d := math.Sqrt(d2)
			f := c.Repulsion / d2
			fx := dx / d * f
			fy := dy / d * f
			a.VX += fx
			a.VY += fy
			b.VX -= fx
			b.VY -= fy
		}
	}

	// Springs pull on the raw displacement, split between both ends
	for _, s := range springs {
		if s.A < 0 || s.B < 0 || s.A >= len(nodes) || s.B >= len(nodes) {
			continue
		}
		a, b := &nodes[s.A], &nodes[s.B]
		k := c.Spring * s.Weight / 2
		fx := (b.X - a.X) * k
		fy := (b.Y - a.Y) * k
		a.VX += fx
		a.VY += fy
		b.VX -= fx
		b.VY -= fy
	}

	cx, cy := bounds.Center()
	minX, minY, maxX, maxY := bounds.Inner()

	for i := range nodes {
		n := &nodes[i]

		if n.Pin != nil {
			n.X, n.Y = n.Pin.X, n.Pin.Y
			n.VX, n.VY = 0, 0
			continue
		}

		n.VX += (cx - n.X) * c.Gravity
		n.VY += (cy - n.Y) * c.Gravity

		n.VX += (fi.random() - 0.5) * 2 * c.Jitter
		n.VY += (fi.random() - 0.5) * 2 * c.Jitter

		n.VX *= c.Friction
		n.VY *= c.Friction
		if speed := math.Hypot(n.VX, n.VY); speed > c.MaxSpeed {
			scale := c.MaxSpeed / speed
			n.VX *= scale
			n.VY *= scale
		}

		n.X += n.VX
		n.Y += n.VY

		if n.X < minX {
			n.X = minX
			n.VX = math.Abs(n.VX) * c.Restitution
		} else if n.X > maxX {
			n.X = maxX
			n.VX = -math.Abs(n.VX) * c.Restitution
		}
		if n.Y < minY {
			n.Y = minY
			n.VY = math.Abs(n.VY) * c.Restitution
		} else if n.Y > maxY {
			n.Y = maxY
			n.VY = -math.Abs(n.VY) * c.Restitution
		}

		if !nodeFinite(n) {
			fi.reset(n, bounds)
		}
	}

	return nodes
}

func (fi *ForceIntegrator) reset(n *Node, bounds Bounds) {
	n.X, n.Y = randomInside(bounds, fi.random)
	n.VX, n.VY = 0, 0
	fi.resets.Add(1)
	if fi.onReset != nil {
		fi.onReset(n.ID)
	}
}

func nodeFinite(n *Node) bool {
	return geometry.Finite(n.X, n.Y, n.VX, n.VY)
}

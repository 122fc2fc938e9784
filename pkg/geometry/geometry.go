// Package geometry holds the small amount of 2D math shared by the
// simulation, the renderer and the branch layout.
package geometry

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Vec2 is a 2D vector in whichever space the caller is working in.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len2 returns the squared length
func (v Vec2) Len2() float64 { return v.X*v.X + v.Y*v.Y }

// Len returns the Euclidean length
func (v Vec2) Len() float64 { return math.Sqrt(v.Len2()) }

// Lerp interpolates between a and b; t is not clamped.
func Lerp(a, b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Finite reports whether every value is neither NaN nor infinite.
func Finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CubicBezier is a cubic curve from P0 to P1 with control points C1 and C2.
type CubicBezier struct {
	P0 Vec2 `json:"p0"`
	C1 Vec2 `json:"c1"`
	C2 Vec2 `json:"c2"`
	P1 Vec2 `json:"p1"`
}

// At evaluates the curve at t in [0, 1].
func (c CubicBezier) At(t float64) Vec2 {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Vec2{
		X: a*c.P0.X + b*c.C1.X + d*c.C2.X + e*c.P1.X,
		Y: a*c.P0.Y + b*c.C1.Y + d*c.C2.Y + e*c.P1.Y,
	}
}

// SCurve builds the horizontal S-curve used for connectors: both control
// points sit on the horizontal midpoint, each at its endpoint's height.
func SCurve(from, to Vec2) CubicBezier {
	midX := (from.X + to.X) / 2
	return CubicBezier{
		P0: from,
		C1: Vec2{X: midX, Y: from.Y},
		C2: Vec2{X: midX, Y: to.Y},
		P1: to,
	}
}

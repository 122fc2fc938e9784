package geometry

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name            string
		v, lo, hi, want float64
	}{
		{"inside", 5, 0, 10, 5},
		{"below", -1, 0, 10, 0},
		{"above", 11, 0, 10, 10},
		{"edge", 10, 0, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
				t.Errorf("Clamp(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}

	if got := Clamp(7, 1, 3); got != 3 {
		t.Errorf("Clamp[int] = %d, want 3", got)
	}
}

func TestFinite(t *testing.T) {
	if !Finite(1, 2, 3) {
		t.Error("expected finite values to be finite")
	}
	if Finite(1, math.NaN()) {
		t.Error("NaN reported as finite")
	}
	if Finite(math.Inf(-1)) {
		t.Error("-Inf reported as finite")
	}
}

func TestCubicBezierEndpoints(t *testing.T) {
	c := SCurve(Vec2{0, 0}, Vec2{100, 50})

	if got := c.At(0); got != c.P0 {
		t.Errorf("At(0) = %v, want %v", got, c.P0)
	}
	if got := c.At(1); got != c.P1 {
		t.Errorf("At(1) = %v, want %v", got, c.P1)
	}
	if c.C1 != (Vec2{50, 0}) || c.C2 != (Vec2{50, 50}) {
		t.Errorf("unexpected control points %v %v", c.C1, c.C2)
	}

	mid := c.At(0.5)
	if math.Abs(mid.X-50) > 1e-9 || math.Abs(mid.Y-25) > 1e-9 {
		t.Errorf("At(0.5) = %v, want (50, 25)", mid)
	}
}

func TestVecOps(t *testing.T) {
	v := Vec2{3, 4}
	if v.Len() != 5 {
		t.Errorf("Len() = %v, want 5", v.Len())
	}
	if got := v.Add(Vec2{1, 1}).Sub(Vec2{2, 2}).Scale(2); got != (Vec2{4, 6}) {
		t.Errorf("got %v, want (4, 6)", got)
	}
	if got := Lerp(Vec2{0, 0}, Vec2{10, 20}, 0.25); got != (Vec2{2.5, 5}) {
		t.Errorf("Lerp = %v", got)
	}
}

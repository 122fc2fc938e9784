// Package render draws frames of the agent graph onto a Surface. Surfaces
// work in screen coordinates; the compositor applies the viewport transform.
package render

import (
	"image/color"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
)

// Segment is a straight line in screen space
type Segment struct {
	X1, Y1, X2, Y2 float64
}

// Surface is a 2D drawing target.
type Surface interface {
	// Size returns the drawable area in screen units
	Size() (w, h float64)
	Clear(c color.Color)
	// StrokeSegments draws every segment in one batch with a shared style
	StrokeSegments(segs []Segment, c color.Color, width float64)
	StrokeCubic(curve geometry.CubicBezier, c color.Color, width float64)
	FillCircle(x, y, r float64, c color.Color)
	StrokeCircle(x, y, r float64, c color.Color, width float64)
	FillRect(x, y, w, h float64, c color.Color)
	// Glow draws a soft halo of radius r around (x, y)
	Glow(x, y, r float64, c color.Color)
	// Text draws s centred on (x, y)
	Text(s string, x, y float64, c color.Color)
}

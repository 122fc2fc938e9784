package render

import (
	"image/color"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
)

type call struct {
	op    string
	x, y  float64
	r     float64
	text  string
	segs  int
	color color.Color
}

// recordingSurface captures draw calls for assertions.
type recordingSurface struct {
	w, h  float64
	calls []call
}

func newRecorder() *recordingSurface { return &recordingSurface{w: 800, h: 600} }

func (r *recordingSurface) Size() (float64, float64) { return r.w, r.h }
func (r *recordingSurface) Clear(c color.Color) {
	r.calls = append(r.calls, call{op: "clear", color: c})
}
func (r *recordingSurface) StrokeSegments(segs []Segment, c color.Color, width float64) {
	r.calls = append(r.calls, call{op: "segments", segs: len(segs), color: c})
}
func (r *recordingSurface) StrokeCubic(curve geometry.CubicBezier, c color.Color, width float64) {
	r.calls = append(r.calls, call{op: "cubic", x: curve.P0.X, y: curve.P0.Y, color: c})
}
func (r *recordingSurface) FillCircle(x, y, rad float64, c color.Color) {
	r.calls = append(r.calls, call{op: "fill", x: x, y: y, r: rad, color: c})
}
func (r *recordingSurface) StrokeCircle(x, y, rad float64, c color.Color, width float64) {
	r.calls = append(r.calls, call{op: "ring", x: x, y: y, r: rad, color: c})
}
func (r *recordingSurface) FillRect(x, y, w, h float64, c color.Color) {
	r.calls = append(r.calls, call{op: "rect", x: x, y: y, color: c})
}
func (r *recordingSurface) Glow(x, y, rad float64, c color.Color) {
	r.calls = append(r.calls, call{op: "glow", x: x, y: y, r: rad, color: c})
}
func (r *recordingSurface) Text(s string, x, y float64, c color.Color) {
	r.calls = append(r.calls, call{op: "text", x: x, y: y, text: s, color: c})
}

func (r *recordingSurface) ops(op string) []call {
	var out []call
	for _, c := range r.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

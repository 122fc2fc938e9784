// Package viewport maps between world coordinates (where the simulation
// lives) and screen coordinates (where pointers and pixels live).
//
// The mapping is
//
//	screen = screenCenter + pan + zoom*(world - origin)
//
// and ScreenToWorld is its exact algebraic inverse. Both the renderer and the
// interaction controller must read the same Transform value; never keep two
// independently computed copies.
package viewport

import (
	"math"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
)

// Transform is the viewport state.
type Transform struct {
	Zoom    float64 `json:"zoom"`
	PanX    float64 `json:"panX"`
	PanY    float64 `json:"panY"`
	ScreenW float64 `json:"screenW"`
	ScreenH float64 `json:"screenH"`
	OriginX float64 `json:"originX"`
	OriginY float64 `json:"originY"`
}

// New creates an identity-zoom transform for a screen of the given size,
// centred on the world origin.
func New(screenW, screenH, originX, originY float64) Transform {
	return Transform{
		Zoom:    1,
		ScreenW: screenW,
		ScreenH: screenH,
		OriginX: originX,
		OriginY: originY,
	}
}

// ScreenCenter returns the centre of the drawing surface
func (t Transform) ScreenCenter() (float64, float64) {
	return t.ScreenW / 2, t.ScreenH / 2
}

// WorldToScreen maps a world point to screen space
func (t Transform) WorldToScreen(wx, wy float64) (float64, float64) {
	cx, cy := t.ScreenCenter()
	return cx + t.PanX + t.Zoom*(wx-t.OriginX),
		cy + t.PanY + t.Zoom*(wy-t.OriginY)
}

// ScreenToWorld maps a screen point back to world space
func (t Transform) ScreenToWorld(sx, sy float64) (float64, float64) {
	cx, cy := t.ScreenCenter()
	return (sx-cx-t.PanX)/t.Zoom + t.OriginX,
		(sy-cy-t.PanY)/t.Zoom + t.OriginY
}

// WorldPoint is ScreenToWorld returning a vector.
func (t Transform) WorldPoint(sx, sy float64) geometry.Vec2 {
	x, y := t.ScreenToWorld(sx, sy)
	return geometry.Vec2{X: x, Y: y}
}

// ScreenPoint is WorldToScreen returning a vector.
func (t Transform) ScreenPoint(wx, wy float64) geometry.Vec2 {
	x, y := t.WorldToScreen(wx, wy)
	return geometry.Vec2{X: x, Y: y}
}

// PanBy shifts the view by a screen-space delta.
func (t *Transform) PanBy(dx, dy float64) {
	t.PanX += dx
	t.PanY += dy
}

// ZoomAt sets the zoom to newZoom clamped to [minZoom, maxZoom] while keeping
// the world point under (sx, sy) fixed on screen. Non-positive or non-finite
// zoom values are ignored.
func (t *Transform) ZoomAt(sx, sy, newZoom, minZoom, maxZoom float64) {
	if !geometry.Finite(newZoom) || newZoom <= 0 {
		return
	}
	z := geometry.Clamp(newZoom, minZoom, maxZoom)
	if z <= 0 {
		return
	}

	wx, wy := t.ScreenToWorld(sx, sy)
	cx, cy := t.ScreenCenter()
	t.Zoom = z
	t.PanX = sx - cx - z*(wx-t.OriginX)
	t.PanY = sy - cy - z*(wy-t.OriginY)
}

// Resize changes the surface size, keeping pan and zoom.
func (t *Transform) Resize(w, h float64) {
	t.ScreenW = w
	t.ScreenH = h
}

// Fit resets pan and picks the largest zoom at which a world rectangle of
// the given size, centred on the origin, is fully visible.
func (t *Transform) Fit(worldW, worldH float64) {
	t.PanX, t.PanY = 0, 0
	if worldW <= 0 || worldH <= 0 || t.ScreenW <= 0 || t.ScreenH <= 0 {
		t.Zoom = 1
		return
	}
	t.Zoom = math.Min(t.ScreenW/worldW, t.ScreenH/worldH)
}

// WorldDistance converts a screen-space length to world units at the
// current zoom.
func (t Transform) WorldDistance(screenLen float64) float64 {
	return screenLen / t.Zoom
}

package viewport

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestWorldToScreenIdentity(t *testing.T) {
	tr := New(800, 600, 500, 350)

	sx, sy := tr.WorldToScreen(500, 350)
	assert.Equal(t, 400.0, sx)
	assert.Equal(t, 300.0, sy)

	sx, sy = tr.WorldToScreen(510, 340)
	assert.Equal(t, 410.0, sx)
	assert.Equal(t, 290.0, sy)
}

func TestScreenToWorldInverseProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("screenToWorld(worldToScreen(p)) == p", prop.ForAll(
		func(zoom, panX, panY, wx, wy float64) bool {
			tr := New(1024, 768, 500, 350)
			tr.Zoom = zoom
			tr.PanX = panX
			tr.PanY = panY

			sx, sy := tr.WorldToScreen(wx, wy)
			gx, gy := tr.ScreenToWorld(sx, sy)
			return approx(gx, wx) && approx(gy, wy)
		},
		gen.Float64Range(0.05, 20),
		gen.Float64Range(-5000, 5000),
		gen.Float64Range(-5000, 5000),
		gen.Float64Range(-10000, 10000),
		gen.Float64Range(-10000, 10000),
	))

	properties.TestingRun(t)
}

func TestZoomAtKeepsCursorAnchored(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("world point under cursor is stationary", prop.ForAll(
		func(startZoom, newZoom, sx, sy float64) bool {
			tr := New(1024, 768, 500, 350)
			tr.Zoom = startZoom
			tr.PanX = 37
			tr.PanY = -12

			wx, wy := tr.ScreenToWorld(sx, sy)
			tr.ZoomAt(sx, sy, newZoom, 0.1, 10)
			ax, ay := tr.WorldToScreen(wx, wy)
			return approx(ax, sx) && approx(ay, sy)
		},
		gen.Float64Range(0.1, 10),
		gen.Float64Range(0.01, 50),
		gen.Float64Range(0, 1024),
		gen.Float64Range(0, 768),
	))

	properties.TestingRun(t)
}

func TestZoomAtClampsAndIgnoresInvalid(t *testing.T) {
	tr := New(800, 600, 0, 0)

	tr.ZoomAt(400, 300, 100, 0.2, 5)
	assert.Equal(t, 5.0, tr.Zoom)

	tr.ZoomAt(400, 300, 0.001, 0.2, 5)
	assert.Equal(t, 0.2, tr.Zoom)

	tr.ZoomAt(400, 300, math.NaN(), 0.2, 5)
	assert.Equal(t, 0.2, tr.Zoom)

	tr.ZoomAt(400, 300, -3, 0.2, 5)
	assert.Equal(t, 0.2, tr.Zoom)
}

func TestPanByIsScreenSpace(t *testing.T) {
	tr := New(800, 600, 0, 0)
	tr.Zoom = 4

	before, _ := tr.WorldToScreen(10, 10)
	tr.PanBy(25, 0)
	after, _ := tr.WorldToScreen(10, 10)

	assert.Equal(t, 25.0, after-before)
}

func TestFit(t *testing.T) {
	tr := New(200, 100, 500, 350)
	tr.PanX = 40
	tr.Fit(1000, 700)

	assert.InDelta(t, 100.0/700.0, tr.Zoom, 1e-12)
	assert.Zero(t, tr.PanX)

	assert.InDelta(t, 10.0, tr.WorldDistance(10*tr.Zoom), 1e-9)
}

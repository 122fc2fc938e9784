package visualization

import (
	"math"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
)

// NormalizePositions scales node positions to fit a width x height frame
// with padding, preserving relative placement. Used for static exports.
func NormalizePositions(nodes []Node, width, height, padding float64) []geometry.Vec2 {
	out := make([]geometry.Vec2, len(nodes))
	if len(nodes) == 0 {
		return out
	}

	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	for i := range nodes {
		minX = math.Min(minX, nodes[i].X)
		maxX = math.Max(maxX, nodes[i].X)
		minY = math.Min(minY, nodes[i].Y)
		maxY = math.Max(maxY, nodes[i].Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX < 0.01 {
		rangeX = 1
	}
	if rangeY < 0.01 {
		rangeY = 1
	}

	targetWidth := width - 2*padding
	targetHeight := height - 2*padding
	for i := range nodes {
		out[i] = geometry.Vec2{
			X: padding + ((nodes[i].X-minX)/rangeX)*targetWidth,
			Y: padding + ((nodes[i].Y-minY)/rangeY)*targetHeight,
		}
	}
	return out
}

// randomInside picks a uniformly random point inside the inset rectangle.
func randomInside(b Bounds, random RandomFloat) (float64, float64) {
	minX, minY, maxX, maxY := b.Inner()
	return minX + random()*(maxX-minX), minY + random()*(maxY-minY)
}

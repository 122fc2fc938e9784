package visualization

import (
	"math"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
)

// CircularSeed returns count evenly spaced points on a circle.
func CircularSeed(centerX, centerY, radius float64, count int) []geometry.Vec2 {
	positions := make([]geometry.Vec2, count)
	if count == 0 {
		return positions
	}

	angleStep := 2 * math.Pi / float64(count)
	for i := range positions {
		angle := float64(i) * angleStep
		positions[i] = geometry.Vec2{
			X: centerX + radius*math.Cos(angle),
			Y: centerY + radius*math.Sin(angle),
		}
	}
	return positions
}

// Package visualization holds the live agent graph: snapshot ingestion into
// an id-indexed store and the force-directed integrator that moves it.
package visualization

import (
	"encoding/json"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
)

// ExportNode is a node as written by ExportJSON
type ExportNode struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Risk          float64 `json:"risk"`
	ActivityCount int     `json:"activityCount"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Pinned        bool    `json:"pinned"`
}

// Export is a point-in-time copy of the store suitable for serialisation.
type Export struct {
	Version uint64       `json:"version"`
	Nodes   []ExportNode `json:"nodes"`
	Links   []Link       `json:"links"`
}

// ExportOptions controls coordinate normalisation in exports. A zero Width
// keeps world coordinates.
type ExportOptions struct {
	Width   float64
	Height  float64
	Padding float64
}

// Export copies the store
func (s *Store) Export(opts ExportOptions) Export {
	out := Export{
		Version: s.version,
		Nodes:   make([]ExportNode, len(s.Nodes)),
		Links:   make([]Link, len(s.Springs)),
	}

	var normalized []geometry.Vec2
	if opts.Width > 0 && opts.Height > 0 {
		normalized = NormalizePositions(s.Nodes, opts.Width, opts.Height, opts.Padding)
	}

	for i := range s.Nodes {
		n := &s.Nodes[i]
		x, y := n.X, n.Y
		if normalized != nil {
			x, y = normalized[i].X, normalized[i].Y
		}
		out.Nodes[i] = ExportNode{
			ID:            n.ID,
			Name:          n.Name,
			Risk:          n.Risk,
			ActivityCount: n.ActivityCount,
			X:             x,
			Y:             y,
			Pinned:        n.Pinned(),
		}
	}
	for i, sp := range s.Springs {
		out.Links[i] = Link{Source: s.Nodes[sp.A].ID, Target: s.Nodes[sp.B].ID, Weight: sp.Weight}
	}
	return out
}

// ExportJSON exports the store as JSON
func (s *Store) ExportJSON(opts ExportOptions) ([]byte, error) {
	return json.Marshal(s.Export(opts))
}

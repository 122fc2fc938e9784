package visualization

import (
	"math"
	"math/rand"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
	"github.com/dd0wney/cluso-agentviz/pkg/logging"
	"github.com/dd0wney/cluso-agentviz/pkg/validation"
)

// Ingestor merges snapshots into a Store without restarting the simulation.
// Malformed input is filtered and counted, never returned as an error.
type Ingestor struct {
	config IngestConfig
	random RandomFloat
	logger logging.Logger
}

// NewIngestor creates a new snapshot ingestor
func NewIngestor(config IngestConfig, random RandomFloat, logger logging.Logger) *Ingestor {
	if config.SeedRadius == 0 {
		config.SeedRadius = math.Min(config.Bounds.Width, config.Bounds.Height) / 6
	}
	if config.MaxLinkWeight == 0 {
		config.MaxLinkWeight = 10
	}
	if random == nil {
		random = rand.New(rand.NewSource(1)).Float64
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Ingestor{config: config, random: random, logger: logger.With(logging.Component("ingest"))}
}

// Ingest replaces the store's structure with the snapshot. Nodes whose id
// already exists keep their position, velocity and pin.
func (in *Ingestor) Ingest(store *Store, snap Snapshot) IngestReport {
	var report IngestReport

	nodes := make([]Node, 0, len(snap.Nodes))
	seen := make(map[string]int, len(snap.Nodes))
	var fresh []int

	for i := range snap.Nodes {
		sn := snap.Nodes[i]
		if err := validation.Struct(&sn); err != nil {
			report.NodesDropped++
			in.logger.Debug("dropping snapshot node", logging.NodeID(sn.ID), logging.Error(err))
			continue
		}
		if _, dup := seen[sn.ID]; dup {
			report.NodesDropped++
			continue
		}

		n := Node{
			ID:            sn.ID,
			Name:          sn.Name,
			Risk:          sanitizeRisk(sn.Risk),
			ActivityCount: max(sn.ActivityCount, 0),
		}
		if prev := store.Node(sn.ID); prev != nil {
			n.X, n.Y, n.VX, n.VY, n.Pin = prev.X, prev.Y, prev.VX, prev.VY, prev.Pin
			if prev.Name != n.Name || prev.Risk != n.Risk || prev.ActivityCount != n.ActivityCount {
				report.Changed = true
			}
			report.NodesKept++
		} else {
			fresh = append(fresh, len(nodes))
			report.NodesAdded++
		}
		seen[sn.ID] = len(nodes)
		nodes = append(nodes, n)
	}

	in.seed(nodes, fresh)
	report.NodesRemoved = store.Len() - report.NodesKept

	springs := make([]Spring, 0, len(snap.Links))
	pairs := make(map[[2]int]struct{}, len(snap.Links))
	for _, l := range snap.Links {
		a, okA := seen[l.Source]
		b, okB := seen[l.Target]
		if !okA || !okB || a == b {
			report.LinksDropped++
			continue
		}
		key := [2]int{min(a, b), max(a, b)}
		if _, dup := pairs[key]; dup {
			report.LinksDropped++
			continue
		}
		pairs[key] = struct{}{}
		springs = append(springs, Spring{A: a, B: b, Weight: in.sanitizeWeight(l.Weight)})
	}
	report.LinksKept = len(springs)

	if report.NodesAdded > 0 || report.NodesRemoved > 0 || !sameOrder(store, nodes) || !sameSprings(store, springs, nodes) {
		report.Changed = true
	}
	store.replace(nodes, springs, report.Changed)

	in.logger.Debug("snapshot ingested",
		logging.Int("kept", report.NodesKept),
		logging.Int("added", report.NodesAdded),
		logging.Int("removed", report.NodesRemoved),
		logging.Int("nodes_dropped", report.NodesDropped),
		logging.Int("links", report.LinksKept),
		logging.Int("links_dropped", report.LinksDropped),
	)
	return report
}

// seed places newly arrived nodes on a circle around the world centre with a
// small random offset so that simultaneous arrivals never coincide.
func (in *Ingestor) seed(nodes []Node, fresh []int) {
	if len(fresh) == 0 {
		return
	}
	cx, cy := in.config.Bounds.Center()
	positions := CircularSeed(cx, cy, in.config.SeedRadius, len(fresh))
	spread := in.config.SeedRadius * 0.1
	for k, idx := range fresh {
		nodes[idx].X = positions[k].X + (in.random()-0.5)*spread
		nodes[idx].Y = positions[k].Y + (in.random()-0.5)*spread
	}
}

func sanitizeRisk(r float64) float64 {
	if !geometry.Finite(r) {
		return 0
	}
	return geometry.Clamp(r, 0, 100)
}

func (in *Ingestor) sanitizeWeight(w float64) float64 {
	if !geometry.Finite(w) || w <= 0 {
		return 1
	}
	return geometry.Clamp(w, 0, in.config.MaxLinkWeight)
}

func sameOrder(store *Store, nodes []Node) bool {
	if store.Len() != len(nodes) {
		return false
	}
	for i := range nodes {
		if store.Nodes[i].ID != nodes[i].ID {
			return false
		}
	}
	return true
}

func sameSprings(store *Store, springs []Spring, nodes []Node) bool {
	if len(store.Springs) != len(springs) {
		return false
	}
	for i, s := range springs {
		old := store.Springs[i]
		if old.Weight != s.Weight ||
			store.Nodes[old.A].ID != nodes[s.A].ID ||
			store.Nodes[old.B].ID != nodes[s.B].ID {
			return false
		}
	}
	return true
}

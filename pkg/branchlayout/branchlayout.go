// Package branchlayout places a reasoning trace deterministically: a
// vertical chain of steps, alternatives branching left and right from the
// step they refer to, and related items in a row underneath.
package branchlayout

import (
	"math"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
)

// Layout computes positions and connectors. It is a pure function: the same
// input and config always produce the same result.
func Layout(t Trace, cfg Config) Result {
	var res Result

	chain := orderChain(t.Chain)
	chainIndex := make(map[string]int, len(chain))
	for i, it := range chain {
		if _, dup := chainIndex[it.ID]; !dup {
			chainIndex[it.ID] = i
		}
		res.Nodes = append(res.Nodes, Placed{
			Item: it,
			Kind: KindChain,
			X:    cfg.CenterX,
			Y:    cfg.Top + float64(i)*cfg.ChainSpacing,
		})
	}
	for i := 1; i < len(chain); i++ {
		res.Connectors = append(res.Connectors, connect(res.Nodes[i-1], res.Nodes[i]))
	}

	maxY := cfg.Top
	if len(chain) > 0 {
		maxY = res.Nodes[len(chain)-1].Y
	}

	for _, side := range []struct {
		branches []Branch
		kind     Kind
		x        float64
	}{
		{t.Left, KindBranchLeft, cfg.CenterX - cfg.BranchOffset},
		{t.Right, KindBranchRight, cfg.CenterX + cfg.BranchOffset},
	} {
		stacked := make(map[int]int)
		for _, b := range side.branches {
			anchor, ok := chainIndex[b.Anchor]
			if !ok {
				anchor = len(chain) - 1
			}
			anchorY := cfg.Top
			if anchor >= 0 {
				anchorY = res.Nodes[anchor].Y
			}

			p := Placed{
				Item: b.Item,
				Kind: side.kind,
				X:    side.x,
				Y:    anchorY + float64(stacked[anchor])*cfg.BranchSpacing,
			}
			stacked[anchor]++
			res.Nodes = append(res.Nodes, p)
			maxY = math.Max(maxY, p.Y)
			if anchor >= 0 {
				res.Connectors = append(res.Connectors, connect(res.Nodes[anchor], p))
			}
		}
	}

	leafY := maxY + cfg.LeafGap
	for i, it := range t.Leaves {
		offset := float64(i) - float64(len(t.Leaves)-1)/2
		p := Placed{
			Item: it,
			Kind: KindLeaf,
			X:    cfg.CenterX + offset*cfg.LeafSpacing,
			Y:    leafY,
		}
		res.Nodes = append(res.Nodes, p)
		if len(chain) > 0 {
			res.Connectors = append(res.Connectors, connect(res.Nodes[len(chain)-1], p))
		}
	}

	res.OffsetX, res.OffsetY, res.Width, res.Height = extent(res.Nodes, cfg)
	return res
}

// orderChain keeps chronological order but moves items flagged Current to
// the end.
func orderChain(items []Item) []Item {
	out := make([]Item, 0, len(items))
	var current []Item
	for _, it := range items {
		if it.Current {
			current = append(current, it)
			continue
		}
		out = append(out, it)
	}
	return append(out, current...)
}

func connect(from, to Placed) Connector {
	return Connector{
		From:  from.ID,
		To:    to.ID,
		Curve: geometry.SCurve(geometry.Vec2{X: from.X, Y: from.Y}, geometry.Vec2{X: to.X, Y: to.Y}),
	}
}

// extent returns the translation that brings every node box at least a
// margin away from the origin, and the canvas size after that translation.
func extent(nodes []Placed, cfg Config) (offX, offY, w, h float64) {
	if len(nodes) == 0 {
		return 0, 0, 2 * cfg.Margin, 2 * cfg.Margin
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		minX = math.Min(minX, n.X-cfg.NodeWidth/2)
		minY = math.Min(minY, n.Y-cfg.NodeHeight/2)
		maxX = math.Max(maxX, n.X+cfg.NodeWidth/2)
		maxY = math.Max(maxY, n.Y+cfg.NodeHeight/2)
	}
	offX = cfg.Margin - minX
	offY = cfg.Margin - minY
	return offX, offY, maxX - minX + 2*cfg.Margin, maxY - minY + 2*cfg.Margin
}

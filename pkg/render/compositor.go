package render

import (
	"math"
	"time"

	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

// Compositor turns a Frame into draw calls. It keeps scratch buffers between
// frames and is therefore not safe for concurrent use.
type Compositor struct {
	style Style

	normal    []Segment
	highlight []Segment
}

// NewCompositor creates a new compositor
func NewCompositor(style Style) *Compositor {
	if style.LabelThreshold == 0 {
		style.LabelThreshold = DefaultStyle().LabelThreshold
	}
	if style.SelectedScale == 0 {
		style.SelectedScale = 1
	}
	if style.HoveredScale == 0 {
		style.HoveredScale = 1
	}
	return &Compositor{style: style}
}

// Style returns the compositor's style
func (c *Compositor) Style() Style { return c.style }

// NodeRadius returns a node's base on-screen radius, grown by activity.
func (c *Compositor) NodeRadius(n *visualization.Node) float64 {
	r := c.style.NodeRadius + math.Log1p(float64(max(n.ActivityCount, 0)))*c.style.ActivityScale
	if c.style.NodeRadiusMax > 0 {
		r = math.Min(r, c.style.NodeRadiusMax)
	}
	return r
}

// RenderFrame draws one frame: clear, links, highlighted links, packets,
// nodes, labels. Cost is linear in nodes, links and packets.
func (c *Compositor) RenderFrame(s Surface, f Frame) FrameStats {
	start := time.Now()
	var stats FrameStats

	s.Clear(ColorBackground)

	tr := f.Transform
	screen := make([]geometry.Vec2, len(f.Nodes))
	for i := range f.Nodes {
		screen[i] = tr.ScreenPoint(f.Nodes[i].X, f.Nodes[i].Y)
	}

	lookup := f.Lookup
	if lookup == nil {
		index := make(map[string]int, len(f.Nodes))
		for i := range f.Nodes {
			index[f.Nodes[i].ID] = i
		}
		lookup = func(id string) (int, bool) {
			i, ok := index[id]
			return i, ok
		}
	}

	selected := -1
	if f.Selection.Selected != "" {
		if i, ok := lookup(f.Selection.Selected); ok && i < len(f.Nodes) {
			selected = i
		}
	}

	// Links, normal batch then highlight batch
	c.normal = c.normal[:0]
	c.highlight = c.highlight[:0]
	for _, sp := range f.Springs {
		if sp.A < 0 || sp.B < 0 || sp.A >= len(screen) || sp.B >= len(screen) {
			continue
		}
		seg := Segment{screen[sp.A].X, screen[sp.A].Y, screen[sp.B].X, screen[sp.B].Y}
		if selected >= 0 && (sp.A == selected || sp.B == selected) {
			c.highlight = append(c.highlight, seg)
		} else {
			c.normal = append(c.normal, seg)
		}
	}
	if len(c.normal) > 0 {
		s.StrokeSegments(c.normal, ColorLink, c.style.LinkWidth)
	}
	if len(c.highlight) > 0 {
		s.StrokeSegments(c.highlight, ColorLinkHighlight, c.style.HighlightWidth)
	}
	stats.Links = len(c.normal) + len(c.highlight)
	stats.Highlighted = len(c.highlight)

	// Packets
	for _, p := range f.Packets {
		progress := p.Progress(f.Now, f.Lifetime)
		if progress > 1 {
			stats.Expired = append(stats.Expired, p.ID)
			continue
		}
		progress = math.Max(progress, 0)

		src, ok := lookup(p.Source)
		if !ok || src >= len(screen) {
			stats.Skipped++
			continue
		}
		if p.Broadcast {
			r := progress * c.style.BroadcastRadius
			s.StrokeCircle(screen[src].X, screen[src].Y, r, WithAlpha(ColorBroadcast, 1-progress*0.8), c.style.LinkWidth)
			stats.Packets++
			continue
		}
		dst, ok := lookup(p.Destination)
		if !ok || dst >= len(screen) {
			stats.Skipped++
			continue
		}
		pos := geometry.Lerp(screen[src], screen[dst], progress)
		s.FillCircle(pos.X, pos.Y, c.style.PacketRadius, ColorPacket)
		stats.Packets++
	}

	// Nodes
	labels := len(f.Nodes) < c.style.LabelThreshold
	for i := range f.Nodes {
		n := &f.Nodes[i]
		p := screen[i]
		r := c.NodeRadius(n)
		isSelected := n.ID == f.Selection.Selected
		isHovered := n.ID == f.Selection.Hovered

		fill := RiskColor(n.Risk)
		if isSelected || isHovered {
			if isSelected {
				r *= c.style.SelectedScale
			} else {
				r *= c.style.HoveredScale
			}
			s.Glow(p.X, p.Y, r*c.style.GlowRadius, fill)
			stats.Glows++
		}

		s.FillCircle(p.X, p.Y, r, fill)
		if isSelected {
			s.StrokeCircle(p.X, p.Y, r, ColorSelection, c.style.HighlightWidth)
		}
		if n.Pinned() {
			s.FillCircle(p.X, p.Y, r*0.35, ColorBackground)
		}
		stats.Nodes++

		if labels || isSelected || isHovered {
			s.Text(n.Label(), p.X, p.Y+r+c.style.LabelOffset, ColorLabel)
			stats.Labels++
		}
	}

	stats.Duration = time.Since(start)
	return stats
}

package engine

// NodeSummary is the slow-changing part of a node shown in side panels
type NodeSummary struct {
	ID       string
	Name     string
	Risk     float64
	Activity int
}

// Mirror is a read-only copy of the state a UI panel shows. The node list
// is recopied only when the graph structure changes.
type Mirror struct {
	Version  uint64
	Nodes    []NodeSummary
	Links    int
	Packets  int
	Selected *NodeSummary
	Pinned   bool // whether the selected node is pinned
	Hovered  string
	Zoom     float64
	PanX     float64
	PanY     float64
	Ticks    uint64
	Resets   uint64
}

// Mirror returns the latest mirror. Safe for concurrent use; callers must
// not modify the returned value.
func (e *Engine) Mirror() *Mirror {
	return e.mirror.Load()
}

func (e *Engine) refreshMirror() {
	if v := e.store.Version(); v != e.mirrorVer || e.mirrorNode == nil {
		nodes := make([]NodeSummary, len(e.store.Nodes))
		for i := range e.store.Nodes {
			n := &e.store.Nodes[i]
			nodes[i] = NodeSummary{ID: n.ID, Name: n.Label(), Risk: n.Risk, Activity: n.ActivityCount}
		}
		e.mirrorNode = nodes
		e.mirrorVer = v
	}

	m := &Mirror{
		Version: e.mirrorVer,
		Nodes:   e.mirrorNode,
		Links:   len(e.store.Springs),
		Packets: e.bridge.Len(),
		Hovered: e.controller.Hovered(),
		Zoom:    e.transform.Zoom,
		PanX:    e.transform.PanX,
		PanY:    e.transform.PanY,
		Ticks:   e.integrator.Ticks(),
		Resets:  e.integrator.Resets(),
	}
	if sel := e.controller.Selected(); sel != "" {
		if i, ok := e.store.Lookup(sel); ok {
			s := e.mirrorNode[i]
			m.Selected = &s
			m.Pinned = e.store.Nodes[i].Pinned()
		}
	}
	e.mirror.Store(m)
}

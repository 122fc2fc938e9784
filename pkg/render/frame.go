package render

import (
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-agentviz/pkg/packets"
	"github.com/dd0wney/cluso-agentviz/pkg/viewport"
	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

// Selection is the UI state the renderer needs
type Selection struct {
	Selected string
	Hovered  string
}

// Frame is everything one render pass reads. The compositor never mutates
// any of it.
type Frame struct {
	Nodes   []visualization.Node
	Springs []visualization.Spring
	// Lookup resolves a node id to an index into Nodes. When nil an index
	// is built for the frame.
	Lookup    func(id string) (int, bool)
	Packets   []packets.Packet
	Lifetime  time.Duration
	Transform viewport.Transform
	Selection Selection
	Now       time.Time
}

// FrameStats reports what a render pass drew. Expired lists packets whose
// progress passed 1; the caller removes them from the bridge.
type FrameStats struct {
	Links       int
	Highlighted int
	Packets     int
	Skipped     int
	Nodes       int
	Glows       int
	Labels      int
	Expired     []uuid.UUID
	Duration    time.Duration
}

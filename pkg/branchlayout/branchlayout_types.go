package branchlayout

import (
	"github.com/dd0wney/cluso-agentviz/pkg/geometry"
)

// Kind is where a node sits in the layout
type Kind string

const (
	KindChain       Kind = "chain"
	KindBranchLeft  Kind = "branch-left"
	KindBranchRight Kind = "branch-right"
	KindLeaf        Kind = "leaf"
)

// Item is one entry of a trace: a reasoning step, an alternative or a
// related artefact. Status only affects colour.
type Item struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label" yaml:"label"`
	Status  string `json:"status,omitempty" yaml:"status,omitempty"`
	Current bool   `json:"current,omitempty" yaml:"current,omitempty"`
}

// Branch is an item hanging off a chain item. An empty or unknown Anchor
// attaches it to the last chain item.
type Branch struct {
	Item   `yaml:",inline"`
	Anchor string `json:"anchor,omitempty" yaml:"anchor,omitempty"`
}

// Trace is the input to Layout
type Trace struct {
	Chain  []Item   `json:"chain" yaml:"chain"`
	Left   []Branch `json:"left" yaml:"left"`
	Right  []Branch `json:"right" yaml:"right"`
	Leaves []Item   `json:"leaves" yaml:"leaves"`
}

// Placed is a positioned node. X and Y are the node centre.
type Placed struct {
	Item
	Kind Kind    `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Connector joins two placed nodes with an S-curve
type Connector struct {
	From  string               `json:"from"`
	To    string               `json:"to"`
	Curve geometry.CubicBezier `json:"curve"`
}

// Result is the output of Layout. Adding OffsetX/OffsetY to every
// coordinate fits the drawing into a Width x Height canvas.
type Result struct {
	Nodes      []Placed    `json:"nodes"`
	Connectors []Connector `json:"connectors"`
	OffsetX    float64     `json:"offsetX"`
	OffsetY    float64     `json:"offsetY"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
}

// Config holds the layout spacing constants
type Config struct {
	CenterX       float64 `yaml:"centerX"`
	Top           float64 `yaml:"top"`
	ChainSpacing  float64 `yaml:"chainSpacing"`
	BranchOffset  float64 `yaml:"branchOffset"`
	BranchSpacing float64 `yaml:"branchSpacing"`
	LeafGap       float64 `yaml:"leafGap"`
	LeafSpacing   float64 `yaml:"leafSpacing"`
	NodeWidth     float64 `yaml:"nodeWidth"`
	NodeHeight    float64 `yaml:"nodeHeight"`
	Margin        float64 `yaml:"margin"`
}

// DefaultConfig returns the spacing used by the trace command
func DefaultConfig() Config {
	return Config{
		CenterX:       480,
		Top:           60,
		ChainSpacing:  120,
		BranchOffset:  280,
		BranchSpacing: 80,
		LeafGap:       120,
		LeafSpacing:   190,
		NodeWidth:     170,
		NodeHeight:    48,
		Margin:        40,
	}
}

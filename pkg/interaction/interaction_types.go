package interaction

// DragState is the pointer state machine
type DragState int

const (
	// Idle means no button is held
	Idle DragState = iota
	// Panning means the button went down on empty space
	Panning
	// DraggingNode means the button went down on a node
	DraggingNode
)

// String returns the state name
func (s DragState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case DraggingNode:
		return "dragging"
	default:
		return "unknown"
	}
}

// Config tunes pointer handling. Distances are in screen units.
type Config struct {
	MinZoom       float64
	MaxZoom       float64
	ZoomStep      float64 // zoom factor per wheel notch
	HitSlop       float64 // extra pick radius around each node
	DragThreshold float64 // movement below this still counts as a click
}

// DefaultConfig returns the viewer defaults
func DefaultConfig() Config {
	return Config{
		MinZoom:  0.1,
		MaxZoom:  8,
		ZoomStep: 1.1,
		HitSlop:  4,
	}
}

// SelectEvent is delivered when a click selects a node or clears the
// selection (empty NodeID).
type SelectEvent struct {
	NodeID string
}

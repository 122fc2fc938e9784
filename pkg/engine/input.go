package engine

import (
	"github.com/dd0wney/cluso-agentviz/pkg/logging"
)

// InputKind identifies a user input
type InputKind int

const (
	PointerDown InputKind = iota
	PointerMove
	PointerUp
	PointerCancel
	Wheel      // X, Y cursor; Delta notches, positive zooms in
	ZoomCenter // Delta notches
	Pan        // X, Y screen delta
	TogglePin  // NodeID, or the selection when empty
	ResetView
	Resize // X, Y new screen size
)

func (k InputKind) String() string {
	switch k {
	case PointerDown:
		return "pointer-down"
	case PointerMove:
		return "pointer-move"
	case PointerUp:
		return "pointer-up"
	case PointerCancel:
		return "pointer-cancel"
	case Wheel:
		return "wheel"
	case ZoomCenter:
		return "zoom-center"
	case Pan:
		return "pan"
	case TogglePin:
		return "toggle-pin"
	case ResetView:
		return "reset-view"
	case Resize:
		return "resize"
	default:
		return "unknown"
	}
}

// InputEvent is one pointer, wheel or keyboard action in screen units
type InputEvent struct {
	Kind   InputKind
	X, Y   float64
	Delta  float64
	NodeID string
}

// Input returns the queue consumed by Run. Events sent while Run is not
// running wait in the buffer.
func (e *Engine) Input() chan<- InputEvent { return e.input }

// Apply handles one input immediately. Call it from the engine goroutine.
func (e *Engine) Apply(ev InputEvent) {
	c := e.controller
	switch ev.Kind {
	case PointerDown:
		c.PointerDown(ev.X, ev.Y)
	case PointerMove:
		c.PointerMove(ev.X, ev.Y)
	case PointerUp:
		c.PointerUp(ev.X, ev.Y)
	case PointerCancel:
		c.Cancel()
	case Wheel:
		c.Wheel(ev.X, ev.Y, ev.Delta)
	case ZoomCenter:
		c.ZoomCenter(ev.Delta)
	case Pan:
		c.Pan(ev.X, ev.Y)
	case TogglePin:
		id := ev.NodeID
		if id == "" {
			id = c.Selected()
		}
		if id == "" {
			return
		}
		pinned := c.TogglePin(id)
		e.logger.Debug("pin toggled", logging.NodeID(id), logging.Bool("pinned", pinned))
		if e.metrics != nil {
			e.metrics.PinnedNodes.Set(float64(e.pinned()))
		}
	case ResetView:
		e.transform.Fit(e.opts.Ingest.Bounds.Width, e.opts.Ingest.Bounds.Height)
	case Resize:
		if ev.X > 0 && ev.Y > 0 {
			e.transform.Resize(ev.X, ev.Y)
		}
	}
}

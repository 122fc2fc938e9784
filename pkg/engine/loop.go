package engine

import (
	"context"
	"time"

	"github.com/dd0wney/cluso-agentviz/pkg/logging"
	"github.com/dd0wney/cluso-agentviz/pkg/render"
)

// Run drives physics and rendering from one goroutine until ctx is done
// or Close is called. present, when non-nil, is called after every frame
// with the surface fully drawn.
func (e *Engine) Run(ctx context.Context, surface render.Surface, present func(render.FrameStats)) error {
	physics := time.NewTicker(e.opts.PhysicsInterval)
	defer physics.Stop()
	frames := time.NewTicker(e.opts.FrameInterval)
	defer frames.Stop()

	e.logger.Info("engine loop started",
		logging.Duration("physics_interval", e.opts.PhysicsInterval),
		logging.Duration("frame_interval", e.opts.FrameInterval),
	)
	defer e.logger.Info("engine loop stopped", logging.Tick(e.integrator.Ticks()))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.ctx.Done():
			return nil
		case snap := <-e.snapshots:
			e.LoadSnapshot(snap)
		case ev := <-e.input:
			e.Apply(ev)
		case <-physics.C:
			e.Step()
		case now := <-frames.C:
			stats := e.Frame(surface, now)
			if present != nil {
				present(stats)
			}
		}
	}
}

// Drain applies queued snapshots and input without blocking. Hosts that
// drive Step and Frame themselves call it once per tick.
func (e *Engine) Drain() {
	for {
		select {
		case snap := <-e.snapshots:
			e.LoadSnapshot(snap)
		case ev := <-e.input:
			e.Apply(ev)
		default:
			return
		}
	}
}

// Done is closed when the engine is closed
func (e *Engine) Done() <-chan struct{} { return e.ctx.Done() }

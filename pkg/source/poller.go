package source

import (
	"context"
	"time"

	"github.com/dd0wney/cluso-agentviz/pkg/logging"
	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

// Poller fetches a snapshot immediately and then every Interval, handing
// each one to Handle. Failed fetches are logged; the consumer keeps the
// previous snapshot.
type Poller struct {
	Source   Source
	Interval time.Duration
	Handle   func(visualization.Snapshot)
	Logger   logging.Logger

	// Timeout bounds a single fetch. Zero means Interval.
	Timeout time.Duration
}

// Run polls until ctx is done. An Interval <= 0 fetches once.
func (p *Poller) Run(ctx context.Context) error {
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.With(logging.Component("poller"))

	p.poll(ctx, logger)
	if p.Interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx, logger)
		}
	}
}

func (p *Poller) poll(ctx context.Context, logger logging.Logger) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = p.Interval
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	timer := logging.StartTimer(logger, "snapshot fetch")
	snap, err := p.Source.Fetch(ctx)
	if err != nil {
		timer.EndError(err)
		return
	}
	timer.End(logging.Count(len(snap.Nodes)), logging.Int("links", len(snap.Links)))
	if p.Handle != nil {
		p.Handle(snap)
	}
}

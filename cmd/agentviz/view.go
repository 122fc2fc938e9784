package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-agentviz/pkg/config"
	"github.com/dd0wney/cluso-agentviz/pkg/engine"
	"github.com/dd0wney/cluso-agentviz/pkg/logging"
	"github.com/dd0wney/cluso-agentviz/pkg/render"
	"github.com/dd0wney/cluso-agentviz/pkg/source"
	"github.com/dd0wney/cluso-agentviz/pkg/tui"
)

// cellMinZoom lets a whole world fit into a terminal, where one cell is
// two pixels tall.
const cellMinZoom = 0.01

func viewCmd(a *app) *cobra.Command {
	var (
		snapshot string
		dsn      string
		eventsAt string
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the live agent graph in the terminal",
		Example: "  agentviz view --snapshot agents.json --events tcp://127.0.0.1:5555\n" +
			"  agentviz view --pg-dsn postgres://localhost/agents --log-file agentviz.log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if snapshot != "" {
				cfg.Source.Snapshot = snapshot
			}
			if dsn != "" {
				cfg.Source.Postgres.DSN = dsn
			}
			if eventsAt != "" {
				cfg.Source.Events = eventsAt
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			// stderr belongs to the alternate screen while the viewer runs
			logger := a.logger
			if a.toStderr {
				logger = logging.NewNopLogger()
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			src, closeSrc, err := openSource(ctx, cfg.Source)
			if err != nil {
				return err
			}
			defer closeSrc()

			e := engine.New(a.viewOptions(cfg, logger))
			defer e.Close()

			poller := &source.Poller{
				Source:   src,
				Interval: cfg.Engine.PollInterval,
				Handle:   e.Submit,
				Logger:   logger,
			}
			go func() {
				_ = poller.Run(ctx)
			}()

			if cfg.Source.Events != "" {
				stream := engine.DefaultEventStream(cfg.Source.Events, logger)
				if err := e.AttachStream(ctx, stream); err != nil {
					return err
				}
			}

			return tui.Run(e, tui.Options{
				Title:           "agentviz",
				PhysicsInterval: cfg.Engine.PhysicsInterval,
				FrameInterval:   cfg.Engine.FrameInterval,
			})
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "JSON or YAML snapshot file, re-read every poll")
	cmd.Flags().StringVar(&dsn, "pg-dsn", "", "Postgres URL to poll for agents and links")
	cmd.Flags().StringVar(&eventsAt, "events", "", "event publisher address, e.g. tcp://127.0.0.1:5555")
	return cmd
}

// viewOptions are the engine options for the terminal viewer
func (a *app) viewOptions(cfg config.Config, logger logging.Logger) engine.Options {
	opts := a.engineOptions(cfg, render.CellStyle(), logger)
	if opts.Interaction.MinZoom > cellMinZoom {
		opts.Interaction.MinZoom = cellMinZoom
	}
	return opts
}

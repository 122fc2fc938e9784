package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-agentviz/pkg/engine"
	"github.com/dd0wney/cluso-agentviz/pkg/render"
	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

func renderCmd(a *app) *cobra.Command {
	var (
		snapshot string
		dsn      string
		out      string
		export   string
		ticks    int
		width    int
		height   int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Settle a snapshot for a number of ticks and write one frame as PNG",
		Example: "  agentviz render --snapshot agents.json --ticks 300 --out graph.png\n" +
			"  agentviz render --snapshot agents.yaml --export layout.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if snapshot != "" {
				cfg.Source.Snapshot = snapshot
			}
			if dsn != "" {
				cfg.Source.Postgres.DSN = dsn
			}
			if width > 0 {
				cfg.Render.Width = width
			}
			if height > 0 {
				cfg.Render.Height = height
			}
			if ticks < 0 {
				return fmt.Errorf("--ticks must be >= 0, got %d", ticks)
			}

			src, closeSrc, err := openSource(cmd.Context(), cfg.Source)
			if err != nil {
				return err
			}
			defer closeSrc()

			snap, err := src.Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch snapshot: %w", err)
			}

			e := engine.New(a.engineOptions(cfg, render.DefaultStyle(), a.logger))
			defer e.Close()

			report := e.LoadSnapshot(snap)
			for i := 0; i < ticks; i++ {
				e.Step()
			}

			surface := render.NewImageSurface(cfg.Render.Width, cfg.Render.Height)
			stats := e.Frame(surface, time.Now())
			if err := surface.SavePNG(out); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "wrote %s: %d nodes, %d links", out, stats.Nodes, stats.Links)
			if report.NodesDropped > 0 || report.LinksDropped > 0 {
				fmt.Fprintf(w, " (dropped %d nodes, %d links)", report.NodesDropped, report.LinksDropped)
			}
			fmt.Fprintln(w)

			if export != "" {
				data, err := e.Store().ExportJSON(visualization.ExportOptions{
					Width:   float64(cfg.Render.Width),
					Height:  float64(cfg.Render.Height),
					Padding: 40,
				})
				if err != nil {
					return fmt.Errorf("export layout: %w", err)
				}
				if err := os.WriteFile(export, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", export, err)
				}
				fmt.Fprintf(w, "wrote %s\n", export)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "JSON or YAML snapshot file")
	cmd.Flags().StringVar(&dsn, "pg-dsn", "", "Postgres URL to read agents and links from")
	cmd.Flags().StringVarP(&out, "out", "o", "agents.png", "PNG output path")
	cmd.Flags().StringVar(&export, "export", "", "also write node positions as JSON to this path")
	cmd.Flags().IntVar(&ticks, "ticks", 300, "physics ticks to run before drawing")
	cmd.Flags().IntVar(&width, "width", 0, "image width in pixels (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "image height in pixels (default from config)")
	return cmd
}

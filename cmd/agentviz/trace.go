package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-agentviz/pkg/branchlayout"
	"github.com/dd0wney/cluso-agentviz/pkg/logging"
	"github.com/dd0wney/cluso-agentviz/pkg/render"
)

func traceCmd(a *app) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:     "trace",
		Short:   "Lay out a reasoning trace and write it as SVG or PNG",
		Example: "  agentviz trace --in trace.yaml --out trace.svg",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" {
				return errors.New("--in is required")
			}
			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read trace: %w", err)
			}
			trace, err := branchlayout.Decode(data)
			if err != nil {
				return err
			}

			layoutCfg := a.cfg.Trace
			res := branchlayout.Layout(trace, layoutCfg)

			switch strings.ToLower(filepath.Ext(out)) {
			case ".svg":
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				if err := branchlayout.WriteSVG(f, res, layoutCfg); err != nil {
					f.Close()
					return fmt.Errorf("write %s: %w", out, err)
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
			case ".png":
				surface := render.NewImageSurface(int(math.Ceil(res.Width)), int(math.Ceil(res.Height)))
				branchlayout.Draw(surface, res, layoutCfg)
				if err := surface.SavePNG(out); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
			default:
				return fmt.Errorf("unsupported output %q: use .svg or .png", out)
			}

			a.logger.Debug("trace written", logging.Path(out), logging.Count(len(res.Nodes)))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d nodes, %d connectors\n", out, len(res.Nodes), len(res.Connectors))
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "trace file (YAML or JSON)")
	cmd.Flags().StringVarP(&out, "out", "o", "trace.svg", "output path ending in .svg or .png")
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-agentviz/pkg/config"
	"github.com/dd0wney/cluso-agentviz/pkg/engine"
	"github.com/dd0wney/cluso-agentviz/pkg/logging"
	"github.com/dd0wney/cluso-agentviz/pkg/metrics"
	"github.com/dd0wney/cluso-agentviz/pkg/render"
	"github.com/dd0wney/cluso-agentviz/pkg/source"
)

var version = "0.3.0"

// app carries the state every subcommand shares. It is filled in by the
// root command's PersistentPreRunE.
type app struct {
	configPath  string
	logLevel    string
	logFile     string
	metricsAddr string

	cfg     config.Config
	logger  logging.Logger
	metrics *metrics.Registry

	closers  []io.Closer
	server   *http.Server
	stopSys  context.CancelFunc
	sysDone  chan struct{}
	toStderr bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "agentviz",
		Short:        "agentviz - watch a multi-agent system as a live graph",
		Long:         "Render agents as a force-directed graph with animated message packets,\nand lay out reasoning traces as branching diagrams.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}
	cmd.SetVersionTemplate("agentviz {{ .Version }}\n")

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFile, "log-file", "", "append JSON logs to this file instead of stderr")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")

	cmd.AddCommand(
		viewCmd(a),
		renderCmd(a),
		traceCmd(a),
		emitCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFile != "" {
		cfg.Logging.File = a.logFile
	}
	if a.metricsAddr != "" {
		cfg.Metrics.Addr = a.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	writer := cmd.ErrOrStderr()
	a.toStderr = true
	if cfg.Logging.File != "" {
		f, err := logging.OpenFile(cfg.Logging.File)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, f)
		writer = f
		a.toStderr = false
	}
	a.logger = logging.NewLogger(writer, cfg.Logging.Level).With(logging.Component("agentviz"))
	logging.SetDefaultLogger(a.logger)

	a.metrics = metrics.NewRegistry()
	if cfg.Metrics.Addr != "" {
		a.serveMetrics(cfg.Metrics.Addr)
	}
	return nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	a.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("metrics listening", logging.Addr(addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", logging.Addr(addr), logging.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	a.stopSys = cancel
	a.sysDone = make(chan struct{})
	go func() {
		defer close(a.sysDone)
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			a.metrics.UpdateSystemMetrics()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (a *app) teardown() {
	if a.stopSys != nil {
		a.stopSys()
		<-a.sysDone
		a.stopSys = nil
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.server.Shutdown(ctx)
		cancel()
		a.server = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

// engineOptions builds engine options from the loaded configuration
func (a *app) engineOptions(cfg config.Config, base render.Style, logger logging.Logger) engine.Options {
	opts := engine.DefaultOptions()
	opts.Force = cfg.Force()
	opts.Ingest = cfg.Ingest()
	opts.Style = cfg.Style(base)
	opts.Interaction = cfg.InteractionConfig()
	opts.Lifetime = cfg.Packets.Lifetime
	opts.ScreenWidth = float64(cfg.Render.Width)
	opts.ScreenHeight = float64(cfg.Render.Height)
	opts.PhysicsInterval = cfg.Engine.PhysicsInterval
	opts.FrameInterval = cfg.Engine.FrameInterval
	opts.InputBuffer = cfg.Engine.InputBuffer
	opts.Metrics = a.metrics
	opts.Logger = logger
	return opts
}

// openSource picks the snapshot source. A snapshot file wins over Postgres.
func openSource(ctx context.Context, cfg config.SourceConfig) (source.Source, func(), error) {
	switch {
	case cfg.Snapshot != "":
		src, err := source.NewFileSource(cfg.Snapshot)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	case cfg.Postgres.DSN != "":
		src, err := source.NewPGSource(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	default:
		return nil, nil, errors.New("no snapshot source: set --snapshot or --pg-dsn")
	}
}

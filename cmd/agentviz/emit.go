package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-agentviz/pkg/events"
	"github.com/dd0wney/cluso-agentviz/pkg/logging"
	"github.com/dd0wney/cluso-agentviz/pkg/transport"
)

func emitCmd(a *app) *cobra.Command {
	var (
		addr     string
		from     string
		to       string
		kind     string
		dial     bool
		count    int
		interval time.Duration
		settle   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Publish agent messages to viewers",
		Long: "Publish one or more agent events on a pub socket. Viewers subscribe\n" +
			"with --events. An empty --to broadcasts to every agent.",
		Example: "  agentviz emit --addr tcp://127.0.0.1:5555 --from planner --to coder\n" +
			"  agentviz emit --addr tcp://127.0.0.1:5555 --from planner --count 20 --interval 200ms",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Source.Events
			}
			if addr == "" {
				return errors.New("--addr is required")
			}
			if from == "" {
				return errors.New("--from is required")
			}
			if count < 1 {
				return fmt.Errorf("--count must be >= 1, got %d", count)
			}

			var (
				pub *transport.NNGPublisher
				err error
			)
			if dial {
				pub, err = transport.DialPublisher(addr)
			} else {
				pub, err = transport.Listen(addr)
			}
			if err != nil {
				return err
			}
			defer pub.Close()

			// subscribers need a moment to connect before anything is sent
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-time.After(settle):
			}

			logger := a.logger.With(logging.Addr(addr))
			for i := 0; i < count; i++ {
				evt := events.New(kind, from, to)
				if err := pub.Publish(evt); err != nil {
					return fmt.Errorf("publish: %w", err)
				}
				logger.Debug("event published", logging.String("id", evt.ID), logging.NodeID(from))

				if i < count-1 {
					select {
					case <-cmd.Context().Done():
						return cmd.Context().Err()
					case <-time.After(interval):
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d event(s) to %s\n", count, addr)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "publisher address (default from source.events)")
	cmd.Flags().StringVar(&from, "from", "", "sending agent id")
	cmd.Flags().StringVar(&to, "to", "", "receiving agent id; empty broadcasts")
	cmd.Flags().StringVar(&kind, "kind", "message", "event kind")
	cmd.Flags().BoolVar(&dial, "dial", false, "dial the address instead of listening on it")
	cmd.Flags().IntVar(&count, "count", 1, "number of events to publish")
	cmd.Flags().DurationVar(&interval, "interval", 100*time.Millisecond, "delay between events")
	cmd.Flags().DurationVar(&settle, "wait", 500*time.Millisecond, "delay before the first event")
	return cmd
}

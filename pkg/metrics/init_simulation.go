package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSimulationMetrics() {
	r.TicksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "physics_ticks_total",
			Help:      "Total number of force simulation ticks",
		},
	)

	r.TickDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "physics_tick_duration_seconds",
			Help:      "Time spent in one force simulation tick",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025},
		},
	)

	r.NodeResetsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "physics_node_resets_total",
			Help:      "Nodes reset after their position or velocity became non-finite",
		},
	)

	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_nodes",
			Help:      "Agents currently in the simulation",
		},
	)

	r.GraphLinks = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_links",
			Help:      "Links currently in the simulation",
		},
	)

	r.PinnedNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "graph_pinned_nodes",
			Help:      "Agents held in place by a pin",
		},
	)
}

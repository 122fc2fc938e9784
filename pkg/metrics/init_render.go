package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRenderMetrics() {
	r.FramesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frames_total",
			Help:      "Frames composited",
		},
	)

	r.FrameDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent compositing one frame",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .016, .033, .05, .1},
		},
	)

	r.FramePacketsSkipped = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frame_packets_skipped_total",
			Help:      "Packets not drawn because an endpoint agent is missing",
		},
	)

	r.FrameDrawn = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "frame_drawn",
			Help:      "Primitives drawn in the last frame",
		},
		[]string{"layer"}, // links, packets, nodes, labels
	)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPacketMetrics() {
	r.PacketsSpawnedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "packets_spawned_total",
			Help:      "Packets created from agent events",
		},
		[]string{"kind"}, // direct, broadcast
	)

	r.PacketsExpiredTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "packets_expired_total",
			Help:      "Packets removed after finishing their animation",
		},
	)

	r.PacketsRejectedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "packets_rejected_total",
			Help:      "Events dropped because the bridge was closed",
		},
	)

	r.PacketsLive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "packets_live",
			Help:      "Packets currently in flight",
		},
	)

	r.StreamSubscribers = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "event_stream_subscribers",
			Help:      "Handles held on the shared event stream",
		},
	)
}

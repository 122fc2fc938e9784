package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initIngestMetrics() {
	r.SnapshotsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "snapshots_total",
			Help:      "Snapshots ingested by result",
		},
		[]string{"result"}, // changed, unchanged, error
	)

	r.SnapshotDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "snapshot_ingest_duration_seconds",
			Help:      "Time spent merging a snapshot into the simulation",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		},
	)

	r.IngestDroppedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "snapshot_dropped_total",
			Help:      "Snapshot entries dropped during ingest",
		},
		[]string{"kind"}, // node, link
	)
}

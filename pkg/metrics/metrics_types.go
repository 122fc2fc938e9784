package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name
const Namespace = "agentviz"

// Registry holds all metrics for the application
type Registry struct {
	// Simulation Metrics
	TicksTotal      prometheus.Counter
	TickDuration    prometheus.Histogram
	NodeResetsTotal prometheus.Counter
	GraphNodes      prometheus.Gauge
	GraphLinks      prometheus.Gauge
	PinnedNodes     prometheus.Gauge

	// Ingest Metrics
	SnapshotsTotal     *prometheus.CounterVec
	SnapshotDuration   prometheus.Histogram
	IngestDroppedTotal *prometheus.CounterVec

	// Packet Metrics
	PacketsSpawnedTotal  *prometheus.CounterVec
	PacketsExpiredTotal  prometheus.Counter
	PacketsRejectedTotal prometheus.Counter
	PacketsLive          prometheus.Gauge
	StreamSubscribers    prometheus.Gauge

	// Render Metrics
	FramesTotal         prometheus.Counter
	FrameDuration       prometheus.Histogram
	FramePacketsSkipped prometheus.Counter
	FrameDrawn          *prometheus.GaugeVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	started  time.Time
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
	}

	r.initSimulationMetrics()
	r.initIngestMetrics()
	r.initPacketMetrics()
	r.initRenderMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

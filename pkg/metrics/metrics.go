package metrics

import (
	"runtime"
	"time"

	"github.com/dd0wney/cluso-agentviz/pkg/render"
	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

// RecordTick records one simulation tick. resets is the number of node
// resets during the tick.
func (r *Registry) RecordTick(duration time.Duration, resets uint64) {
	r.TicksTotal.Inc()
	r.TickDuration.Observe(duration.Seconds())
	if resets > 0 {
		r.NodeResetsTotal.Add(float64(resets))
	}
}

// SetGraphSize updates the node, link and pin gauges
func (r *Registry) SetGraphSize(nodes, links, pinned int) {
	r.GraphNodes.Set(float64(nodes))
	r.GraphLinks.Set(float64(links))
	r.PinnedNodes.Set(float64(pinned))
}

// RecordIngest records the outcome of merging a snapshot
func (r *Registry) RecordIngest(report visualization.IngestReport, duration time.Duration) {
	result := "unchanged"
	if report.Changed {
		result = "changed"
	}
	r.SnapshotsTotal.WithLabelValues(result).Inc()
	r.SnapshotDuration.Observe(duration.Seconds())
	if report.NodesDropped > 0 {
		r.IngestDroppedTotal.WithLabelValues("node").Add(float64(report.NodesDropped))
	}
	if report.LinksDropped > 0 {
		r.IngestDroppedTotal.WithLabelValues("link").Add(float64(report.LinksDropped))
	}
}

// RecordSnapshotError counts a snapshot that could not be fetched
func (r *Registry) RecordSnapshotError() {
	r.SnapshotsTotal.WithLabelValues("error").Inc()
}

// RecordPacketSpawned counts a new packet
func (r *Registry) RecordPacketSpawned(broadcast bool) {
	kind := "direct"
	if broadcast {
		kind = "broadcast"
	}
	r.PacketsSpawnedTotal.WithLabelValues(kind).Inc()
}

// RecordPacketsExpired counts packets pruned after rendering
func (r *Registry) RecordPacketsExpired(n int) {
	if n > 0 {
		r.PacketsExpiredTotal.Add(float64(n))
	}
}

// RecordPacketRejected counts an event that arrived after the bridge closed
func (r *Registry) RecordPacketRejected() {
	r.PacketsRejectedTotal.Inc()
}

// SetLivePackets sets the number of packets in flight
func (r *Registry) SetLivePackets(n int) {
	r.PacketsLive.Set(float64(n))
}

// SetStreamSubscribers sets the shared event stream reference count
func (r *Registry) SetStreamSubscribers(n int) {
	r.StreamSubscribers.Set(float64(n))
}

// RecordFrame records the statistics of one composited frame
func (r *Registry) RecordFrame(stats render.FrameStats) {
	r.FramesTotal.Inc()
	r.FrameDuration.Observe(stats.Duration.Seconds())
	if stats.Skipped > 0 {
		r.FramePacketsSkipped.Add(float64(stats.Skipped))
	}
	r.FrameDrawn.WithLabelValues("links").Set(float64(stats.Links))
	r.FrameDrawn.WithLabelValues("packets").Set(float64(stats.Packets))
	r.FrameDrawn.WithLabelValues("nodes").Set(float64(stats.Nodes))
	r.FrameDrawn.WithLabelValues("labels").Set(float64(stats.Labels))
}

// UpdateSystemMetrics samples uptime, goroutines and memory
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(r.started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

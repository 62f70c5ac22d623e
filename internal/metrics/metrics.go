package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Meshing holds the Prometheus collectors for the chunk meshing pipeline.
// A nil *Meshing is valid and records nothing.
type Meshing struct {
	queued           prometheus.Counter
	applied          prometheus.Counter
	removed          prometheus.Counter
	discarded        prometheus.Counter
	skippedNeighbors prometheus.Counter
	failed           prometheus.Counter
	inflight         prometheus.Gauge
	buildSeconds     prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Meshing, error) {
	m := &Meshing{
		queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxmesh",
			Name:      "mesh_tasks_queued_total",
			Help:      "Mesh tasks handed to the executor.",
		}),
		applied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxmesh",
			Name:      "meshes_applied_total",
			Help:      "Completed meshes created or updated in the sink.",
		}),
		removed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxmesh",
			Name:      "meshes_removed_total",
			Help:      "Meshes removed because the chunk produced no geometry.",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxmesh",
			Name:      "mesh_tasks_discarded_total",
			Help:      "Completed tasks dropped because their chunk entity is gone.",
		}),
		skippedNeighbors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxmesh",
			Name:      "mesh_dispatch_deferred_total",
			Help:      "Dispatch attempts deferred because a neighbor chunk was not ready.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxmesh",
			Name:      "mesh_tasks_failed_total",
			Help:      "Mesh tasks whose build failed.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxmesh",
			Name:      "mesh_tasks_inflight",
			Help:      "Mesh tasks submitted but not yet applied.",
		}),
		buildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxmesh",
			Name:      "mesh_build_seconds",
			Help:      "Time spent building a single chunk mesh.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.queued, m.applied, m.removed, m.discarded,
		m.skippedNeighbors, m.failed, m.inflight, m.buildSeconds,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register meshing metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Meshing) Queued(n int) {
	if m == nil || n == 0 {
		return
	}
	m.queued.Add(float64(n))
	m.inflight.Add(float64(n))
}

// Applied records a finished task that changed the sink.
func (m *Meshing) Applied(build time.Duration) {
	if m == nil {
		return
	}
	m.applied.Inc()
	m.inflight.Dec()
	m.buildSeconds.Observe(build.Seconds())
}

// Removed records a finished task whose empty result removed a mesh.
func (m *Meshing) Removed(build time.Duration) {
	if m == nil {
		return
	}
	m.removed.Inc()
	m.inflight.Dec()
	m.buildSeconds.Observe(build.Seconds())
}

func (m *Meshing) Discarded() {
	if m == nil {
		return
	}
	m.discarded.Inc()
	m.inflight.Dec()
}

func (m *Meshing) Failed() {
	if m == nil {
		return
	}
	m.failed.Inc()
	m.inflight.Dec()
}

func (m *Meshing) Deferred(n int) {
	if m == nil || n == 0 {
		return
	}
	m.skippedNeighbors.Add(float64(n))
}

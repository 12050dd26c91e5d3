// Package metrics exposes prometheus instrumentation for the registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lockable"

// Recorder holds the registry's collectors. A nil *Recorder records nothing.
type Recorder struct {
	operations *prometheus.CounterVec
	free       *prometheus.GaugeVec
	resources  prometheus.Gauge
	queued     prometheus.Gauge
	acquire    *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "operations_total",
			Help:      "Per-resource claim operations by outcome.",
		}, []string{"op", "outcome"}),
		free: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "free_resources",
			Help:      "Free resources carrying the label.",
		}, []string{"label"}),
		resources: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "resources",
			Help:      "Resources currently defined.",
		}),
		queued: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "waiting_claims",
			Help:      "Queued claims across all resources.",
		}),
		acquire: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "acquire_duration_seconds",
			Help:      "Time spent in Acquire, including queue retries.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"granted"}),
	}
}

// Operation counts one per-resource outcome of op.
func (r *Recorder) Operation(op, outcome string) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(op, outcome).Inc()
}

// Snapshot replaces the gauges with the given state. free maps label to
// free count; labels no longer present are dropped.
func (r *Recorder) Snapshot(total int, free map[string]int, queued int) {
	if r == nil {
		return
	}
	r.resources.Set(float64(total))
	r.queued.Set(float64(queued))
	r.free.Reset()
	for label, n := range free {
		r.free.WithLabelValues(label).Set(float64(n))
	}
}

// ObserveAcquire records how long an acquisition took.
func (r *Recorder) ObserveAcquire(seconds float64, granted bool) {
	if r == nil {
		return
	}
	g := "false"
	if granted {
		g = "true"
	}
	r.acquire.WithLabelValues(g).Observe(seconds)
}

// OperationCounter returns the counter for op and outcome, or nil for a nil
// Recorder.
func (r *Recorder) OperationCounter(op, outcome string) prometheus.Counter {
	if r == nil {
		return nil
	}
	return r.operations.WithLabelValues(op, outcome)
}

// FreeGauge returns the free-resources gauge for label, or nil for a nil
// Recorder.
func (r *Recorder) FreeGauge(label string) prometheus.Gauge {
	if r == nil {
		return nil
	}
	return r.free.WithLabelValues(label)
}

// QueuedGauge returns the waiting-claims gauge, or nil for a nil Recorder.
func (r *Recorder) QueuedGauge() prometheus.Gauge {
	if r == nil {
		return nil
	}
	return r.queued
}

// Package metrics exposes Prometheus collectors for multipart uploads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "multipart"
	subsystem = "upload"
)

// UploadMetrics holds Prometheus collectors for multipart upload sessions.
// It implements multipart.Observer.
type UploadMetrics struct {
	reg           *prometheus.Registry
	phases        *prometheus.CounterVec
	phaseLatency  *prometheus.HistogramVec
	partBytes     *prometheus.CounterVec
	parts         *prometheus.CounterVec
	partLatency   prometheus.Histogram
	outcomes      *prometheus.CounterVec
	abortFailures prometheus.Counter
}

// NewUploadMetrics registers upload metrics on the provided registry.
func NewUploadMetrics(reg *prometheus.Registry) *UploadMetrics {
	phases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "phases_total",
		Help:      "Total number of upload phases by result.",
	}, []string{"phase", "result"}) // result = "ok" | "error"
	phaseLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "phase_duration_seconds",
		Help:      "Histogram of upload phase durations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"phase"})
	partBytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "part_bytes_total",
		Help:      "Total bytes sent in part uploads by result.",
	}, []string{"result"})
	parts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "parts_total",
		Help:      "Total number of part uploads by result.",
	}, []string{"result"})
	partLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "part_duration_seconds",
		Help:      "Histogram of part upload durations in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions_total",
		Help:      "Total number of upload sessions by terminal status.",
	}, []string{"status"}) // status = "committed" | "aborted"
	abortFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "abort_failures_total",
		Help:      "Number of abort requests the storage service rejected. Each may leave billable parts behind.",
	})

	_ = reg.Register(phases)
	_ = reg.Register(phaseLatency)
	_ = reg.Register(partBytes)
	_ = reg.Register(parts)
	_ = reg.Register(partLatency)
	_ = reg.Register(outcomes)
	_ = reg.Register(abortFailures)

	return &UploadMetrics{
		reg:           reg,
		phases:        phases,
		phaseLatency:  phaseLatency,
		partBytes:     partBytes,
		parts:         parts,
		partLatency:   partLatency,
		outcomes:      outcomes,
		abortFailures: abortFailures,
	}
}

// ObservePhase records one initiate, transfer, complete or abort phase.
func (m *UploadMetrics) ObservePhase(phase string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.phases.WithLabelValues(phase, result(err)).Inc()
	m.phaseLatency.WithLabelValues(phase).Observe(dur.Seconds())
}

// ObservePart records one part upload attempt.
func (m *UploadMetrics) ObservePart(bytes int64, err error, dur time.Duration) {
	if m == nil {
		return
	}
	res := result(err)
	m.parts.WithLabelValues(res).Inc()
	if bytes > 0 {
		m.partBytes.WithLabelValues(res).Add(float64(bytes))
	}
	m.partLatency.Observe(dur.Seconds())
}

// ObserveOutcome records a terminal session status.
func (m *UploadMetrics) ObserveOutcome(status string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(status).Inc()
}

// ObserveAbortFailure records an abort the service rejected.
func (m *UploadMetrics) ObserveAbortFailure(_ error) {
	if m == nil {
		return
	}
	m.abortFailures.Inc()
}

// Registry returns the registry the collectors are registered on.
func (m *UploadMetrics) Registry() *prometheus.Registry {
	return m.reg
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

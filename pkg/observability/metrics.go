package observability

import (
	"context"

	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by the engine hooks.
type Metrics struct {
	SegmentsIndexed *prometheus.CounterVec
	IndexDuration   prometheus.Histogram
	LabelsRejected  prometheus.Counter
	Traversals      *prometheus.CounterVec
	TraversalLength prometheus.Histogram
	Invalidations   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SegmentsIndexed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookahead_segments_indexed_total",
				Help: "Annotation lookups per segment, split by cache outcome",
			},
			[]string{"cache"},
		),
		IndexDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lookahead_index_duration_seconds",
				Help:    "Time spent sampling and querying labels for one segment",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		LabelsRejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lookahead_labels_rejected_total",
				Help: "Sign labels that could not be parsed",
			},
		),
		Traversals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookahead_traversals_total",
				Help: "Finished traversals, split by whether the iteration cap stopped them",
			},
			[]string{"capped"},
		),
		TraversalLength: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lookahead_traversal_segments",
				Help:    "Segments visited per traversal",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
			},
		),
		Invalidations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lookahead_invalidations_total",
				Help: "Annotation cache invalidations",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.SegmentsIndexed, m.IndexDuration, m.LabelsRejected, m.Traversals, m.TraversalLength, m.Invalidations)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSegmentIndexed: func(_ context.Context, e *domain.IndexEvent) {
			if e.CacheHit {
				m.SegmentsIndexed.WithLabelValues("hit").Inc()
				return
			}
			m.SegmentsIndexed.WithLabelValues("miss").Inc()
			m.IndexDuration.Observe(e.Duration.Seconds())
		},
		OnLabelRejected: func(context.Context, *domain.LabelEvent) {
			m.LabelsRejected.Inc()
		},
		OnTraversalEnd: func(_ context.Context, e *domain.TraversalEvent) {
			capped := "false"
			if e.Capped {
				capped = "true"
			}
			m.Traversals.WithLabelValues(capped).Inc()
			m.TraversalLength.Observe(float64(e.Segments))
		},
		OnInvalidate: func(context.Context) {
			m.Invalidations.Inc()
		},
	}
}

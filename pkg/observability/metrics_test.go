package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/aretw0/lookahead"
	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/dsl"
	"github.com/aretw0/lookahead/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	h := m.Hooks()
	ctx := context.Background()

	h.OnSegmentIndexed(ctx, &domain.IndexEvent{Segment: "A", Duration: time.Millisecond})
	h.OnSegmentIndexed(ctx, &domain.IndexEvent{Segment: "A", CacheHit: true})
	h.OnSegmentIndexed(ctx, &domain.IndexEvent{Segment: "B", CacheHit: true})
	h.OnLabelRejected(ctx, &domain.LabelEvent{Segment: "A", Label: "STOP"})
	h.OnTraversalEnd(ctx, &domain.TraversalEvent{Start: "A", Segments: 3})
	h.OnTraversalEnd(ctx, &domain.TraversalEvent{Start: "A", Segments: 100, Capped: true})
	h.OnInvalidate(ctx)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SegmentsIndexed.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SegmentsIndexed.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LabelsRejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Traversals.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Traversals.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invalidations))

	count, err := testutil.GatherAndCount(reg, "lookahead_index_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		observability.NewMetrics(nil)
		observability.NewMetrics(nil)
	})
}

func TestMetrics_WiredIntoEngine(t *testing.T) {
	b := dsl.New()
	b.Segment("A", 500).Grade(1).Sign(100, "8", dsl.Forward)
	b.Segment("B", 300)
	b.Link("A", dsl.Last, "B", dsl.First)
	net, err := b.Build()
	require.NoError(t, err)

	m := observability.NewMetrics(prometheus.NewRegistry())
	eng, err := lookahead.New(net, lookahead.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, err)

	ctx := context.Background()
	for range 2 {
		seq, err := eng.Upcoming(ctx, lookahead.Query{Segment: "A"})
		require.NoError(t, err)
		require.NotEmpty(t, slices.Collect(seq))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SegmentsIndexed.WithLabelValues("miss")), "A and B indexed once")
	assert.Positive(t, testutil.ToFloat64(m.SegmentsIndexed.WithLabelValues("hit")))
	assert.Positive(t, testutil.ToFloat64(m.Traversals.WithLabelValues("false")))

	require.NoError(t, eng.InvalidateAll(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invalidations))
}

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnInvalidate: func(context.Context) { calls = append(calls, "a") },
	}
	b := domain.LifecycleHooks{
		OnInvalidate:   func(context.Context) { calls = append(calls, "b") },
		OnTraversalEnd: func(context.Context, *domain.TraversalEvent) { calls = append(calls, "b-end") },
	}

	h := observability.Combine(a, domain.LifecycleHooks{}, b)
	require.NotNil(t, h.OnInvalidate)
	require.NotNil(t, h.OnTraversalEnd)
	assert.Nil(t, h.OnSegmentIndexed)
	assert.Nil(t, h.OnLabelRejected)

	h.OnInvalidate(context.Background())
	h.OnTraversalEnd(context.Background(), &domain.TraversalEvent{})
	assert.Equal(t, []string{"a", "b", "b-end"}, calls)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := observability.LogHooks(logger)

	h.OnLabelRejected(context.Background(), &domain.LabelEvent{Segment: "A", Label: "STOP"})
	h.OnInvalidate(context.Background())

	out := buf.String()
	assert.Contains(t, out, "label_rejected")
	assert.Contains(t, out, "label=STOP")
	assert.Contains(t, out, "annotations_invalidated")
}

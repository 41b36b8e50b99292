package index

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/aretw0/lookahead/internal/logging"
	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/ports"
)

const (
	DefaultResolution = 10.0
	DefaultLabelScale = 10.0
)

// Indexer computes and memoizes the annotations of each segment.
type Indexer struct {
	spatial    ports.SpatialQuery
	store      ports.AnnotationStore
	resolution float64
	labelScale float64
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithResolution sets the maximum distance between samples.
func WithResolution(r float64) Option {
	return func(ix *Indexer) {
		if r > 0 {
			ix.resolution = r
		}
	}
}

// WithLabelScale sets the multiplier applied to numeric sign values.
func WithLabelScale(s float64) Option {
	return func(ix *Indexer) {
		if s > 0 {
			ix.labelScale = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Indexer) {
		if l != nil {
			ix.logger = l
		}
	}
}

// WithHooks sets the lifecycle hooks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(ix *Indexer) { ix.hooks = h }
}

// New creates an Indexer. spatial may be nil, in which case only grades are sampled.
func New(spatial ports.SpatialQuery, store ports.AnnotationStore, opts ...Option) *Indexer {
	ix := &Indexer{
		spatial:    spatial,
		store:      store,
		resolution: DefaultResolution,
		labelScale: DefaultLabelScale,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Events returns the annotations of seg, ordered by span from its first end.
// The returned slice is shared with the cache and must not be modified.
func (ix *Indexer) Events(ctx context.Context, seg *domain.Segment) []domain.Event {
	if seg == nil {
		return nil
	}
	start := time.Now()

	cached, ok, err := ix.store.Get(ctx, seg.ID)
	if err != nil {
		ix.logger.Warn("annotation cache read failed", "segment", seg.ID, "error", err)
	} else if ok {
		ix.report(ctx, &domain.IndexEvent{Segment: seg.ID, CacheHit: true, Events: len(cached), Duration: time.Since(start)})
		return cached
	}

	events, samples := ix.generate(ctx, seg)
	if err := ix.store.Put(ctx, seg.ID, events); err != nil {
		ix.logger.Warn("annotation cache write failed", "segment", seg.ID, "error", err)
	}

	ix.logger.Debug("segment indexed", "segment", seg.ID, "samples", samples, "events", len(events))
	ix.report(ctx, &domain.IndexEvent{Segment: seg.ID, Samples: samples, Events: len(events), Duration: time.Since(start)})
	return events
}

// InvalidateAll drops every cached annotation list.
func (ix *Indexer) InvalidateAll(ctx context.Context) error {
	if err := ix.store.Clear(ctx); err != nil {
		return err
	}
	ix.logger.Debug("annotation cache cleared")
	if ix.hooks.OnInvalidate != nil {
		ix.hooks.OnInvalidate(ctx)
	}
	return nil
}

func (ix *Indexer) generate(ctx context.Context, seg *domain.Segment) ([]domain.Event, int) {
	total := PolylineLength(seg.Geometry)
	scale := 1.0
	if total > 0 && seg.Length > 0 {
		scale = seg.Length / total
	}

	var events []domain.Event
	samples := 0
	prevGrade := math.NaN()

	for p := range Resample(seg.Geometry, ix.resolution) {
		samples++
		span := p.Span * scale

		if g := GradeOf(p.Forward); g != prevGrade {
			events = append(events, domain.NewGrade(span, true, g), domain.NewGrade(span, false, negate(g)))
			prevGrade = g
		}

		if ix.spatial == nil || p.SpanToNext <= 0 {
			continue
		}
		for _, hit := range ix.spatial.FindLabels(p.Position, p.Forward, p.SpanToNext) {
			hitSpan := (p.Span + hit.Distance) * scale
			parsed, err := ParseLabel(hit.Label, hit.FacingDot < 0, hitSpan, ix.labelScale)
			if err != nil {
				ix.logger.Debug("label rejected", "segment", seg.ID, "span", hitSpan, "error", err)
				if ix.hooks.OnLabelRejected != nil {
					ix.hooks.OnLabelRejected(ctx, &domain.LabelEvent{Segment: seg.ID, Label: hit.Label, Span: hitSpan})
				}
				continue
			}
			events = append(events, parsed...)
		}
	}

	slices.SortStableFunc(events, func(a, b domain.Event) int {
		return cmp.Compare(a.Pos().Span, b.Pos().Span)
	})
	return events, samples
}

func (ix *Indexer) report(ctx context.Context, ev *domain.IndexEvent) {
	if ix.hooks.OnSegmentIndexed != nil {
		ix.hooks.OnSegmentIndexed(ctx, ev)
	}
}

func negate(v float64) float64 {
	if v == 0 {
		return 0
	}
	return -v
}

package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/lookahead/pkg/domain"
)

// Combine fans each hook out to every non-nil callback of hs, in order.
func Combine(hs ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var indexed []func(context.Context, *domain.IndexEvent)
	var rejected []func(context.Context, *domain.LabelEvent)
	var ended []func(context.Context, *domain.TraversalEvent)
	var invalidated []func(context.Context)
	for _, h := range hs {
		if h.OnSegmentIndexed != nil {
			indexed = append(indexed, h.OnSegmentIndexed)
		}
		if h.OnLabelRejected != nil {
			rejected = append(rejected, h.OnLabelRejected)
		}
		if h.OnTraversalEnd != nil {
			ended = append(ended, h.OnTraversalEnd)
		}
		if h.OnInvalidate != nil {
			invalidated = append(invalidated, h.OnInvalidate)
		}
	}

	if len(indexed) > 0 {
		out.OnSegmentIndexed = func(ctx context.Context, e *domain.IndexEvent) {
			for _, fn := range indexed {
				fn(ctx, e)
			}
		}
	}
	if len(rejected) > 0 {
		out.OnLabelRejected = func(ctx context.Context, e *domain.LabelEvent) {
			for _, fn := range rejected {
				fn(ctx, e)
			}
		}
	}
	if len(ended) > 0 {
		out.OnTraversalEnd = func(ctx context.Context, e *domain.TraversalEvent) {
			for _, fn := range ended {
				fn(ctx, e)
			}
		}
	}
	if len(invalidated) > 0 {
		out.OnInvalidate = func(ctx context.Context) {
			for _, fn := range invalidated {
				fn(ctx)
			}
		}
	}
	return out
}

// LogHooks logs every lifecycle event through logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSegmentIndexed: func(ctx context.Context, e *domain.IndexEvent) {
			logger.DebugContext(ctx, "segment_indexed",
				"segment", e.Segment,
				"cache_hit", e.CacheHit,
				"events", e.Events,
				"duration", e.Duration,
			)
		},
		OnLabelRejected: func(ctx context.Context, e *domain.LabelEvent) {
			logger.WarnContext(ctx, "label_rejected", "segment", e.Segment, "label", e.Label, "span", e.Span)
		},
		OnTraversalEnd: func(ctx context.Context, e *domain.TraversalEvent) {
			logger.DebugContext(ctx, "traversal_end",
				"start", e.Start,
				"segments", e.Segments,
				"events", e.Events,
				"capped", e.Capped,
			)
		},
		OnInvalidate: func(ctx context.Context) {
			logger.InfoContext(ctx, "annotations_invalidated")
		},
	}
}

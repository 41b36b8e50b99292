package domain

import (
	"context"
	"time"
)

// IndexEvent reports an annotation lookup for one segment.
type IndexEvent struct {
	Segment  SegmentID     `json:"segment"`
	CacheHit bool          `json:"cache_hit"`
	Samples  int           `json:"samples"`
	Events   int           `json:"events"`
	Duration time.Duration `json:"duration"`
}

// LabelEvent reports a sign label that could not be parsed.
type LabelEvent struct {
	Segment SegmentID `json:"segment"`
	Label   string    `json:"label"`
	Span    float64   `json:"span"`
}

// TraversalEvent reports a finished (or abandoned) traversal.
type TraversalEvent struct {
	Start    SegmentID `json:"start"`
	Segments int       `json:"segments"`
	Events   int       `json:"events"`
	Capped   bool      `json:"capped"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnSegmentIndexed func(context.Context, *IndexEvent)
	OnLabelRejected  func(context.Context, *LabelEvent)
	OnTraversalEnd   func(context.Context, *TraversalEvent)
	OnInvalidate     func(context.Context)
}

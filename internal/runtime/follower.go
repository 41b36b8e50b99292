package runtime

import (
	"context"
	"iter"
	"log/slog"
	"math"

	"github.com/aretw0/lookahead/internal/logging"
	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/ports"
)

// DefaultMaxIterations bounds the number of segments a single traversal may visit.
const DefaultMaxIterations = 100

// Annotations returns the cached, span-ordered annotations of a segment.
type Annotations interface {
	Events(ctx context.Context, seg *domain.Segment) []domain.Event
}

// Follower walks the network from a starting point and streams the events it meets.
type Follower struct {
	network       ports.Network
	annotations   Annotations
	maxIterations int
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
}

// Option configures a Follower.
type Option func(*Follower)

// WithMaxIterations sets the segment cap of a traversal.
func WithMaxIterations(n int) Option {
	return func(f *Follower) {
		if n > 0 {
			f.maxIterations = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Follower) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithHooks sets the lifecycle hooks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(f *Follower) { f.hooks = h }
}

// NewFollower creates a Follower.
func NewFollower(network ports.Network, annotations Annotations, opts ...Option) *Follower {
	f := &Follower{
		network:       network,
		annotations:   annotations,
		maxIterations: DefaultMaxIterations,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Follow starts on seg at offset start and travels distance along the network.
// A positive distance heads towards the last end of seg, a negative one towards the first end.
// Infinite distances are allowed and end at a dead end or at the iteration cap.
//
// Every visited segment contributes a SegmentEntered event followed by all of its annotations
// ahead of the entry point, whatever the remaining distance; callers bound the result with
// pipeline.LimitSpan. Spans are measured from the start and never decrease.
//
// The sequence is lazy: segments are only resolved as far as the consumer reads, and junction
// selection is read at that moment. Ranging over it again restarts the traversal.
func (f *Follower) Follow(ctx context.Context, seg *domain.Segment, start, distance float64) iter.Seq[domain.Event] {
	return func(yield func(domain.Event) bool) {
		if seg == nil {
			return
		}

		report := domain.TraversalEvent{Start: seg.ID}
		defer func() {
			if f.hooks.OnTraversalEnd != nil {
				f.hooks.OnTraversalEnd(ctx, &report)
			}
		}()
		emit := func(ev domain.Event) bool {
			report.Events++
			return yield(ev)
		}

		forward := distance > 0
		remaining := math.Abs(distance)
		if math.IsNaN(remaining) {
			remaining = 0
		}
		cum := 0.0

		for i := 0; ; i++ {
			if i >= f.maxIterations {
				report.Capped = true
				f.logger.Debug("traversal capped", "start", report.Start, "segments", report.Segments, "span", cum)
				return
			}
			report.Segments++

			if !emit(domain.NewSegmentEntered(cum, seg.ID)) {
				return
			}
			for ev := range ahead(f.annotations.Events(ctx, seg), start, forward) {
				if !emit(domain.Offset(ev, cum)) {
					return
				}
			}
			if remaining == 0 {
				return
			}

			var (
				next     domain.Branch
				ok       bool
				junction *domain.Junction
			)
			if forward {
				if start+remaining < seg.Length {
					return
				}
				if next, ok = f.network.OutBranch(seg); !ok || !next.Valid() {
					return
				}
				remaining -= seg.Length - start
				cum += seg.Length - start
				junction = f.network.OutJunction(seg)
			} else {
				if start-remaining >= 0 {
					return
				}
				if next, ok = f.network.InBranch(seg); !ok || !next.Valid() {
					return
				}
				remaining -= start
				cum += start
				junction = f.network.InJunction(seg)
			}

			if junction != nil && junction.In.Segment == seg {
				if !emit(domain.NewJunctionReached(cum, true, junction)) {
					return
				}
			}

			seg = next.Segment
			start = next.EntryOffset()
			forward = next.First
		}
	}
}

// ahead yields the annotations of a segment that lie ahead of start, in travel order,
// with spans relative to start and directions relative to the traveller.
func ahead(events []domain.Event, start float64, forward bool) iter.Seq[domain.Event] {
	return func(yield func(domain.Event) bool) {
		if forward {
			for _, ev := range events {
				if rel := ev.Pos().Span - start; rel >= 0 {
					if !yield(domain.Reoriented(domain.WithSpan(ev, rel), true)) {
						return
					}
				}
			}
			return
		}
		for i := len(events) - 1; i >= 0; i-- {
			ev := events[i]
			if rel := start - ev.Pos().Span; rel >= 0 {
				if !yield(domain.Reoriented(domain.WithSpan(ev, rel), false)) {
					return
				}
			}
		}
	}
}

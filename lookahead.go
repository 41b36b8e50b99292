package lookahead

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"math"

	"github.com/aretw0/lookahead/internal/describe"
	"github.com/aretw0/lookahead/internal/index"
	"github.com/aretw0/lookahead/internal/logging"
	"github.com/aretw0/lookahead/internal/runtime"
	"github.com/aretw0/lookahead/pkg/adapters/memory"
	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/pipeline"
	"github.com/aretw0/lookahead/pkg/ports"
)

// Version is the library version reported by the CLI and the servers.
const Version = "0.4.0"

const (
	// DefaultMaxCount is how many events Upcoming returns when the query does not say.
	DefaultMaxCount = 10
	// DefaultMaxSpan is how far ahead Upcoming looks when the query does not say.
	DefaultMaxSpan = 5000.0
)

// Engine is the high-level entry point of the library.
// It wires the annotation index, the traversal and the description helper over one network.
type Engine struct {
	network   ports.Network
	state     ports.JunctionState
	spatial   ports.SpatialQuery
	store     ports.AnnotationStore
	indexer   *index.Indexer
	follower  *runtime.Follower
	describer *describe.Describer

	resolution    float64
	labelScale    float64
	maxIterations int
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	Name          string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSpatialQuery sets where sign labels come from.
// By default the network is used when it implements ports.SpatialQuery.
func WithSpatialQuery(q ports.SpatialQuery) Option {
	return func(e *Engine) {
		e.spatial = q
	}
}

// WithJunctionState sets where junction selection is read from.
// By default the network is used when it implements ports.JunctionState.
func WithJunctionState(s ports.JunctionState) Option {
	return func(e *Engine) {
		e.state = s
	}
}

// WithAnnotationStore replaces the in-memory annotation cache.
func WithAnnotationStore(s ports.AnnotationStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithResolution sets the maximum distance between centerline samples.
func WithResolution(r float64) Option {
	return func(e *Engine) {
		e.resolution = r
	}
}

// WithLabelScale sets the multiplier applied to numeric sign values.
func WithLabelScale(s float64) Option {
	return func(e *Engine) {
		e.labelScale = s
	}
}

// WithMaxIterations caps the number of segments a traversal may visit.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		e.maxIterations = n
	}
}

// WithName labels the engine; the name is added to every log line.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New initializes an engine over network.
func New(network ports.Network, opts ...Option) (*Engine, error) {
	if network == nil {
		return nil, fmt.Errorf("network is required")
	}
	eng := &Engine{network: network}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.state == nil {
		state, ok := network.(ports.JunctionState)
		if !ok {
			return nil, fmt.Errorf("network does not expose junction state; use WithJunctionState")
		}
		eng.state = state
	}
	if eng.spatial == nil {
		if q, ok := network.(ports.SpatialQuery); ok {
			eng.spatial = q
		}
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("network", eng.Name)
	}

	eng.indexer = index.New(eng.spatial, eng.store,
		index.WithResolution(eng.resolution),
		index.WithLabelScale(eng.labelScale),
		index.WithHooks(eng.hooks),
		index.WithLogger(eng.logger),
	)
	eng.follower = runtime.NewFollower(eng.network, eng.indexer,
		runtime.WithMaxIterations(eng.maxIterations),
		runtime.WithHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	)
	eng.describer = describe.New(eng.network)

	return eng, nil
}

// Query describes an Upcoming request.
type Query struct {
	Segment  domain.SegmentID `json:"segment"`
	Offset   float64          `json:"offset"`
	Backward bool             `json:"backward,omitempty"`
	// MaxCount defaults to DefaultMaxCount.
	MaxCount int `json:"max_count,omitempty"`
	// MaxSpan defaults to DefaultMaxSpan.
	MaxSpan float64 `json:"max_span,omitempty"`
}

func (q Query) withDefaults() Query {
	if q.MaxCount <= 0 {
		q.MaxCount = DefaultMaxCount
	}
	if q.MaxSpan <= 0 || math.IsNaN(q.MaxSpan) {
		q.MaxSpan = DefaultMaxSpan
	}
	return q
}

// Follow returns every raw event met while travelling distance from offset on a segment.
// The sequence is lazy and restartable. See runtime.Follower.Follow for the exact contract.
func (e *Engine) Follow(ctx context.Context, id domain.SegmentID, offset, distance float64) (iter.Seq[domain.Event], error) {
	seg, err := e.locate(id, offset)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(distance) {
		return nil, fmt.Errorf("distance is not a number")
	}
	return e.follower.Follow(ctx, seg, offset, distance), nil
}

// Upcoming returns what a driver should be shown: named segment boundaries, junctions, speed
// limits with dual limits resolved against the live selection, and grade changes, all applying
// in the direction of travel, deduplicated and bounded by the query.
func (e *Engine) Upcoming(ctx context.Context, q Query) (iter.Seq[domain.Event], error) {
	q = q.withDefaults()
	distance := q.MaxSpan
	if q.Backward {
		distance = -distance
	}
	raw, err := e.Follow(ctx, q.Segment, q.Offset, distance)
	if err != nil {
		return nil, err
	}

	current, ok, err := e.GradeBehind(ctx, q.Segment, q.Offset, !q.Backward)
	if err != nil {
		return nil, err
	}
	if !ok {
		current = math.NaN()
	}

	return pipeline.Apply(raw, e.Stages(current, q.MaxCount, q.MaxSpan)...), nil
}

// Stages returns the canonical display pipeline.
func (e *Engine) Stages(currentGrade float64, maxCount int, maxSpan float64) []pipeline.Stage {
	return []pipeline.Stage{
		pipeline.DropUnnamedSegmentBoundaries(e.network.IsGeneric),
		pipeline.ResolveDualSpeedLimits(e.state),
		pipeline.ForwardOnly(),
		pipeline.DropRedundantSpeedLimits(),
		pipeline.DropRedundantGradesFrom(currentGrade),
		pipeline.LimitCount(maxCount),
		pipeline.LimitSpan(maxSpan),
	}
}

// GradeBehind returns the grade a traveller at offset heading forward (or not) is currently on,
// by looking back for the last grade change. The bool is false when there is none behind.
func (e *Engine) GradeBehind(ctx context.Context, id domain.SegmentID, offset float64, forward bool) (float64, bool, error) {
	var value float64
	found, err := e.behind(ctx, id, offset, forward, func(ev domain.Event) bool {
		g, ok := ev.(domain.Grade)
		if ok {
			value = g.Value
		}
		return ok
	})
	return value, found, err
}

// SpeedLimitBehind returns the last speed limit posted behind a traveller, for its direction.
func (e *Engine) SpeedLimitBehind(ctx context.Context, id domain.SegmentID, offset float64, forward bool) (float64, bool, error) {
	var value float64
	found, err := e.behind(ctx, id, offset, forward, func(ev domain.Event) bool {
		sl, ok := ev.(domain.SpeedLimit)
		if ok {
			value = sl.Value
		}
		return ok
	})
	return value, found, err
}

// behind walks backwards from the traveller and stops at the first event that applies to it.
// Seen from behind, such events point against the walk.
func (e *Engine) behind(ctx context.Context, id domain.SegmentID, offset float64, forward bool, match func(domain.Event) bool) (bool, error) {
	distance := math.Inf(-1)
	if !forward {
		distance = math.Inf(1)
	}
	seq, err := e.Follow(ctx, id, offset, distance)
	if err != nil {
		return false, err
	}
	for ev := range seq {
		if !ev.Pos().Direction && match(ev) {
			return true, nil
		}
	}
	return false, nil
}

// Annotations returns the cached annotations of a segment, ordered by span from its first end.
func (e *Engine) Annotations(ctx context.Context, id domain.SegmentID) ([]domain.Event, error) {
	seg, ok := e.network.Segment(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, domain.ErrUnknownSegment)
	}
	return e.indexer.Events(ctx, seg), nil
}

// InvalidateAll drops every cached annotation and branch description.
// Call it whenever geometry or topology changes.
func (e *Engine) InvalidateAll(ctx context.Context) error {
	e.describer.Reset()
	if err := e.indexer.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("failed to invalidate annotations: %w", err)
	}
	e.logger.Info("caches invalidated")
	return nil
}

// Watch invalidates the caches every time stream signals a geometry load, until ctx is done.
func (e *Engine) Watch(ctx context.Context, stream ports.GeometryStream) error {
	signals, err := stream.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch geometry: %w", err)
	}
	go func() {
		for range signals {
			if err := e.InvalidateAll(ctx); err != nil {
				e.logger.Error("invalidation failed", "error", err)
			}
		}
	}()
	return nil
}

// DescribeBranch names a branch after the closest named segment it leads to.
func (e *Engine) DescribeBranch(b domain.Branch) (domain.SegmentID, bool) {
	return e.describer.Describe(b)
}

// DescribeJunction names both out branches of a junction and reads its live selection.
func (e *Engine) DescribeJunction(j *domain.Junction) domain.JunctionDescription {
	return e.describer.DescribeJunction(j, e.state)
}

// DescribeJunctionByID is DescribeJunction for a junction looked up by ID.
func (e *Engine) DescribeJunctionByID(id string) (domain.JunctionDescription, error) {
	j, ok := e.network.Junction(id)
	if !ok {
		return domain.JunctionDescription{}, fmt.Errorf("%s: %w", id, domain.ErrUnknownJunction)
	}
	return e.DescribeJunction(j), nil
}

// Network returns the network the engine reads.
func (e *Engine) Network() ports.Network {
	return e.network
}

// JunctionState returns where junction selection is read from.
func (e *Engine) JunctionState() ports.JunctionState {
	return e.state
}

func (e *Engine) locate(id domain.SegmentID, offset float64) (*domain.Segment, error) {
	seg, ok := e.network.Segment(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, domain.ErrUnknownSegment)
	}
	if math.IsNaN(offset) || offset < 0 || offset > seg.Length {
		return nil, fmt.Errorf("offset %v on %s (length %v): %w", offset, id, seg.Length, domain.ErrOffsetOutOfRange)
	}
	return seg, nil
}

package lookahead_test

import (
	"context"
	"math"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/lookahead"
	"github.com/aretw0/lookahead/pkg/adapters/memory"
	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/dsl"
	"github.com/aretw0/lookahead/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioBuilder() *dsl.Builder {
	b := dsl.New()
	b.Segment("A", 500).Sign(400, "6\n10", dsl.Forward).Sign(100, "8", dsl.Forward)
	b.Segment("B", 300).Grade(1.5)
	b.Segment("C", 300)
	b.Junction("J").In("A", dsl.Last).Out("B", dsl.First).Out("C", dsl.First)
	return b
}

func scenario(t *testing.T) *memory.Network {
	t.Helper()
	net, err := scenarioBuilder().Build()
	require.NoError(t, err)
	return net
}

func upcoming(t *testing.T, eng *lookahead.Engine, q lookahead.Query) []domain.Event {
	t.Helper()
	seq, err := eng.Upcoming(context.Background(), q)
	require.NoError(t, err)
	return slices.Collect(seq)
}

func TestEngine_DualLimitFollowsSelection(t *testing.T) {
	net := scenario(t)
	eng, err := lookahead.New(net)
	require.NoError(t, err)

	seq, err := eng.Follow(context.Background(), "A", 0, 900)
	require.NoError(t, err)
	resolved := slices.Collect(seq)
	resolved = slices.Collect(eng.Stages(math.NaN(), 100, 900)[1](slices.Values(resolved)))

	var limit *domain.SpeedLimit
	var enteredB *domain.SegmentEntered
	for _, ev := range resolved {
		switch e := ev.(type) {
		case domain.SpeedLimit:
			if math.Abs(e.Span-400) < 1e-6 {
				limit = &e
			}
		case domain.SegmentEntered:
			if e.Segment == "B" {
				enteredB = &e
			}
		case domain.DualSpeedLimit:
			t.Fatalf("dual limit left unresolved: %v", e)
		}
	}
	require.NotNil(t, limit)
	assert.Equal(t, 60.0, limit.Value)
	require.NotNil(t, enteredB)
	assert.Equal(t, 500.0, enteredB.Span)

	require.NoError(t, net.Throw("J"))
	events := upcoming(t, eng, lookahead.Query{Segment: "A"})
	var values []float64
	for _, ev := range events {
		if sl, ok := ev.(domain.SpeedLimit); ok {
			values = append(values, sl.Value)
		}
	}
	assert.Equal(t, []float64{80, 100}, values)
}

func TestEngine_Upcoming(t *testing.T) {
	eng, err := lookahead.New(scenario(t))
	require.NoError(t, err)

	events := upcoming(t, eng, lookahead.Query{Segment: "A"})
	require.Len(t, events, 6)
	assert.Equal(t, domain.NewSegmentEntered(0, "A"), events[0])
	assert.Equal(t, domain.KindSpeedLimit, events[1].Kind())
	assert.Equal(t, domain.KindSpeedLimit, events[2].Kind())
	assert.Equal(t, domain.KindJunctionReached, events[3].Kind())
	assert.Equal(t, domain.NewSegmentEntered(500, "B"), events[4])
	assert.Equal(t, domain.NewGrade(500, true, 1.5), events[5])

	for _, ev := range events {
		assert.True(t, ev.Pos().Direction)
	}

	assert.Len(t, upcoming(t, eng, lookahead.Query{Segment: "A", MaxCount: 2}), 2)
	assert.Len(t, upcoming(t, eng, lookahead.Query{Segment: "A", MaxSpan: 450}), 3)
}

func TestEngine_UpcomingBackward(t *testing.T) {
	eng, err := lookahead.New(scenario(t))
	require.NoError(t, err)

	events := upcoming(t, eng, lookahead.Query{Segment: "B", Offset: 200, Backward: true})
	require.NotEmpty(t, events)
	assert.Equal(t, domain.NewSegmentEntered(0, "B"), events[0])

	var sawA bool
	for _, ev := range events {
		if se, ok := ev.(domain.SegmentEntered); ok && se.Segment == "A" {
			sawA = true
			assert.Equal(t, 200.0, se.Span)
		}
		assert.NotEqual(t, domain.KindSpeedLimit, ev.Kind(), "forward-facing signs are not readable backwards")
	}
	assert.True(t, sawA)
}

func TestEngine_LookBehind(t *testing.T) {
	eng, err := lookahead.New(scenario(t))
	require.NoError(t, err)
	ctx := context.Background()

	limit, ok, err := eng.SpeedLimitBehind(ctx, "A", 250, true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 80.0, limit)

	_, ok, err = eng.SpeedLimitBehind(ctx, "A", 50, true)
	require.NoError(t, err)
	assert.False(t, ok)

	grade, ok, err := eng.GradeBehind(ctx, "B", 100, true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.5, grade)

	grade, ok, err = eng.GradeBehind(ctx, "A", 500, false)
	require.NoError(t, err)
	require.True(t, ok, "heading back onto A from the junction, the grade of B is behind")
	assert.Equal(t, -1.5, grade)
}

func TestEngine_Errors(t *testing.T) {
	eng, err := lookahead.New(scenario(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Follow(ctx, "nope", 0, 10)
	assert.ErrorIs(t, err, domain.ErrUnknownSegment)

	_, err = eng.Follow(ctx, "A", 501, 10)
	assert.ErrorIs(t, err, domain.ErrOffsetOutOfRange)

	_, err = eng.Follow(ctx, "A", -1, 10)
	assert.ErrorIs(t, err, domain.ErrOffsetOutOfRange)

	_, err = eng.Follow(ctx, "A", 0, math.NaN())
	assert.Error(t, err)

	_, err = eng.Upcoming(ctx, lookahead.Query{Segment: "nope"})
	assert.ErrorIs(t, err, domain.ErrUnknownSegment)

	_, err = eng.Annotations(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownSegment)

	_, err = eng.DescribeJunctionByID("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownJunction)

	_, err = lookahead.New(nil)
	assert.Error(t, err)

	_, err = lookahead.New(struct{ ports.Network }{scenario(t)})
	assert.Error(t, err, "a bare network needs WithJunctionState")
}

type countingQuery struct {
	inner ports.SpatialQuery
	calls atomic.Int64
}

func (q *countingQuery) FindLabels(origin, direction domain.Vec3, maxDistance float64) []domain.LabelHit {
	q.calls.Add(1)
	return q.inner.FindLabels(origin, direction, maxDistance)
}

func TestEngine_InvalidateAndWatch(t *testing.T) {
	net := scenario(t)
	q := &countingQuery{inner: net}
	var invalidations atomic.Int64
	eng, err := lookahead.New(net,
		lookahead.WithSpatialQuery(q),
		lookahead.WithName("test"),
		lookahead.WithLifecycleHooks(domain.LifecycleHooks{
			OnInvalidate: func(context.Context) { invalidations.Add(1) },
		}),
	)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := eng.Annotations(ctx, "A")
	require.NoError(t, err)
	calls := q.calls.Load()

	second, err := eng.Annotations(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, calls, q.calls.Load())

	stream := memory.NewStream()
	require.NoError(t, eng.Watch(ctx, stream))
	stream.Notify()

	assert.Eventually(t, func() bool { return invalidations.Load() == 1 }, time.Second, 5*time.Millisecond)
	_, err = eng.Annotations(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2*calls, q.calls.Load())
}

func TestEngine_DescribeJunction(t *testing.T) {
	b := scenarioBuilder()
	b.Segment("Yard B", 100).Bare()
	b.Segment("Yard C", 100).Bare()
	b.Link("B", dsl.Last, "Yard B", dsl.First)
	b.Link("C", dsl.Last, "Yard C", dsl.First)
	net, err := b.Build()
	require.NoError(t, err)
	eng, err := lookahead.New(net)
	require.NoError(t, err)

	desc, err := eng.DescribeJunctionByID("J")
	require.NoError(t, err)
	assert.Equal(t, "Yard B <<< Yard C", desc.String())

	require.NoError(t, net.Throw("J"))
	j, _ := net.Junction("J")
	assert.Equal(t, "Yard B >>> Yard C", eng.DescribeJunction(j).String())

	a, _ := net.Segment("A")
	id, ok := eng.DescribeBranch(domain.Branch{Segment: a, First: true})
	assert.True(t, ok)
	assert.Equal(t, domain.SegmentID("B"), id, "entering A at its first end leads through J")
	_, ok = eng.DescribeBranch(domain.Branch{Segment: a, First: false})
	assert.False(t, ok, "nothing lies past the first end of A")

	unnamed, err := lookahead.New(scenario(t))
	require.NoError(t, err)
	desc, err = unnamed.DescribeJunctionByID("J")
	require.NoError(t, err)
	assert.Equal(t, "<<<", desc.String(), "nothing named lies beyond B or C")
}

func TestEngine_Options(t *testing.T) {
	b := dsl.New()
	b.Segment("A", 100)
	b.Segment("B", 100)
	b.Link("A", dsl.Last, "B", dsl.First)
	b.Link("B", dsl.Last, "A", dsl.First)
	net, err := b.Build()
	require.NoError(t, err)

	var report domain.TraversalEvent
	eng, err := lookahead.New(net,
		lookahead.WithMaxIterations(5),
		lookahead.WithResolution(5),
		lookahead.WithLabelScale(1),
		lookahead.WithAnnotationStore(memory.NewStore()),
		lookahead.WithJunctionState(net),
		lookahead.WithLifecycleHooks(domain.LifecycleHooks{
			OnTraversalEnd: func(_ context.Context, ev *domain.TraversalEvent) { report = *ev },
		}),
	)
	require.NoError(t, err)
	assert.Same(t, net, eng.Network())
	assert.Same(t, net, eng.JunctionState())

	seq, err := eng.Follow(context.Background(), "A", 0, math.Inf(1))
	require.NoError(t, err)
	_ = slices.Collect(seq)
	assert.True(t, report.Capped)
	assert.Equal(t, 5, report.Segments)
}

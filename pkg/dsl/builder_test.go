package dsl

import (
	"testing"

	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Wye(t *testing.T) {
	b := New()
	b.Segment("A", 500).Sign(400, "6\n10", Forward)
	b.Segment("B", 300)
	b.Segment("C", 300)
	b.Junction("J").In("A", Last).Out("B", First).Out("C", First).Select(1)

	net, err := b.Build()
	require.NoError(t, err)

	a, ok := net.Segment("A")
	require.True(t, ok)
	assert.Equal(t, 500.0, a.Length)
	require.Len(t, a.Geometry, 2)
	assert.InDelta(t, 500.0, a.Geometry[1].X, 1e-9)

	j, ok := net.Junction("J")
	require.True(t, ok)
	assert.Equal(t, 1, net.SelectedBranch(j))

	out, ok := net.OutBranch(a)
	require.True(t, ok)
	assert.Equal(t, domain.SegmentID("C"), out.Segment.ID)

	signs := net.Signs()
	require.Len(t, signs, 1)
	assert.InDelta(t, 400.0, signs[0].Position.X, 1e-9)
	assert.Less(t, signs[0].Facing.X, 0.0, "forward signs face against the segment orientation")
}

func TestBuilder_GeneratedNames(t *testing.T) {
	b := New()
	first := b.Segment("", 10)
	second := b.Segment("", 10)
	assert.Equal(t, "#1", first.ID())
	assert.Equal(t, "#2", second.ID())
	assert.Same(t, first, b.Segment("#1", 99))

	b.Link(first.ID(), Last, second.ID(), First)
	net, err := b.Build()
	require.NoError(t, err)
	assert.True(t, net.IsGeneric("#1"))
	assert.Len(t, net.Links(), 1)
}

func TestBuilder_GradeProfile(t *testing.T) {
	b := New()
	b.Segment("A", 100).Grade(2).GradeFrom(50, -1)

	net, err := b.Build()
	require.NoError(t, err)
	a, _ := net.Segment("A")
	require.Len(t, a.Geometry, 3)
	assert.InDelta(t, 1.0, a.Geometry[1].Y, 1e-9)
	assert.InDelta(t, 0.5, a.Geometry[2].Y, 1e-9)
}

func TestBuilder_Bare(t *testing.T) {
	b := New()
	b.Segment("A", 100).Bare()
	net, err := b.Build()
	require.NoError(t, err)
	a, _ := net.Segment("A")
	assert.Empty(t, a.Geometry)
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("sign outside segment", func(t *testing.T) {
		b := New()
		b.Segment("A", 100).Sign(100, "8", Forward)
		_, err := b.Build()
		assert.Error(t, err)
	})

	t.Run("unknown segment", func(t *testing.T) {
		b := New()
		b.Segment("A", 100)
		b.Junction("J").In("A", Last).Out("X", First).Out("A", First)
		_, err := b.Build()
		assert.ErrorIs(t, err, domain.ErrUnknownSegment)
	})

	t.Run("incomplete junction", func(t *testing.T) {
		b := New()
		b.Segment("A", 100)
		b.Junction("J").In("A", Last)
		_, err := b.Build()
		assert.Error(t, err)
	})

	t.Run("too many out branches", func(t *testing.T) {
		b := New()
		b.Segment("A", 100)
		b.Junction("J").In("A", Last).Out("A", First).Out("A", First).Out("A", First)
		_, err := b.Build()
		assert.Error(t, err)
	})
}

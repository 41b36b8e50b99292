package tests

import (
	"context"
	"testing"

	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAnnotationStoreContract is a reusable test suite that verifies if an adapter complies with
// ports.AnnotationStore. The store must start empty.
func RunAnnotationStoreContract(t *testing.T, store ports.AnnotationStore) {
	t.Helper()
	ctx := context.Background()

	events := []domain.Event{
		domain.NewGrade(0, true, 0.5),
		domain.NewGrade(0, false, -0.5),
		domain.NewSpeedLimit(120.5, true, 60),
		domain.NewDualSpeedLimit(400, true, 60, 100),
	}

	t.Run("Miss", func(t *testing.T) {
		got, ok, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, got)
	})

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "A", events))

		got, ok, err := store.Get(ctx, "A")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, events, got)
	})

	t.Run("Empty list is a hit", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "bare", nil))

		got, ok, err := store.Get(ctx, "bare")
		require.NoError(t, err)
		assert.True(t, ok, "a segment without signs must still be cached")
		assert.Empty(t, got)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "B", events[:1]))
		require.NoError(t, store.Clear(ctx))

		for _, id := range []domain.SegmentID{"A", "B", "bare"} {
			_, ok, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.False(t, ok, "segment %s should be gone after Clear", id)
		}
	})
}

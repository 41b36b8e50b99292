package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/lookahead/pkg/adapters/memory"
	"github.com/aretw0/lookahead/pkg/domain"
	contract "github.com/aretw0/lookahead/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	contract.RunAnnotationStoreContract(t, memory.NewStore())
}

func TestStore_PutCopiesInput(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	events := []domain.Event{domain.NewSpeedLimit(10, true, 60)}
	require.NoError(t, store.Put(ctx, "A", events))
	events[0] = domain.NewSpeedLimit(10, true, 999)

	got, ok, err := store.Get(ctx, "A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.NewSpeedLimit(10, true, 60), got[0])
}

func TestStore_Concurrency(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.SegmentID(rune('a' + i%26))
			_ = store.Put(ctx, id, []domain.Event{domain.NewGrade(0, true, float64(i))})
			_, _, _ = store.Get(ctx, id)
			if i%10 == 0 {
				_ = store.Clear(ctx)
			}
		}(i)
	}
	wg.Wait()

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Len())
}

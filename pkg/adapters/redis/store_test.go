package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lookahead/pkg/adapters/redis"
	"github.com/aretw0/lookahead/pkg/domain"
	contract "github.com/aretw0/lookahead/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newStore(t)
	contract.RunAnnotationStoreContract(t, store)
}

func TestRedisStore_Prefix(t *testing.T) {
	store, mr := newStore(t, redis.WithPrefix("world1:"))
	require.NoError(t, store.Put(context.Background(), "A", []domain.Event{domain.NewSpeedLimit(1, true, 60)}))

	assert.True(t, mr.Exists("world1:A"))
	members, err := mr.Members("world1:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, members)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	store, mr := newStore(t, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "A", []domain.Event{domain.NewGrade(0, true, 1)}))
	_, ok, err := store.Get(ctx, "A")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = store.Get(ctx, "A")
	require.NoError(t, err)
	assert.False(t, ok, "expired segments are recomputed")
}

func TestRedisStore_CorruptEntry(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, mr.Set(redis.DefaultPrefix+"A", "not json"))

	_, _, err := store.Get(context.Background(), "A")
	assert.Error(t, err)

	require.NoError(t, mr.Set(redis.DefaultPrefix+"B", `[{"kind":"junction_reached","span":1}]`))
	_, _, err = store.Get(context.Background(), "B")
	assert.ErrorIs(t, err, domain.ErrNotStorable)
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := newStore(t)
	mr.Close()

	_, _, err := store.Get(context.Background(), "A")
	assert.Error(t, err)
	assert.Error(t, store.Put(context.Background(), "A", nil))
	assert.Error(t, store.Clear(context.Background()))
}

package cache_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger/internal/infrastructure/cache"
	"github.com/jhoicas/stockledger/pkg/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := cache.New(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNew_UnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := cache.New(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestIdempotencyStore_Lifecycle(t *testing.T) {
	mr, client := newRedis(t)
	store := cache.NewIdempotencyStore(client, "test:idem", time.Minute)
	ctx := context.Background()

	stored, err := store.Begin(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, stored, "primera reserva no tiene respuesta previa")
	assert.True(t, mr.Exists("test:idem:k1"))

	_, err = store.Begin(ctx, "k1")
	assert.ErrorIs(t, err, cache.ErrRequestInProgress)

	require.NoError(t, store.Complete(ctx, "k1", 200, []byte(`{"ok":true}`)))
	stored, err = store.Begin(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 200, stored.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(stored.Body))

	mr.FastForward(2 * time.Minute)
	stored, err = store.Begin(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, stored, "la clave expira con el ttl")
}

func TestIdempotencyStore_Release(t *testing.T) {
	_, client := newRedis(t)
	store := cache.NewIdempotencyStore(client, "test:idem", time.Minute)
	ctx := context.Background()

	_, err := store.Begin(ctx, "k2")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k2"))

	stored, err := store.Begin(ctx, "k2")
	require.NoError(t, err)
	assert.Nil(t, stored, "tras liberar se puede reintentar")
}

func TestLocker_WithLock(t *testing.T) {
	mr, client := newRedis(t)
	locker := cache.NewLocker(client)
	ctx := context.Background()

	var ran atomic.Int32
	err := locker.WithLock(ctx, "test:lock", time.Minute, func(ctx context.Context) error {
		ran.Add(1)
		assert.True(t, mr.Exists("test:lock"))

		// Un segundo intento mientras se tiene el candado no ejecuta fn.
		inner := locker.WithLock(ctx, "test:lock", time.Minute, func(context.Context) error {
			ran.Add(10)
			return nil
		})
		assert.ErrorIs(t, inner, cache.ErrLockHeld)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), ran.Load())
	assert.False(t, mr.Exists("test:lock"), "el candado se libera al terminar")

	require.NoError(t, locker.WithLock(ctx, "test:lock", time.Minute, func(context.Context) error { return nil }))
}

func TestLocker_RefreshesWhileRunning(t *testing.T) {
	mr, client := newRedis(t)
	locker := cache.NewLocker(client)

	err := locker.WithLock(context.Background(), "test:lease", 300*time.Millisecond, func(ctx context.Context) error {
		mr.FastForward(200 * time.Millisecond)
		time.Sleep(250 * time.Millisecond)
		mr.FastForward(200 * time.Millisecond)
		assert.True(t, mr.Exists("test:lease"), "el candado sigue vivo pasado su ttl original")
		return ctx.Err()
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:lease"))
}

func TestLocker_CancelsWhenLeaseIsLost(t *testing.T) {
	mr, client := newRedis(t)
	locker := cache.NewLocker(client)

	err := locker.WithLock(context.Background(), "test:lease", 150*time.Millisecond, func(ctx context.Context) error {
		mr.Del("test:lease")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return nil
		}
	})
	assert.ErrorIs(t, err, cache.ErrLockLost)
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockHeld el candado lo tiene otro proceso.
	ErrLockHeld = errors.New("cache: candado ocupado")
	// ErrLockLost el candado expiró o lo tomó otro proceso mientras fn corría.
	ErrLockLost = errors.New("cache: candado perdido")
)

// Locker candado distribuido de un solo intento (sin reintentos) sobre redislock.
type Locker struct {
	client *redislock.Client
}

// NewLocker construye el locker sobre el cliente Redis.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: redislock.New(client)}
}

// WithLock ejecuta fn solo si obtiene el candado key; lo libera al terminar.
// Si otro proceso lo tiene devuelve ErrLockHeld sin ejecutar fn.
// Mientras fn corre el candado se renueva cada ttl/3; si la renovación falla se cancela el ctx de fn.
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return ErrLockHeld
	}
	if err != nil {
		return fmt.Errorf("cache: obtener candado %s: %w", key, err)
	}
	defer func() { _ = lock.Release(context.WithoutCancel(ctx)) }()

	fnCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	done := make(chan struct{})
	defer close(done)
	go l.keepAlive(fnCtx, lock, ttl, done, cancel)

	err = fn(fnCtx)
	if cause := context.Cause(fnCtx); errors.Is(cause, ErrLockLost) {
		return fmt.Errorf("%w: %s", ErrLockLost, key)
	}
	return err
}

func (l *Locker) keepAlive(ctx context.Context, lock *redislock.Lock, ttl time.Duration, done <-chan struct{}, cancel context.CancelCauseFunc) {
	interval := ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Refresh(ctx, ttl, nil); err != nil {
				cancel(fmt.Errorf("%w: %v", ErrLockLost, err))
				return
			}
		}
	}
}

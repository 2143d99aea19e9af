package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/infrastructure/cache"
)

// ReconcileLockKey candado que garantiza un solo barrido a la vez entre réplicas del worker.
const ReconcileLockKey = "stockledger:lock:reconcile_sweep"

// Reconciler lo implementa inventory.QueryUseCase.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (*inventory.ReconcileReport, error)
}

// Locker lo implementa cache.Locker.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// ReconcileHandler procesa TaskReconcileSweep.
type ReconcileHandler struct {
	reconciler Reconciler
	locker     Locker
	lockTTL    time.Duration
	log        zerolog.Logger
}

// NewReconcileHandler construye el handler. locker puede ser nil (una sola réplica).
func NewReconcileHandler(reconciler Reconciler, locker Locker, lockTTL time.Duration, log zerolog.Logger) *ReconcileHandler {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &ReconcileHandler{
		reconciler: reconciler,
		locker:     locker,
		lockTTL:    lockTTL,
		log:        log.With().Str("job", TaskReconcileSweep).Logger(),
	}
}

// ProcessTask implementa asynq.Handler.
func (h *ReconcileHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ReconcileSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("payload inválido: %v: %w", err, asynq.SkipRetry)
		}
	}
	log := h.log.With().Str("request_id", payload.RequestID).Int64("requested_by", payload.RequestedBy).Logger()

	run := func(ctx context.Context) error {
		report, err := h.reconciler.ReconcileAll(ctx)
		if err != nil {
			return err
		}
		for _, d := range report.Discrepancies {
			log.Error().
				Int64("product_id", d.ProductID).
				Int64("location_id", d.LocationID).
				Str("level", d.Level.String()).
				Str("ledger_sum", d.LedgerSum.String()).
				Msg("descuadre detectado")
		}
		return nil
	}

	if h.locker == nil {
		return run(ctx)
	}
	err := h.locker.WithLock(ctx, ReconcileLockKey, h.lockTTL, run)
	if errors.Is(err, cache.ErrLockHeld) {
		log.Info().Msg("barrido en curso en otra réplica, se omite")
		return nil
	}
	return err
}

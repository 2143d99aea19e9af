package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// Paginación de listados.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500

	reconcilePageSize       = 500
	defaultReconcileWorkers = 4
)

// LedgerPage página del historial de movimientos (más reciente primero).
type LedgerPage struct {
	Entries []*entity.StockLedgerEntry
	Limit   int
	Offset  int
	HasMore bool
}

// Discrepancy par cuyo saldo no coincide con la suma del libro.
type Discrepancy struct {
	ProductID  int64
	LocationID int64
	Level      decimal.Decimal
	LedgerSum  decimal.Decimal
}

// ReconcileReport resultado de un barrido completo de conciliación.
type ReconcileReport struct {
	Checked       int
	Discrepancies []Discrepancy
	StartedAt     time.Time
	FinishedAt    time.Time
}

// QueryUseCase consultas de stock y libro de movimientos (solo lectura).
type QueryUseCase struct {
	txRunner    TxRunner
	documents   repository.DocumentRepository
	levels      repository.StockLevelRepository
	ledger      repository.StockLedgerRepository
	observer    PostingObserver
	log         zerolog.Logger
	concurrency int
}

// NewQueryUseCase construye el caso de uso. concurrency acota el barrido de ReconcileAll.
func NewQueryUseCase(
	txRunner TxRunner,
	documents repository.DocumentRepository,
	levels repository.StockLevelRepository,
	ledger repository.StockLedgerRepository,
	observer PostingObserver,
	log zerolog.Logger,
	concurrency int,
) *QueryUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	if concurrency <= 0 {
		concurrency = defaultReconcileWorkers
	}
	return &QueryUseCase{
		txRunner:    txRunner,
		documents:   documents,
		levels:      levels,
		ledger:      ledger,
		observer:    observer,
		log:         log.With().Str("component", "queries").Logger(),
		concurrency: concurrency,
	}
}

// CurrentStock lee stock_levels directamente. Con ubicación y sin fila devuelve un nivel en cero.
func (uc *QueryUseCase) CurrentStock(ctx context.Context, productID int64, locationID *int64) ([]*entity.StockLevel, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	if locationID != nil {
		lvl, err := uc.levels.Get(ctx, productID, *locationID)
		if err != nil {
			return nil, fmt.Errorf("get stock level: %w", err)
		}
		return []*entity.StockLevel{lvl}, nil
	}
	levels, err := uc.levels.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	return levels, nil
}

// MovementHistory historial del libro para un producto, del más reciente al más antiguo.
func (uc *QueryUseCase) MovementHistory(ctx context.Context, filter entity.LedgerFilter) (*LedgerPage, error) {
	if filter.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	limit := filter.Limit
	filter.Limit = limit + 1

	entries, err := uc.ledger.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	page := &LedgerPage{Limit: limit, Offset: filter.Offset}
	if len(entries) > limit {
		entries = entries[:limit]
		page.HasMore = true
	}
	page.Entries = entries
	return page, nil
}

// DocumentMovements filas del libro generadas por un documento.
func (uc *QueryUseCase) DocumentMovements(ctx context.Context, documentID int64) ([]*entity.StockLedgerEntry, error) {
	doc, err := uc.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: documento %d", domain.ErrNotFound, documentID)
	}
	entries, err := uc.ledger.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return entries, nil
}

// Reconcile compara la suma del libro con el saldo de stock_levels para un par.
func (uc *QueryUseCase) Reconcile(ctx context.Context, productID, locationID int64) (bool, error) {
	if productID <= 0 || locationID <= 0 {
		return false, fmt.Errorf("%w: product_id y location_id requeridos", domain.ErrInvalidInput)
	}
	d, err := uc.reconcilePair(ctx, productID, locationID)
	if err != nil {
		return false, err
	}
	if d != nil {
		uc.log.Warn().
			Int64("product_id", productID).
			Int64("location_id", locationID).
			Str("level", d.Level.String()).
			Str("ledger_sum", d.LedgerSum.String()).
			Msg("descuadre entre stock y libro")
		return false, nil
	}
	return true, nil
}

// ReconcileAll concilia todos los pares existentes con paralelismo acotado.
func (uc *QueryUseCase) ReconcileAll(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{StartedAt: time.Now().UTC()}
	var mu sync.Mutex

	var afterProduct, afterLocation int64
	for {
		levels, err := uc.levels.ListAfter(ctx, afterProduct, afterLocation, reconcilePageSize)
		if err != nil {
			return nil, fmt.Errorf("list stock levels: %w", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(uc.concurrency)
		for _, lvl := range levels {
			lvl := lvl
			g.Go(func() error {
				d, err := uc.reconcilePair(gctx, lvl.ProductID, lvl.LocationID)
				if err != nil {
					return err
				}
				mu.Lock()
				report.Checked++
				if d != nil {
					report.Discrepancies = append(report.Discrepancies, *d)
				}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if len(levels) < reconcilePageSize {
			break
		}
		last := levels[len(levels)-1]
		afterProduct, afterLocation = last.ProductID, last.LocationID
	}

	report.FinishedAt = time.Now().UTC()
	uc.observer.ReconcileCompleted(report.Checked, len(report.Discrepancies))
	ev := uc.log.Info()
	if len(report.Discrepancies) > 0 {
		ev = uc.log.Error()
	}
	ev.Int("checked", report.Checked).
		Int("discrepancies", len(report.Discrepancies)).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("conciliación completa")
	return report, nil
}

// reconcilePair lee saldo y suma del libro sobre la misma foto; nil si cuadran.
func (uc *QueryUseCase) reconcilePair(ctx context.Context, productID, locationID int64) (*Discrepancy, error) {
	var level, sum decimal.Decimal
	err := uc.txRunner.RunSnapshot(ctx, func(ctx context.Context, repos TxRepos) error {
		lvl, err := repos.Levels.Get(ctx, productID, locationID)
		if err != nil {
			return fmt.Errorf("get stock level: %w", err)
		}
		level = lvl.Quantity
		sum, err = repos.Ledger.Sum(ctx, productID, locationID)
		if err != nil {
			return fmt.Errorf("sum ledger: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if level.Equal(sum) {
		return nil, nil
	}
	return &Discrepancy{ProductID: productID, LocationID: locationID, Level: level, LedgerSum: sum}, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

package inventory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

func TestCurrentStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.receive(t, 1, 1, "3")
	h.receive(t, 1, 2, "4")

	levels, err := h.queries.CurrentStock(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, int64(1), levels[0].LocationID)
	assert.Equal(t, int64(2), levels[1].LocationID)

	assert.True(t, h.stock(t, 2, 3).IsZero(), "par sin movimientos se informa en cero")

	_, err = h.queries.CurrentStock(ctx, 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMovementHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, q := range []string{"1", "2", "3"} {
		h.receive(t, 1, 1, q)
	}
	h.receive(t, 1, 2, "10")

	page, err := h.queries.MovementHistory(ctx, entity.LedgerFilter{ProductID: 1, LocationID: loc(1), Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.True(t, page.HasMore)
	assert.True(t, page.Entries[0].QuantityChange.Equal(dec("3")), "más reciente primero")
	assert.True(t, page.Entries[0].BalanceAfter.Equal(dec("6")))
	assert.True(t, page.Entries[1].QuantityChange.Equal(dec("2")))

	next, err := h.queries.MovementHistory(ctx, entity.LedgerFilter{ProductID: 1, LocationID: loc(1), Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, next.Entries, 1)
	assert.False(t, next.HasMore)

	all, err := h.queries.MovementHistory(ctx, entity.LedgerFilter{ProductID: 1})
	require.NoError(t, err)
	assert.Len(t, all.Entries, 4)
	assert.Equal(t, inventory.DefaultPageLimit, all.Limit)

	future := time.Now().Add(time.Hour)
	none, err := h.queries.MovementHistory(ctx, entity.LedgerFilter{ProductID: 1, From: &future})
	require.NoError(t, err)
	assert.Empty(t, none.Entries)

	past := time.Now().Add(-time.Hour)
	_, err = h.queries.MovementHistory(ctx, entity.LedgerFilter{ProductID: 1, From: &future, To: &past})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	capped, err := h.queries.MovementHistory(ctx, entity.LedgerFilter{ProductID: 1, Limit: 10_000})
	require.NoError(t, err)
	assert.Equal(t, inventory.MaxPageLimit, capped.Limit)
}

func TestReconcile_DetectsDrift(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.receive(t, 1, 1, "10")
	h.receive(t, 2, 2, "5")

	h.overwriteLevel(t, 1, 1, "11")

	ok, err := h.queries.Reconcile(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.queries.Reconcile(ctx, 2, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	report, err := h.queries.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, int64(1), report.Discrepancies[0].ProductID)
	assert.True(t, report.Discrepancies[0].Level.Equal(dec("11")))
	assert.True(t, report.Discrepancies[0].LedgerSum.Equal(dec("10")))

	_, err = h.queries.Reconcile(ctx, 0, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentMovements_UnknownDocument(t *testing.T) {
	h := newHarness(t)
	_, err := h.queries.DocumentMovements(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentDeliveriesNeverOversell(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.receive(t, 1, 1, "10")

	const competitors = 8
	ids := make([]int64, competitors)
	for i := range ids {
		doc := h.document(t, entity.DocTypeDelivery, inventory.ItemInput{ProductID: 1, FromLocationID: loc(1), Quantity: dec("3")})
		h.toReady(t, doc.ID)
		ids[i] = doc.ID
	}

	var posted, rejected atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := h.docs.AdvanceStatus(gctx, id, entity.StatusDone, actor)
			switch {
			case err == nil:
				posted.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(3), posted.Load())
	assert.Equal(t, int32(competitors-3), rejected.Load())
	assert.True(t, h.stock(t, 1, 1).Equal(dec("1")))

	ok, err := h.queries.Reconcile(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConcurrentDocumentCreationKeepsNumbersUnique(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	const n = 20
	numbers := make(chan string, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			doc, err := h.docs.CreateDocument(gctx, actor, inventory.CreateDocumentInput{DocType: entity.DocTypeTransfer, WarehouseID: 1})
			if err != nil {
				return err
			}
			numbers <- doc.DocumentNo
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(numbers)

	seen := make(map[string]bool, n)
	for no := range numbers {
		assert.False(t, seen[no], "número repetido %s", no)
		seen[no] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen["TRF-000020"])
}

func TestTwoDeliveriesAgainstSameStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.receive(t, 1, 1, "100")

	a := h.document(t, entity.DocTypeDelivery, inventory.ItemInput{ProductID: 1, FromLocationID: loc(1), Quantity: dec("60")})
	b := h.document(t, entity.DocTypeDelivery, inventory.ItemInput{ProductID: 1, FromLocationID: loc(1), Quantity: dec("60")})
	h.toReady(t, a.ID)
	h.toReady(t, b.ID)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []int64{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = h.docs.AdvanceStatus(ctx, id, entity.StatusDone, actor)
		}(i, id)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.True(t, h.stock(t, 1, 1).Equal(dec("40")))
}

// growingLevels crea un par que ordena primero justo después de leer la primera página.
type growingLevels struct {
	repository.StockLevelRepository
	h     *harness
	t     *testing.T
	pages int
}

func (g *growingLevels) ListAfter(ctx context.Context, afterProductID, afterLocationID int64, limit int) ([]*entity.StockLevel, error) {
	levels, err := g.StockLevelRepository.ListAfter(ctx, afterProductID, afterLocationID, limit)
	if g.pages == 0 {
		g.h.overwriteLevel(g.t, 1, 1, "0")
	}
	g.pages++
	return levels, err
}

func TestReconcileAll_RowsCreatedMidSweepDoNotRepeatPairs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Más pares que una página del barrido, todos en cero y sin movimientos.
	const pairs = 600
	require.NoError(t, h.tx.Run(ctx, func(ctx context.Context, repos inventory.TxRepos) error {
		for p := int64(2); p < 2+pairs; p++ {
			if _, err := repos.Levels.GetForUpdate(ctx, p, 1); err != nil {
				return err
			}
		}
		return nil
	}))

	levels := &growingLevels{StockLevelRepository: h.store.StockLevels(), h: h, t: t}
	queries := inventory.NewQueryUseCase(h.tx, h.store.Documents(), levels, h.store.Ledger(), nil, zerolog.Nop(), 4)

	report, err := queries.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Greater(t, levels.pages, 1)
	assert.Equal(t, pairs, report.Checked, "cada par se revisa una sola vez")
	assert.Empty(t, report.Discrepancies)
}

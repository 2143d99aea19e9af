package inventory_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
)

func TestPosting_ReceiptThenDelivery(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	receipt := h.document(t, entity.DocTypeReceipt,
		inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), Quantity: dec("10")})
	done := h.complete(t, receipt.ID)
	assert.Equal(t, entity.StatusDone, done.Status)
	require.NotNil(t, done.DoneAt)
	assert.True(t, h.stock(t, 1, 1).Equal(dec("10")))

	delivery := h.document(t, entity.DocTypeDelivery,
		inventory.ItemInput{ProductID: 1, FromLocationID: loc(1), Quantity: dec("4")})
	h.complete(t, delivery.ID)
	assert.True(t, h.stock(t, 1, 1).Equal(dec("6")))

	rows, err := h.queries.DocumentMovements(ctx, delivery.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].QuantityChange.Equal(dec("-4")))
	assert.True(t, rows[0].BalanceAfter.Equal(dec("6")))
	assert.Equal(t, int64(1), rows[0].WarehouseID)
	assert.Equal(t, entity.DocTypeDelivery, rows[0].DocType)
	assert.Equal(t, actor, rows[0].CreatedBy)

	ok, err := h.queries.Reconcile(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, h.observer.posted)
	assert.Equal(t, 2, h.observer.ledgerRows)
}

func TestPosting_InsufficientStockLeavesEverythingUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.receive(t, 1, 1, "5")

	delivery := h.document(t, entity.DocTypeDelivery,
		inventory.ItemInput{ProductID: 1, FromLocationID: loc(1), Quantity: dec("8")})
	h.toReady(t, delivery.ID)

	_, err := h.docs.AdvanceStatus(ctx, delivery.ID, entity.StatusDone, actor)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var shortage *domain.InsufficientStockError
	require.True(t, errors.As(err, &shortage))
	assert.Equal(t, int64(1), shortage.ProductID)
	assert.Equal(t, int64(1), shortage.LocationID)
	assert.True(t, shortage.Available.Equal(dec("5")))
	assert.True(t, shortage.Requested.Equal(dec("8")))

	doc, err := h.docs.GetDocument(ctx, delivery.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReady, doc.Status, "el documento conserva su estado")
	assert.Nil(t, doc.DoneAt)
	assert.True(t, h.stock(t, 1, 1).Equal(dec("5")))

	rows, err := h.queries.DocumentMovements(ctx, delivery.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Contains(t, h.observer.rejections, "insufficient_stock")
}

func TestPosting_MultiLineFailureIsAtomic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.receive(t, 1, 1, "10")
	h.receive(t, 2, 1, "3")

	// Las dos primeras líneas alcanzan; la tercera deja el producto 2 en negativo.
	delivery := h.document(t, entity.DocTypeDelivery,
		inventory.ItemInput{ProductID: 1, FromLocationID: loc(1), Quantity: dec("4")},
		inventory.ItemInput{ProductID: 1, FromLocationID: loc(1), Quantity: dec("2")},
		inventory.ItemInput{ProductID: 2, FromLocationID: loc(1), Quantity: dec("3.5")},
	)
	h.toReady(t, delivery.ID)
	_, err := h.docs.AdvanceStatus(ctx, delivery.ID, entity.StatusDone, actor)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.True(t, h.stock(t, 1, 1).Equal(dec("10")))
	assert.True(t, h.stock(t, 2, 1).Equal(dec("3")))
	rows, err := h.queries.DocumentMovements(ctx, delivery.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPosting_TransferMovesBetweenLocations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.receive(t, 2, 1, "20")

	transfer := h.document(t, entity.DocTypeTransfer,
		inventory.ItemInput{ProductID: 2, FromLocationID: loc(1), ToLocationID: loc(2), Quantity: dec("7.25")})
	h.complete(t, transfer.ID)

	assert.True(t, h.stock(t, 2, 1).Equal(dec("12.75")))
	assert.True(t, h.stock(t, 2, 2).Equal(dec("7.25")))

	rows, err := h.queries.DocumentMovements(ctx, transfer.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	total := rows[0].QuantityChange.Add(rows[1].QuantityChange)
	assert.True(t, total.IsZero(), "un traslado no cambia el total del producto")
}

func TestPosting_TransferChainWithinOneDocument(t *testing.T) {
	h := newHarness(t)
	h.receive(t, 1, 1, "5")

	// La segunda línea solo es viable con el saldo que deja la primera.
	transfer := h.document(t, entity.DocTypeTransfer,
		inventory.ItemInput{ProductID: 1, FromLocationID: loc(1), ToLocationID: loc(2), Quantity: dec("5")},
		inventory.ItemInput{ProductID: 1, FromLocationID: loc(2), ToLocationID: loc(3), Quantity: dec("5")},
	)
	h.complete(t, transfer.ID)

	assert.True(t, h.stock(t, 1, 1).IsZero())
	assert.True(t, h.stock(t, 1, 2).IsZero())
	assert.True(t, h.stock(t, 1, 3).Equal(dec("5")))
}

func TestPosting_AdjustmentUsesCurrentStockAsSystemQty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.receive(t, 3, 2, "12")

	adj := h.document(t, entity.DocTypeAdjustment)
	item, err := h.docs.AddItem(ctx, adj.ID, inventory.ItemInput{ProductID: 3, ToLocationID: loc(2), CountedQty: decPtr("9.5")})
	require.NoError(t, err)
	require.NotNil(t, item.SystemQty)
	assert.True(t, item.SystemQty.Equal(dec("12")))
	require.NotNil(t, item.Difference)
	assert.True(t, item.Difference.Equal(dec("-2.5")))

	h.complete(t, adj.ID)
	assert.True(t, h.stock(t, 3, 2).Equal(dec("9.5")))

	rows, err := h.queries.DocumentMovements(ctx, adj.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].BalanceAfter.Equal(dec("9.5")))
}

func TestPosting_AdjustmentWithZeroDifferenceWritesNoLedger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.receive(t, 1, 1, "4")

	adj := h.document(t, entity.DocTypeAdjustment,
		inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), SystemQty: decPtr("4"), CountedQty: decPtr("4")})
	done := h.complete(t, adj.ID)
	assert.Equal(t, entity.StatusDone, done.Status)

	rows, err := h.queries.DocumentMovements(ctx, adj.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.True(t, h.stock(t, 1, 1).Equal(dec("4")))
}

func TestPosting_AdjustmentBelowZeroIsRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.receive(t, 1, 1, "2")

	// system_qty declarado por encima del saldo real: la diferencia dejaría el par en negativo.
	adj := h.document(t, entity.DocTypeAdjustment,
		inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), SystemQty: decPtr("10"), CountedQty: decPtr("1")})
	h.toReady(t, adj.ID)
	_, err := h.docs.AdvanceStatus(ctx, adj.ID, entity.StatusDone, actor)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, h.stock(t, 1, 1).Equal(dec("2")))
}

func TestPosting_LedgerSumMatchesLevelsAfterMixedActivity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.receive(t, 1, 1, "100")
	h.receive(t, 1, 2, "3.3333")

	d := h.document(t, entity.DocTypeDelivery, inventory.ItemInput{ProductID: 1, FromLocationID: loc(1), Quantity: dec("0.0001")})
	h.complete(t, d.ID)
	tr := h.document(t, entity.DocTypeTransfer, inventory.ItemInput{ProductID: 1, FromLocationID: loc(2), ToLocationID: loc(3), Quantity: dec("1.1111")})
	h.complete(t, tr.ID)

	report, err := h.queries.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	assert.Empty(t, report.Discrepancies)
	assert.Equal(t, 1, h.observer.reconciles)
}

func TestPosting_AdjustmentWithExplicitCount(t *testing.T) {
	h := newHarness(t)
	h.receive(t, 1, 1, "60")

	adj := h.document(t, entity.DocTypeAdjustment,
		inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), SystemQty: decPtr("60"), CountedQty: decPtr("55")})
	h.complete(t, adj.ID)

	assert.True(t, h.stock(t, 1, 1).Equal(dec("55")))
	rows, err := h.queries.DocumentMovements(context.Background(), adj.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].QuantityChange.Equal(dec("-5")))
}

// countingMaster cuenta lecturas de ubicaciones hechas fuera de la transacción.
type countingMaster struct {
	repository.MasterDataRepository
	locations atomic.Int32
}

func (c *countingMaster) GetLocation(ctx context.Context, id int64) (*entity.Location, error) {
	c.locations.Add(1)
	return c.MasterDataRepository.GetLocation(ctx, id)
}

func TestPosting_ResolvesWarehouseInsideTransaction(t *testing.T) {
	store := memory.NewStore()
	memory.SeedDemo(store)
	master := &countingMaster{MasterDataRepository: store.MasterData()}
	docs := inventory.NewDocumentUseCase(memory.NewTxRunner(store), master, store.Documents(), nil, zerolog.Nop())
	queries := inventory.NewQueryUseCase(memory.NewTxRunner(store), store.Documents(), store.StockLevels(), store.Ledger(), nil, zerolog.Nop(), 1)
	ctx := context.Background()

	recv, err := docs.CreateDocument(ctx, actor, inventory.CreateDocumentInput{DocType: entity.DocTypeReceipt, WarehouseID: 1})
	require.NoError(t, err)
	_, err = docs.AddItem(ctx, recv.ID, inventory.ItemInput{ProductID: 1, ToLocationID: loc(3), Quantity: dec("4")})
	require.NoError(t, err)
	for _, s := range []entity.DocStatus{entity.StatusWaiting, entity.StatusReady} {
		_, err := docs.AdvanceStatus(ctx, recv.ID, s, actor)
		require.NoError(t, err)
	}

	master.locations.Store(0)
	_, err = docs.AdvanceStatus(ctx, recv.ID, entity.StatusDone, actor)
	require.NoError(t, err)
	assert.Zero(t, master.locations.Load(), "la contabilización no usa el repositorio fuera de la transacción")

	rows, err := queries.DocumentMovements(ctx, recv.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].WarehouseID)
}

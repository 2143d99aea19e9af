package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
)

const actor int64 = 42

type harness struct {
	store    *memory.Store
	tx       *memory.TxRunner
	docs     *inventory.DocumentUseCase
	queries  *inventory.QueryUseCase
	observer *recordingObserver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	memory.SeedDemo(store)
	store.PutProduct(entity.Product{ID: 9, SKU: "SKU-OLD", Name: "Descontinuado", UoM: "UND", Active: false})
	store.PutLocation(entity.Location{ID: 9, WarehouseID: 1, Code: "X-99", Name: "Cerrada", Active: false})

	obs := &recordingObserver{}
	tx := memory.NewTxRunner(store)
	return &harness{
		store:    store,
		tx:       tx,
		docs:     inventory.NewDocumentUseCase(tx, store.MasterData(), store.Documents(), obs, zerolog.Nop()),
		queries:  inventory.NewQueryUseCase(tx, store.Documents(), store.StockLevels(), store.Ledger(), obs, zerolog.Nop(), 2),
		observer: obs,
	}
}

// document crea un documento en la bodega demo y le agrega las líneas dadas.
func (h *harness) document(t *testing.T, docType entity.DocType, items ...inventory.ItemInput) *entity.InventoryDocument {
	t.Helper()
	ctx := context.Background()
	doc, err := h.docs.CreateDocument(ctx, actor, inventory.CreateDocumentInput{DocType: docType, WarehouseID: 1})
	require.NoError(t, err)
	for _, in := range items {
		_, err := h.docs.AddItem(ctx, doc.ID, in)
		require.NoError(t, err)
	}
	return doc
}

// complete lleva el documento de draft a done.
func (h *harness) complete(t *testing.T, docID int64) *entity.InventoryDocument {
	t.Helper()
	ctx := context.Background()
	for _, s := range []entity.DocStatus{entity.StatusWaiting, entity.StatusReady} {
		_, err := h.docs.AdvanceStatus(ctx, docID, s, actor)
		require.NoError(t, err)
	}
	doc, err := h.docs.AdvanceStatus(ctx, docID, entity.StatusDone, actor)
	require.NoError(t, err)
	return doc
}

// toReady lleva el documento de draft a ready.
func (h *harness) toReady(t *testing.T, docID int64) {
	t.Helper()
	for _, s := range []entity.DocStatus{entity.StatusWaiting, entity.StatusReady} {
		_, err := h.docs.AdvanceStatus(context.Background(), docID, s, actor)
		require.NoError(t, err)
	}
}

func (h *harness) stock(t *testing.T, productID, locationID int64) decimal.Decimal {
	t.Helper()
	levels, err := h.queries.CurrentStock(context.Background(), productID, &locationID)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	return levels[0].Quantity
}

func (h *harness) receive(t *testing.T, productID, locationID int64, qty string) {
	t.Helper()
	doc := h.document(t, entity.DocTypeReceipt, inventory.ItemInput{ProductID: productID, ToLocationID: loc(locationID), Quantity: dec(qty)})
	h.complete(t, doc.ID)
}

// overwriteLevel fija un saldo sin escribir en el libro, dejando el par descuadrado.
func (h *harness) overwriteLevel(t *testing.T, productID, locationID int64, qty string) {
	t.Helper()
	err := h.tx.Run(context.Background(), func(ctx context.Context, repos inventory.TxRepos) error {
		if _, err := repos.Levels.GetForUpdate(ctx, productID, locationID); err != nil {
			return err
		}
		return repos.Levels.SetQuantity(ctx, productID, locationID, dec(qty))
	})
	require.NoError(t, err)
}

func loc(v int64) *int64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type recordingObserver struct {
	mu          sync.Mutex
	transitions []entity.DocStatus
	posted      int
	ledgerRows  int
	rejections  []string
	reconciles  int
}

func (o *recordingObserver) DocumentTransitioned(_ entity.DocType, to entity.DocStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, to)
}

func (o *recordingObserver) DocumentPosted(_ entity.DocType, rows int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.posted++
	o.ledgerRows += rows
}

func (o *recordingObserver) TransitionRejected(_ entity.DocType, _ entity.DocStatus, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejections = append(o.rejections, reason)
}

func (o *recordingObserver) ReconcileCompleted(_, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reconciles++
}

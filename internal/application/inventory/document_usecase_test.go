package inventory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
)

func TestCreateDocument(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("numeración consecutiva por tipo", func(t *testing.T) {
		r1, err := h.docs.CreateDocument(ctx, actor, inventory.CreateDocumentInput{DocType: entity.DocTypeReceipt, WarehouseID: 1})
		require.NoError(t, err)
		r2, err := h.docs.CreateDocument(ctx, actor, inventory.CreateDocumentInput{DocType: entity.DocTypeReceipt, WarehouseID: 1})
		require.NoError(t, err)
		d1, err := h.docs.CreateDocument(ctx, actor, inventory.CreateDocumentInput{DocType: entity.DocTypeDelivery, WarehouseID: 1})
		require.NoError(t, err)

		assert.Equal(t, "REC-000001", r1.DocumentNo)
		assert.Equal(t, "REC-000002", r2.DocumentNo)
		assert.Equal(t, "DEL-000001", d1.DocumentNo)
		assert.Equal(t, entity.StatusDraft, r1.Status)
		assert.Equal(t, actor, r1.CreatedBy)
		assert.False(t, r1.DocDate.IsZero())
	})

	t.Run("nombre de contraparte normalizado", func(t *testing.T) {
		doc, err := h.docs.CreateDocument(ctx, actor, inventory.CreateDocumentInput{
			DocType: entity.DocTypeReceipt, WarehouseID: 1, CounterpartyName: "  Proveedor José  ",
		})
		require.NoError(t, err)
		assert.Equal(t, "Proveedor José", doc.CounterpartyName)
	})

	t.Run("errores de entrada", func(t *testing.T) {
		_, err := h.docs.CreateDocument(ctx, actor, inventory.CreateDocumentInput{DocType: "RETURN", WarehouseID: 1})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = h.docs.CreateDocument(ctx, 0, inventory.CreateDocumentInput{DocType: entity.DocTypeReceipt, WarehouseID: 1})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = h.docs.CreateDocument(ctx, actor, inventory.CreateDocumentInput{
			DocType: entity.DocTypeReceipt, WarehouseID: 1, CounterpartyName: strings.Repeat("ñ", 201),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("bodega inexistente", func(t *testing.T) {
		_, err := h.docs.CreateDocument(ctx, actor, inventory.CreateDocumentInput{DocType: entity.DocTypeReceipt, WarehouseID: 77})
		assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
	})
}

func TestAddItem_References(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.document(t, entity.DocTypeReceipt)

	_, err := h.docs.AddItem(ctx, doc.ID, inventory.ItemInput{ProductID: 404, ToLocationID: loc(1), Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)

	_, err = h.docs.AddItem(ctx, doc.ID, inventory.ItemInput{ProductID: 9, ToLocationID: loc(1), Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInactiveReference)

	_, err = h.docs.AddItem(ctx, doc.ID, inventory.ItemInput{ProductID: 1, ToLocationID: loc(9), Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInactiveReference)

	_, err = h.docs.AddItem(ctx, doc.ID, inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), Quantity: dec("1"), UoM: "KG"})
	assert.ErrorIs(t, err, domain.ErrUomMismatch)

	item, err := h.docs.AddItem(ctx, doc.ID, inventory.ItemInput{ProductID: 2, ToLocationID: loc(1), Quantity: dec("1")})
	require.NoError(t, err)
	assert.Equal(t, "M", item.UoM, "sin unidad se toma la del producto")

	_, err = h.docs.AddItem(ctx, 999, inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemEditing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.document(t, entity.DocTypeReceipt,
		inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), Quantity: dec("1")},
		inventory.ItemInput{ProductID: 2, ToLocationID: loc(1), Quantity: dec("2")},
	)
	full, err := h.docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, full.Items, 2)
	first, second := full.Items[0], full.Items[1]
	assert.Equal(t, 1, first.LineNo)
	assert.Equal(t, 2, second.LineNo)

	updated, err := h.docs.UpdateItem(ctx, doc.ID, first.ID, inventory.ItemInput{ProductID: 3, ToLocationID: loc(2), Quantity: dec("5")})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.LineNo)
	assert.Equal(t, "GL", updated.UoM)

	require.NoError(t, h.docs.RemoveItem(ctx, doc.ID, first.ID))
	assert.ErrorIs(t, h.docs.RemoveItem(ctx, doc.ID, first.ID), domain.ErrNotFound)

	third, err := h.docs.AddItem(ctx, doc.ID, inventory.ItemInput{ProductID: 1, ToLocationID: loc(3), Quantity: dec("1")})
	require.NoError(t, err)
	assert.Equal(t, 3, third.LineNo, "los números de línea no se reutilizan")

	_, err = h.docs.UpdateItem(ctx, doc.ID, 12345, inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemEditing_OnlyInDraft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.document(t, entity.DocTypeReceipt, inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), Quantity: dec("1")})

	_, err := h.docs.AdvanceStatus(ctx, doc.ID, entity.StatusWaiting, actor)
	require.NoError(t, err)
	_, err = h.docs.AddItem(ctx, doc.ID, inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = h.docs.AdvanceStatus(ctx, doc.ID, entity.StatusReady, actor)
	require.NoError(t, err)
	_, err = h.docs.AdvanceStatus(ctx, doc.ID, entity.StatusDone, actor)
	require.NoError(t, err)

	full, err := h.docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	_, err = h.docs.AddItem(ctx, doc.ID, inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), Quantity: dec("1")})
	assert.ErrorIs(t, err, domain.ErrImmutableDocument)
	_, err = h.docs.UpdateItem(ctx, doc.ID, full.Items[0].ID, inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), Quantity: dec("9")})
	assert.ErrorIs(t, err, domain.ErrImmutableDocument)
	assert.ErrorIs(t, h.docs.RemoveItem(ctx, doc.ID, full.Items[0].ID), domain.ErrImmutableDocument)
}

func TestAdvanceStatus_StateMachine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("no se puede saltar estados", func(t *testing.T) {
		doc := h.document(t, entity.DocTypeReceipt, inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), Quantity: dec("1")})
		_, err := h.docs.AdvanceStatus(ctx, doc.ID, entity.StatusDone, actor)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.True(t, h.stock(t, 1, 1).IsZero())
	})

	t.Run("documento vacío no llega a ready", func(t *testing.T) {
		doc := h.document(t, entity.DocTypeReceipt)
		_, err := h.docs.AdvanceStatus(ctx, doc.ID, entity.StatusWaiting, actor)
		require.NoError(t, err)
		_, err = h.docs.AdvanceStatus(ctx, doc.ID, entity.StatusReady, actor)
		assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	})

	t.Run("cancelado es terminal y no contabiliza", func(t *testing.T) {
		doc := h.document(t, entity.DocTypeReceipt, inventory.ItemInput{ProductID: 2, ToLocationID: loc(3), Quantity: dec("4")})
		h.toReady(t, doc.ID)
		canceled, err := h.docs.AdvanceStatus(ctx, doc.ID, entity.StatusCanceled, actor)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCanceled, canceled.Status)
		require.NotNil(t, canceled.CanceledAt)

		_, err = h.docs.AdvanceStatus(ctx, doc.ID, entity.StatusDone, actor)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.True(t, h.stock(t, 2, 3).IsZero())
	})

	t.Run("done es terminal", func(t *testing.T) {
		doc := h.document(t, entity.DocTypeReceipt, inventory.ItemInput{ProductID: 3, ToLocationID: loc(1), Quantity: dec("1")})
		h.complete(t, doc.ID)
		_, err := h.docs.AdvanceStatus(ctx, doc.ID, entity.StatusCanceled, actor)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		_, err = h.docs.AdvanceStatus(ctx, doc.ID, entity.StatusDone, actor)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.True(t, h.stock(t, 3, 1).Equal(dec("1")), "una segunda contabilización no duplica el stock")
	})

	t.Run("documento inexistente", func(t *testing.T) {
		_, err := h.docs.AdvanceStatus(ctx, 9999, entity.StatusWaiting, actor)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestListDocuments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r := h.document(t, entity.DocTypeReceipt, inventory.ItemInput{ProductID: 1, ToLocationID: loc(1), Quantity: dec("1")})
	h.complete(t, r.ID)
	h.document(t, entity.DocTypeReceipt)
	h.document(t, entity.DocTypeDelivery)

	all, err := h.docs.ListDocuments(ctx, entity.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	receipts, err := h.docs.ListDocuments(ctx, entity.DocumentFilter{DocType: entity.DocTypeReceipt})
	require.NoError(t, err)
	assert.Len(t, receipts, 2)

	done, err := h.docs.ListDocuments(ctx, entity.DocumentFilter{Status: entity.StatusDone})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, r.ID, done[0].ID)

	_, err = h.docs.ListDocuments(ctx, entity.DocumentFilter{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

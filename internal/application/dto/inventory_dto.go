package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateDocumentRequest body para POST /api/inventory/documents.
type CreateDocumentRequest struct {
	DocType          string `json:"doc_type" validate:"required,oneof=RECEIPT DELIVERY TRANSFER ADJUSTMENT"`
	WarehouseID      int64  `json:"warehouse_id" validate:"required,gt=0"`
	DocDate          string `json:"doc_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CounterpartyName string `json:"counterparty_name,omitempty" validate:"max=200"`
}

// DocumentItemRequest body para POST/PUT de líneas.
// En ADJUSTMENT se envía counted_qty (y opcionalmente system_qty) en lugar de quantity.
type DocumentItemRequest struct {
	ProductID      int64            `json:"product_id" validate:"required,gt=0"`
	FromLocationID *int64           `json:"from_location_id,omitempty" validate:"omitempty,gt=0"`
	ToLocationID   *int64           `json:"to_location_id,omitempty" validate:"omitempty,gt=0"`
	Quantity       decimal.Decimal  `json:"quantity"`
	SystemQty      *decimal.Decimal `json:"system_qty,omitempty"`
	CountedQty     *decimal.Decimal `json:"counted_qty,omitempty"`
	UoM            string           `json:"uom,omitempty" validate:"max=20"`
}

// AdvanceStatusRequest body para POST /api/inventory/documents/:id/status.
type AdvanceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=waiting ready done canceled"`
}

// DocumentFilterRequest query de GET /api/inventory/documents.
type DocumentFilterRequest struct {
	Status      string `query:"status" validate:"omitempty,oneof=draft waiting ready done canceled"`
	DocType     string `query:"doc_type" validate:"omitempty,oneof=RECEIPT DELIVERY TRANSFER ADJUSTMENT"`
	WarehouseID int64  `query:"warehouse_id" validate:"omitempty,gt=0"`
	Limit       int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset      int    `query:"offset" validate:"omitempty,min=0"`
}

// MovementHistoryRequest query de GET /api/inventory/movements. Fechas en RFC3339.
type MovementHistoryRequest struct {
	ProductID  int64  `query:"product_id" validate:"required,gt=0"`
	LocationID int64  `query:"location_id" validate:"omitempty,gt=0"` // 0 = todas
	From       string `query:"from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To         string `query:"to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Limit      int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset     int    `query:"offset" validate:"omitempty,min=0"`
}

// StockQueryRequest query de GET /api/inventory/stock y /reconcile.
type StockQueryRequest struct {
	ProductID  int64 `query:"product_id" validate:"required,gt=0"`
	LocationID int64 `query:"location_id" validate:"omitempty,gt=0"` // 0 = todas
}

// DocumentItemResponse línea de documento.
type DocumentItemResponse struct {
	ID             int64            `json:"id"`
	LineNo         int              `json:"line_no"`
	ProductID      int64            `json:"product_id"`
	FromLocationID *int64           `json:"from_location_id,omitempty"`
	ToLocationID   *int64           `json:"to_location_id,omitempty"`
	Quantity       decimal.Decimal  `json:"quantity"`
	SystemQty      *decimal.Decimal `json:"system_qty,omitempty"`
	CountedQty     *decimal.Decimal `json:"counted_qty,omitempty"`
	Difference     *decimal.Decimal `json:"difference,omitempty"`
	UoM            string           `json:"uom"`
}

// DocumentResponse cabecera de documento con líneas (vacías en listados).
type DocumentResponse struct {
	ID               int64                  `json:"id"`
	DocumentNo       string                 `json:"document_no"`
	DocType          string                 `json:"doc_type"`
	Status           string                 `json:"status"`
	WarehouseID      int64                  `json:"warehouse_id"`
	CounterpartyName string                 `json:"counterparty_name,omitempty"`
	DocDate          string                 `json:"doc_date"`
	CreatedBy        int64                  `json:"created_by"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	DoneAt           *time.Time             `json:"done_at,omitempty"`
	CanceledAt       *time.Time             `json:"canceled_at,omitempty"`
	Items            []DocumentItemResponse `json:"items,omitempty"`
}

// DocumentListResponse listado paginado de documentos.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockLevelResponse saldo de un par (producto, ubicación).
type StockLevelResponse struct {
	ProductID  int64           `json:"product_id"`
	LocationID int64           `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// LedgerEntryResponse fila del libro de movimientos.
type LedgerEntryResponse struct {
	ID             int64           `json:"id"`
	ProductID      int64           `json:"product_id"`
	LocationID     int64           `json:"location_id"`
	WarehouseID    int64           `json:"warehouse_id"`
	DocumentID     int64           `json:"document_id"`
	DocumentItemID int64           `json:"document_item_id"`
	DocType        string          `json:"doc_type"`
	QuantityChange decimal.Decimal `json:"quantity_change"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	CreatedBy      int64           `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// LedgerPageResponse página de movimientos.
type LedgerPageResponse struct {
	Items   []LedgerEntryResponse `json:"items"`
	Page    PageResponse          `json:"page"`
	HasMore bool                  `json:"has_more"`
}

// ReconcileResponse resultado de conciliar un par.
type ReconcileResponse struct {
	ProductID  int64 `json:"product_id"`
	LocationID int64 `json:"location_id"`
	Consistent bool  `json:"consistent"`
}

// SweepEnqueuedResponse confirmación del barrido encolado.
type SweepEnqueuedResponse struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

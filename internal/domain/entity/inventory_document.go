package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocType tipo de documento de inventario.
type DocType string

// Tipos de documento.
const (
	DocTypeReceipt    DocType = "RECEIPT"    // entrada
	DocTypeDelivery   DocType = "DELIVERY"   // salida
	DocTypeTransfer   DocType = "TRANSFER"   // traslado entre ubicaciones
	DocTypeAdjustment DocType = "ADJUSTMENT" // ajuste por conteo físico
)

// Valid indica si el tipo es uno de los soportados.
func (t DocType) Valid() bool {
	switch t {
	case DocTypeReceipt, DocTypeDelivery, DocTypeTransfer, DocTypeAdjustment:
		return true
	}
	return false
}

// Prefix prefijo del número de documento por tipo.
func (t DocType) Prefix() string {
	switch t {
	case DocTypeReceipt:
		return "REC"
	case DocTypeDelivery:
		return "DEL"
	case DocTypeTransfer:
		return "TRF"
	case DocTypeAdjustment:
		return "ADJ"
	}
	return "DOC"
}

// DocStatus estado del ciclo de vida del documento.
type DocStatus string

// Estados del documento. done y canceled son terminales.
const (
	StatusDraft    DocStatus = "draft"
	StatusWaiting  DocStatus = "waiting"
	StatusReady    DocStatus = "ready"
	StatusDone     DocStatus = "done"
	StatusCanceled DocStatus = "canceled"
)

// Valid indica si el estado existe.
func (s DocStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusWaiting, StatusReady, StatusDone, StatusCanceled:
		return true
	}
	return false
}

// Terminal indica si el documento ya no admite cambios.
func (s DocStatus) Terminal() bool {
	return s == StatusDone || s == StatusCanceled
}

// InventoryDocument cabecera de un documento de inventario.
type InventoryDocument struct {
	ID               int64
	DocumentNo       string
	DocType          DocType
	Status           DocStatus
	WarehouseID      int64
	CounterpartyName string
	DocDate          time.Time
	CreatedBy        int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DoneAt           *time.Time
	CanceledAt       *time.Time

	// Items se carga solo en lecturas de detalle; el motor nunca navega referencias inversas.
	Items []*InventoryDocumentItem
}

// InventoryDocumentItem línea de un documento, ordenada por LineNo.
// RECEIPT: solo ToLocationID. DELIVERY: solo FromLocationID. TRANSFER: ambas y distintas.
// ADJUSTMENT: una ubicación (ToLocationID) y Difference = CountedQty - SystemQty.
type InventoryDocumentItem struct {
	ID             int64
	DocumentID     int64
	LineNo         int
	ProductID      int64
	FromLocationID *int64
	ToLocationID   *int64
	Quantity       decimal.Decimal
	SystemQty      *decimal.Decimal
	CountedQty     *decimal.Decimal
	Difference     *decimal.Decimal
	UoM            string
}

// DocumentFilter filtros para listar documentos.
type DocumentFilter struct {
	Status      DocStatus
	DocType     DocType
	WarehouseID int64
	Limit       int
	Offset      int
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLedgerEntry es un cambio de cantidad inmutable originado por una línea de documento.
// Nunca se actualiza ni se borra; las correcciones se hacen con un documento compensatorio.
type StockLedgerEntry struct {
	ID             int64
	ProductID      int64
	LocationID     int64
	WarehouseID    int64
	DocumentID     int64
	DocumentItemID int64
	DocType        DocType
	QuantityChange decimal.Decimal // positivo entrada, negativo salida
	BalanceAfter   decimal.Decimal // StockLevel.Quantity inmediatamente después de aplicar la fila
	CreatedBy      int64
	CreatedAt      time.Time
}

// LedgerFilter filtra el historial de movimientos de un producto.
type LedgerFilter struct {
	ProductID  int64
	LocationID *int64
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

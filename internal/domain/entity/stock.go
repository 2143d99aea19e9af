package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel es la cantidad disponible actual de un producto en una ubicación.
// Una fila por par (producto, ubicación); se crea al primer movimiento y nunca se borra.
// Invariante: Quantity == suma de StockLedgerEntry.QuantityChange del mismo par.
type StockLevel struct {
	ProductID  int64
	LocationID int64
	Quantity   decimal.Decimal
	UpdatedAt  time.Time
}

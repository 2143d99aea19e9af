package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// StockLevelRepository define el puerto para consultar/actualizar stock por (producto, ubicación).
// Solo el motor de documentos escribe; las lecturas nunca recalculan desde el libro.
type StockLevelRepository interface {
	// Get devuelve el nivel actual; si no existe fila devuelve cantidad cero (sin crearla).
	Get(ctx context.Context, productID, locationID int64) (*entity.StockLevel, error)
	ListByProduct(ctx context.Context, productID int64) ([]*entity.StockLevel, error)
	// ListAfter devuelve hasta limit pares posteriores a (afterProductID, afterLocationID),
	// ordenados por producto y ubicación. Con (0, 0) empieza desde el primero.
	ListAfter(ctx context.Context, afterProductID, afterLocationID int64, limit int) ([]*entity.StockLevel, error)
	// GetForUpdate crea la fila en cero si no existe y la bloquea hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, productID, locationID int64) (*entity.StockLevel, error)
	// SetQuantity fija la cantidad de una fila previamente bloqueada con GetForUpdate.
	SetQuantity(ctx context.Context, productID, locationID int64, quantity decimal.Decimal) error
}

// StockLedgerRepository define el puerto del libro de movimientos (solo inserción).
type StockLedgerRepository interface {
	Append(ctx context.Context, entry *entity.StockLedgerEntry) error
	// List devuelve movimientos del más reciente al más antiguo.
	List(ctx context.Context, filter entity.LedgerFilter) ([]*entity.StockLedgerEntry, error)
	ListByDocument(ctx context.Context, documentID int64) ([]*entity.StockLedgerEntry, error)
	Sum(ctx context.Context, productID, locationID int64) (decimal.Decimal, error)
}

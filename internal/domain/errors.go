package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrInvalidInput            = errors.New("entrada inválida")
	ErrUnauthorized            = errors.New("no autorizado")
	ErrConflict                = errors.New("conflicto con el estado actual")
	ErrReferenceNotFound       = errors.New("referencia de datos maestros no encontrada")
	ErrInactiveReference       = errors.New("referencia de datos maestros inactiva")
	ErrUomMismatch             = errors.New("la unidad de medida no coincide con la del producto")
	ErrInvalidTransition       = errors.New("transición de estado no permitida")
	ErrInvalidState            = errors.New("el documento no está en borrador")
	ErrEmptyDocument           = errors.New("el documento no tiene líneas")
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrImmutableDocument       = errors.New("el documento está cerrado y no admite cambios")
	ErrDuplicateDocumentNumber = errors.New("número de documento duplicado")
)

// InsufficientStockError detalla el par (producto, ubicación) que quedaría en negativo.
// errors.Is(err, ErrInsufficientStock) es verdadero para este tipo.
type InsufficientStockError struct {
	ProductID  int64
	LocationID int64
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: producto %d en ubicación %d (disponible %s, solicitado %s)",
		ErrInsufficientStock, e.ProductID, e.LocationID, e.Available.StringFixed(4), e.Requested.StringFixed(4))
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

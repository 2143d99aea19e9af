package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// QuantityScale dígitos fraccionarios admitidos (NUMERIC(18,4)).
const QuantityScale = 4

// ValidScale indica si q no tiene más de QuantityScale decimales.
func ValidScale(q decimal.Decimal) bool {
	return q.Equal(q.Round(QuantityScale))
}

// NormalizeItem valida la forma de la línea según el tipo de documento y la deja lista para persistir.
// No consulta datos maestros: eso lo hace el caso de uso antes de llamar aquí.
// En ADJUSTMENT la ubicación única queda en ToLocationID y se calcula Difference; SystemQty debe venir resuelto.
func NormalizeItem(docType entity.DocType, item *entity.InventoryDocumentItem) error {
	if item.ProductID == 0 {
		return fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	if item.UoM == "" {
		return fmt.Errorf("%w: uom requerida", domain.ErrInvalidInput)
	}
	from, to := item.FromLocationID, item.ToLocationID

	switch docType {
	case entity.DocTypeReceipt:
		if to == nil || from != nil {
			return fmt.Errorf("%w: RECEIPT requiere solo to_location_id", domain.ErrInvalidInput)
		}
	case entity.DocTypeDelivery:
		if from == nil || to != nil {
			return fmt.Errorf("%w: DELIVERY requiere solo from_location_id", domain.ErrInvalidInput)
		}
	case entity.DocTypeTransfer:
		if from == nil || to == nil {
			return fmt.Errorf("%w: TRANSFER requiere from_location_id y to_location_id", domain.ErrInvalidInput)
		}
		if *from == *to {
			return fmt.Errorf("%w: origen y destino deben ser distintos", domain.ErrInvalidInput)
		}
	case entity.DocTypeAdjustment:
		return normalizeAdjustment(item)
	default:
		return fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, docType)
	}

	if !item.Quantity.IsPositive() {
		return fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if !ValidScale(item.Quantity) {
		return fmt.Errorf("%w: la cantidad admite máximo %d decimales", domain.ErrInvalidInput, QuantityScale)
	}
	item.SystemQty, item.CountedQty, item.Difference = nil, nil, nil
	return nil
}

func normalizeAdjustment(item *entity.InventoryDocumentItem) error {
	from, to := item.FromLocationID, item.ToLocationID
	switch {
	case from != nil && to != nil:
		return fmt.Errorf("%w: ADJUSTMENT admite una sola ubicación", domain.ErrInvalidInput)
	case from == nil && to == nil:
		return fmt.Errorf("%w: ADJUSTMENT requiere una ubicación", domain.ErrInvalidInput)
	case from != nil:
		item.ToLocationID, item.FromLocationID = from, nil
	}
	if item.CountedQty == nil || item.SystemQty == nil {
		return fmt.Errorf("%w: ADJUSTMENT requiere counted_qty y system_qty", domain.ErrInvalidInput)
	}
	if item.CountedQty.IsNegative() || item.SystemQty.IsNegative() {
		return fmt.Errorf("%w: las cantidades contadas no pueden ser negativas", domain.ErrInvalidInput)
	}
	if !ValidScale(*item.CountedQty) || !ValidScale(*item.SystemQty) {
		return fmt.Errorf("%w: la cantidad admite máximo %d decimales", domain.ErrInvalidInput, QuantityScale)
	}
	diff := item.CountedQty.Sub(*item.SystemQty)
	item.Difference = &diff
	item.Quantity = diff
	return nil
}

// LocationIDs devuelve las ubicaciones referenciadas por la línea (una o dos).
func LocationIDs(item *entity.InventoryDocumentItem) []int64 {
	ids := make([]int64, 0, 2)
	if item.FromLocationID != nil {
		ids = append(ids, *item.FromLocationID)
	}
	if item.ToLocationID != nil {
		ids = append(ids, *item.ToLocationID)
	}
	return ids
}

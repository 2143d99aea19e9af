package inventory

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// PairKey identifica una fila de stock_levels.
type PairKey struct {
	ProductID  int64
	LocationID int64
}

// Delta cambio de cantidad firmado que una línea aplica sobre un par (producto, ubicación).
type Delta struct {
	ItemID     int64
	LineNo     int
	ProductID  int64
	LocationID int64
	Quantity   decimal.Decimal
}

// Key devuelve el par afectado por el delta.
func (d Delta) Key() PairKey {
	return PairKey{ProductID: d.ProductID, LocationID: d.LocationID}
}

// ComputeDeltas convierte las líneas de un documento en deltas firmados, en orden de línea.
//
//	RECEIPT:    +quantity en to
//	DELIVERY:   -quantity en from
//	TRANSFER:   -quantity en from, luego +quantity en to
//	ADJUSTMENT: +difference en la ubicación (difference cero no genera delta)
func ComputeDeltas(docType entity.DocType, items []*entity.InventoryDocumentItem) ([]Delta, error) {
	deltas := make([]Delta, 0, len(items)*2)
	for _, it := range items {
		base := Delta{ItemID: it.ID, LineNo: it.LineNo, ProductID: it.ProductID}
		switch docType {
		case entity.DocTypeReceipt:
			if it.ToLocationID == nil {
				return nil, fmt.Errorf("%w: línea %d sin to_location_id", domain.ErrInvalidInput, it.LineNo)
			}
			deltas = append(deltas, withDelta(base, *it.ToLocationID, it.Quantity))
		case entity.DocTypeDelivery:
			if it.FromLocationID == nil {
				return nil, fmt.Errorf("%w: línea %d sin from_location_id", domain.ErrInvalidInput, it.LineNo)
			}
			deltas = append(deltas, withDelta(base, *it.FromLocationID, it.Quantity.Neg()))
		case entity.DocTypeTransfer:
			if it.FromLocationID == nil || it.ToLocationID == nil {
				return nil, fmt.Errorf("%w: línea %d sin origen o destino", domain.ErrInvalidInput, it.LineNo)
			}
			deltas = append(deltas,
				withDelta(base, *it.FromLocationID, it.Quantity.Neg()),
				withDelta(base, *it.ToLocationID, it.Quantity),
			)
		case entity.DocTypeAdjustment:
			if it.ToLocationID == nil || it.Difference == nil {
				return nil, fmt.Errorf("%w: línea %d de ajuste incompleta", domain.ErrInvalidInput, it.LineNo)
			}
			if it.Difference.IsZero() {
				continue
			}
			deltas = append(deltas, withDelta(base, *it.ToLocationID, *it.Difference))
		default:
			return nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, docType)
		}
	}
	return deltas, nil
}

func withDelta(base Delta, locationID int64, qty decimal.Decimal) Delta {
	base.LocationID = locationID
	base.Quantity = qty
	return base
}

// LockOrder devuelve los pares únicos tocados por los deltas ordenados por (producto, ubicación).
// Bloquear siempre en este orden evita interbloqueos entre documentos con pares solapados.
func LockOrder(deltas []Delta) []PairKey {
	seen := make(map[PairKey]struct{}, len(deltas))
	keys := make([]PairKey, 0, len(deltas))
	for _, d := range deltas {
		k := d.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ProductID != keys[j].ProductID {
			return keys[i].ProductID < keys[j].ProductID
		}
		return keys[i].LocationID < keys[j].LocationID
	})
	return keys
}

// ApplyDeltas aplica los deltas en orden sobre levels (cantidades bloqueadas) y devuelve el saldo
// resultante después de cada delta. Si algún saldo quedara negativo devuelve *InsufficientStockError
// y levels no se modifica.
func ApplyDeltas(levels map[PairKey]decimal.Decimal, deltas []Delta) ([]decimal.Decimal, error) {
	working := make(map[PairKey]decimal.Decimal, len(levels))
	for k, v := range levels {
		working[k] = v
	}
	after := make([]decimal.Decimal, len(deltas))
	for i, d := range deltas {
		current := working[d.Key()]
		next := current.Add(d.Quantity)
		if next.IsNegative() {
			return nil, &domain.InsufficientStockError{
				ProductID:  d.ProductID,
				LocationID: d.LocationID,
				Available:  current,
				Requested:  d.Quantity.Neg(),
			}
		}
		working[d.Key()] = next
		after[i] = next
	}
	for k, v := range working {
		levels[k] = v
	}
	return after, nil
}

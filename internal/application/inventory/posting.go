package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/inventory"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// post aplica las líneas del documento sobre stock_levels y stock_ledger dentro de la transacción de repos.
// Bloquea los pares (producto, ubicación) en orden fijo, aplica los deltas en orden de línea
// y por cada delta fija el nuevo saldo y agrega exactamente una fila al libro.
// Devuelve la cantidad de filas del libro escritas.
func (uc *DocumentUseCase) post(
	ctx context.Context,
	repos TxRepos,
	doc *entity.InventoryDocument,
	items []*entity.InventoryDocumentItem,
	actorID int64,
	now time.Time,
) (int, error) {
	deltas, err := inventory.ComputeDeltas(doc.DocType, items)
	if err != nil {
		return 0, err
	}
	if len(deltas) == 0 {
		return 0, nil
	}

	// Bloquea cada fila (SELECT FOR UPDATE) en orden producto, ubicación para evitar interbloqueos
	levels := make(map[inventory.PairKey]decimal.Decimal, len(deltas))
	for _, key := range inventory.LockOrder(deltas) {
		lvl, err := repos.Levels.GetForUpdate(ctx, key.ProductID, key.LocationID)
		if err != nil {
			return 0, fmt.Errorf("lock stock level: %w", err)
		}
		levels[key] = lvl.Quantity
	}

	balances, err := inventory.ApplyDeltas(levels, deltas)
	if err != nil {
		return 0, err
	}

	warehouses := make(map[int64]int64)
	for i, d := range deltas {
		warehouseID, err := locationWarehouse(ctx, repos.MasterData, warehouses, d.LocationID)
		if err != nil {
			return 0, err
		}
		if err := repos.Levels.SetQuantity(ctx, d.ProductID, d.LocationID, balances[i]); err != nil {
			return 0, fmt.Errorf("set stock level: %w", err)
		}
		entry := &entity.StockLedgerEntry{
			ProductID:      d.ProductID,
			LocationID:     d.LocationID,
			WarehouseID:    warehouseID,
			DocumentID:     doc.ID,
			DocumentItemID: d.ItemID,
			DocType:        doc.DocType,
			QuantityChange: d.Quantity,
			BalanceAfter:   balances[i],
			CreatedBy:      actorID,
			CreatedAt:      now,
		}
		if err := repos.Ledger.Append(ctx, entry); err != nil {
			return 0, fmt.Errorf("append ledger: %w", err)
		}
	}
	return len(deltas), nil
}

func locationWarehouse(ctx context.Context, master repository.MasterDataRepository, cache map[int64]int64, locationID int64) (int64, error) {
	if id, ok := cache[locationID]; ok {
		return id, nil
	}
	loc, err := master.GetLocation(ctx, locationID)
	if err != nil {
		return 0, fmt.Errorf("get location: %w", err)
	}
	if loc == nil {
		return 0, fmt.Errorf("%w: ubicación %d", domain.ErrReferenceNotFound, locationID)
	}
	cache[locationID] = loc.WarehouseID
	return loc.WarehouseID, nil
}

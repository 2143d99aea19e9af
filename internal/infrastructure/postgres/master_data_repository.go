package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.MasterDataRepository = (*MasterDataRepo)(nil)

// MasterDataRepo lectura de productos, ubicaciones y bodegas (tablas del subsistema de datos maestros).
type MasterDataRepo struct {
	q Querier
}

// NewMasterDataRepository construye el adaptador de lectura.
func NewMasterDataRepository(q Querier) *MasterDataRepo {
	return &MasterDataRepo{q: q}
}

// GetProduct obtiene un producto por ID.
func (r *MasterDataRepo) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, `SELECT id, sku, name, uom, active FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.UoM, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetLocation obtiene una ubicación por ID.
func (r *MasterDataRepo) GetLocation(ctx context.Context, id int64) (*entity.Location, error) {
	var l entity.Location
	err := r.q.QueryRow(ctx, `SELECT id, warehouse_id, code, name, active FROM locations WHERE id = $1`, id).
		Scan(&l.ID, &l.WarehouseID, &l.Code, &l.Name, &l.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// GetWarehouse obtiene una bodega por ID.
func (r *MasterDataRepo) GetWarehouse(ctx context.Context, id int64) (*entity.Warehouse, error) {
	var w entity.Warehouse
	err := r.q.QueryRow(ctx, `SELECT id, code, name, active FROM warehouses WHERE id = $1`, id).
		Scan(&w.ID, &w.Code, &w.Name, &w.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

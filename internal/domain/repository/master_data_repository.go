package repository

import (
	"context"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// MasterDataRepository lectura de datos maestros (colaborador externo, solo lectura).
// Devuelve (nil, nil) cuando el id no existe; la bandera Active se evalúa en el caso de uso.
type MasterDataRepository interface {
	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
	GetLocation(ctx context.Context, id int64) (*entity.Location, error)
	GetWarehouse(ctx context.Context, id int64) (*entity.Warehouse, error)
}

package memory

import "github.com/jhoicas/stockledger/internal/domain/entity"

// SeedDemo carga datos maestros mínimos para desarrollo local con STORE_DRIVER=memory.
func SeedDemo(s *Store) {
	s.PutWarehouse(entity.Warehouse{ID: 1, Code: "WH-MAIN", Name: "Bodega principal", Active: true})
	s.PutLocation(entity.Location{ID: 1, WarehouseID: 1, Code: "A-01", Name: "Estantería A-01", Active: true})
	s.PutLocation(entity.Location{ID: 2, WarehouseID: 1, Code: "B-01", Name: "Estantería B-01", Active: true})
	s.PutLocation(entity.Location{ID: 3, WarehouseID: 1, Code: "DOCK", Name: "Muelle de carga", Active: true})
	s.PutProduct(entity.Product{ID: 1, SKU: "SKU-0001", Name: "Tornillo 1/4", UoM: "UND", Active: true})
	s.PutProduct(entity.Product{ID: 2, SKU: "SKU-0002", Name: "Cable 12 AWG", UoM: "M", Active: true})
	s.PutProduct(entity.Product{ID: 3, SKU: "SKU-0003", Name: "Pintura blanca", UoM: "GL", Active: true})
}

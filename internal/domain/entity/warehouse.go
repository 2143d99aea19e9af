package entity

// Warehouse representa una bodega (datos maestros, solo lectura para el motor).
type Warehouse struct {
	ID     int64
	Code   string
	Name   string
	Active bool
}

// Location representa una ubicación física dentro de una bodega.
type Location struct {
	ID          int64
	WarehouseID int64
	Code        string
	Name        string
	Active      bool
}

package entity

// Product es la vista de solo lectura de un producto que el motor consume de datos maestros.
// La UoM registrada debe coincidir con la de cualquier línea de documento que lo referencie.
type Product struct {
	ID     int64
	SKU    string
	Name   string
	UoM    string // "pcs", "kg", ...
	Active bool
}

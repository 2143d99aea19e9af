package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo implementación de StockLevelRepository sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

// Get obtiene el stock actual de un producto en una ubicación; cero si no hay fila.
func (r *StockLevelRepo) Get(ctx context.Context, productID, locationID int64) (*entity.StockLevel, error) {
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM stock_levels WHERE product_id = $1 AND location_id = $2`
	s, err := scanLevel(r.q.QueryRow(ctx, query, productID, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLevel{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return s, nil
}

// ListByProduct saldos del producto en todas sus ubicaciones.
func (r *StockLevelRepo) ListByProduct(ctx context.Context, productID int64) ([]*entity.StockLevel, error) {
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM stock_levels WHERE product_id = $1 ORDER BY location_id`
	return r.list(ctx, query, productID)
}

// ListAfter página por clave (producto, ubicación); las filas nuevas no desplazan las ya vistas.
func (r *StockLevelRepo) ListAfter(ctx context.Context, afterProductID, afterLocationID int64, limit int) ([]*entity.StockLevel, error) {
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM stock_levels
		WHERE (product_id, location_id) > ($1, $2)
		ORDER BY product_id, location_id LIMIT $3`
	return r.list(ctx, query, afterProductID, afterLocationID, limit)
}

// GetForUpdate crea la fila en cero si no existe y la bloquea (SELECT FOR UPDATE).
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, productID, locationID int64) (*entity.StockLevel, error) {
	insert := `
		INSERT INTO stock_levels (product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id, location_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, productID, locationID); err != nil {
		return nil, fmt.Errorf("ensure stock level: %w", err)
	}
	query := `
		SELECT product_id, location_id, quantity, updated_at
		FROM stock_levels WHERE product_id = $1 AND location_id = $2
		FOR UPDATE`
	s, err := scanLevel(r.q.QueryRow(ctx, query, productID, locationID))
	if err != nil {
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}
	return s, nil
}

// SetQuantity fija la cantidad de una fila bloqueada. El CHECK (quantity >= 0) es la última barrera.
func (r *StockLevelRepo) SetQuantity(ctx context.Context, productID, locationID int64, quantity decimal.Decimal) error {
	query := `
		UPDATE stock_levels SET quantity = $3, updated_at = now()
		WHERE product_id = $1 AND location_id = $2`
	tag, err := r.q.Exec(ctx, query, productID, locationID, quantity)
	if err != nil {
		return fmt.Errorf("update stock level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: nivel de stock %d/%d", domain.ErrNotFound, productID, locationID)
	}
	return nil
}

func (r *StockLevelRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockLevel, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	out := []*entity.StockLevel{}
	for rows.Next() {
		s, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanLevel(row pgx.Row) (*entity.StockLevel, error) {
	var s entity.StockLevel
	if err := row.Scan(&s.ProductID, &s.LocationID, &s.Quantity, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.StockLedgerRepository = (*StockLedgerRepo)(nil)

const ledgerColumns = `id, product_id, location_id, warehouse_id, document_id, document_item_id,
	doc_type, quantity_change, balance_after, created_by, created_at`

// StockLedgerRepo libro de movimientos sobre PostgreSQL. Solo inserta y consulta.
type StockLedgerRepo struct {
	q Querier
}

// NewStockLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLedgerRepository(q Querier) *StockLedgerRepo {
	return &StockLedgerRepo{q: q}
}

// Append inserta una fila y asigna ID.
func (r *StockLedgerRepo) Append(ctx context.Context, e *entity.StockLedgerEntry) error {
	query := `
		INSERT INTO stock_ledger
			(product_id, location_id, warehouse_id, document_id, document_item_id,
			 doc_type, quantity_change, balance_after, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		e.ProductID, e.LocationID, e.WarehouseID, e.DocumentID, e.DocumentItemID,
		e.DocType, e.QuantityChange, e.BalanceAfter, e.CreatedBy, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// List movimientos del producto del más reciente al más antiguo.
func (r *StockLedgerRepo) List(ctx context.Context, filter entity.LedgerFilter) ([]*entity.StockLedgerEntry, error) {
	args := []any{filter.ProductID}
	where := []string{"product_id = $1"}
	if filter.LocationID != nil {
		args = append(args, *filter.LocationID)
		where = append(where, fmt.Sprintf("location_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	args = append(args, filter.Limit, filter.Offset)
	query := `SELECT ` + ledgerColumns + ` FROM stock_ledger WHERE ` + strings.Join(where, " AND ") +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return r.list(ctx, query, args...)
}

// ListByDocument filas generadas por un documento, en orden de inserción.
func (r *StockLedgerRepo) ListByDocument(ctx context.Context, documentID int64) ([]*entity.StockLedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM stock_ledger WHERE document_id = $1 ORDER BY id`
	return r.list(ctx, query, documentID)
}

// Sum suma de quantity_change del par; cero si no hay filas.
func (r *StockLedgerRepo) Sum(ctx context.Context, productID, locationID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity_change), 0)
		FROM stock_ledger WHERE product_id = $1 AND location_id = $2`
	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, productID, locationID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum ledger: %w", err)
	}
	return sum, nil
}

func (r *StockLedgerRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockLedgerEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()
	out := []*entity.StockLedgerEntry{}
	for rows.Next() {
		e, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanLedger(row pgx.Row) (*entity.StockLedgerEntry, error) {
	var e entity.StockLedgerEntry
	err := row.Scan(
		&e.ID, &e.ProductID, &e.LocationID, &e.WarehouseID, &e.DocumentID, &e.DocumentItemID,
		&e.DocType, &e.QuantityChange, &e.BalanceAfter, &e.CreatedBy, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var (
	_ repository.DocumentRepository         = (*DocumentRepo)(nil)
	_ repository.DocumentSequenceRepository = (*SequenceRepo)(nil)
)

const documentColumns = `id, document_no, doc_type, status, warehouse_id, counterparty_name, doc_date,
	created_by, created_at, updated_at, done_at, canceled_at`

const itemColumns = `id, document_id, line_no, product_id, from_location_id, to_location_id,
	quantity, system_qty, counted_qty, difference, uom`

// DocumentRepo implementación de DocumentRepository sobre PostgreSQL (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador de documentos. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

// Create inserta la cabecera y asigna ID.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.InventoryDocument) error {
	query := `
		INSERT INTO inventory_documents
			(document_no, doc_type, status, warehouse_id, counterparty_name, doc_date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		doc.DocumentNo, doc.DocType, doc.Status, doc.WarehouseID, doc.CounterpartyName,
		doc.DocDate, doc.CreatedBy, doc.CreatedAt, doc.UpdatedAt,
	).Scan(&doc.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateDocumentNumber, doc.DocumentNo)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera sin líneas.
func (r *DocumentRepo) GetByID(ctx context.Context, id int64) (*entity.InventoryDocument, error) {
	return r.getOne(ctx, `SELECT `+documentColumns+` FROM inventory_documents WHERE id = $1`, id)
}

// GetForUpdate obtiene la cabecera y bloquea la fila (SELECT FOR UPDATE).
func (r *DocumentRepo) GetForUpdate(ctx context.Context, id int64) (*entity.InventoryDocument, error) {
	return r.getOne(ctx, `SELECT `+documentColumns+` FROM inventory_documents WHERE id = $1 FOR UPDATE`, id)
}

func (r *DocumentRepo) getOne(ctx context.Context, query string, id int64) (*entity.InventoryDocument, error) {
	doc, err := scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// UpdateStatus persiste estado y marcas de tiempo del ciclo de vida.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, doc *entity.InventoryDocument) error {
	query := `
		UPDATE inventory_documents
		SET status = $2, updated_at = $3, done_at = $4, canceled_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, doc.ID, doc.Status, doc.UpdatedAt, doc.DoneAt, doc.CanceledAt)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: documento %d", domain.ErrNotFound, doc.ID)
	}
	return nil
}

// List lista cabeceras del más reciente al más antiguo.
func (r *DocumentRepo) List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.InventoryDocument, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.DocType != "" {
		args = append(args, filter.DocType)
		where = append(where, fmt.Sprintf("doc_type = $%d", len(args)))
	}
	if filter.WarehouseID != 0 {
		args = append(args, filter.WarehouseID)
		where = append(where, fmt.Sprintf("warehouse_id = $%d", len(args)))
	}
	query := `SELECT ` + documentColumns + ` FROM inventory_documents`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	out := []*entity.InventoryDocument{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// ListItems líneas del documento ordenadas por line_no.
func (r *DocumentRepo) ListItems(ctx context.Context, documentID int64) ([]*entity.InventoryDocumentItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_document_items WHERE document_id = $1 ORDER BY line_no`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	out := []*entity.InventoryDocumentItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetItem obtiene una línea del documento; (nil, nil) si no existe o pertenece a otro documento.
func (r *DocumentRepo) GetItem(ctx context.Context, documentID, itemID int64) (*entity.InventoryDocumentItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_document_items WHERE id = $1 AND document_id = $2`
	it, err := scanItem(r.q.QueryRow(ctx, query, itemID, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// AddItem inserta una línea y asigna ID.
func (r *DocumentRepo) AddItem(ctx context.Context, it *entity.InventoryDocumentItem) error {
	query := `
		INSERT INTO inventory_document_items
			(document_id, line_no, product_id, from_location_id, to_location_id,
			 quantity, system_qty, counted_qty, difference, uom)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		it.DocumentID, it.LineNo, it.ProductID, it.FromLocationID, it.ToLocationID,
		it.Quantity, it.SystemQty, it.CountedQty, it.Difference, it.UoM,
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// UpdateItem reemplaza los datos de la línea (line_no no cambia).
func (r *DocumentRepo) UpdateItem(ctx context.Context, it *entity.InventoryDocumentItem) error {
	query := `
		UPDATE inventory_document_items
		SET product_id = $3, from_location_id = $4, to_location_id = $5, quantity = $6,
		    system_qty = $7, counted_qty = $8, difference = $9, uom = $10
		WHERE id = $1 AND document_id = $2`
	tag, err := r.q.Exec(ctx, query,
		it.ID, it.DocumentID, it.ProductID, it.FromLocationID, it.ToLocationID,
		it.Quantity, it.SystemQty, it.CountedQty, it.Difference, it.UoM,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: línea %d", domain.ErrNotFound, it.ID)
	}
	return nil
}

// DeleteItem elimina la línea.
func (r *DocumentRepo) DeleteItem(ctx context.Context, documentID, itemID int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM inventory_document_items WHERE id = $1 AND document_id = $2`, itemID, documentID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: línea %d", domain.ErrNotFound, itemID)
	}
	return nil
}

func scanDocument(row pgx.Row) (*entity.InventoryDocument, error) {
	var d entity.InventoryDocument
	err := row.Scan(
		&d.ID, &d.DocumentNo, &d.DocType, &d.Status, &d.WarehouseID, &d.CounterpartyName, &d.DocDate,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt, &d.DoneAt, &d.CanceledAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanItem(row pgx.Row) (*entity.InventoryDocumentItem, error) {
	var it entity.InventoryDocumentItem
	err := row.Scan(
		&it.ID, &it.DocumentID, &it.LineNo, &it.ProductID, &it.FromLocationID, &it.ToLocationID,
		&it.Quantity, &it.SystemQty, &it.CountedQty, &it.Difference, &it.UoM,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// SequenceRepo contador atómico de números de documento (tabla document_sequences).
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next incrementa y devuelve el contador del tipo; la fila queda bloqueada hasta el fin de la tx.
func (r *SequenceRepo) Next(ctx context.Context, docType entity.DocType) (int64, error) {
	query := `
		INSERT INTO document_sequences (doc_type, last_value) VALUES ($1, 1)
		ON CONFLICT (doc_type) DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`
	var next int64
	if err := r.q.QueryRow(ctx, query, docType).Scan(&next); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return next, nil
}

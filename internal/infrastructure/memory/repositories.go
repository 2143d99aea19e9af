package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var (
	_ repository.MasterDataRepository       = (*MasterDataRepo)(nil)
	_ repository.DocumentRepository         = (*DocumentRepo)(nil)
	_ repository.DocumentSequenceRepository = (*SequenceRepo)(nil)
	_ repository.StockLevelRepository       = (*StockLevelRepo)(nil)
	_ repository.StockLedgerRepository      = (*LedgerRepo)(nil)
)

// MasterDataRepo lectura de datos maestros sembrados.
type MasterDataRepo struct{ s *Store }

func (r *MasterDataRepo) GetProduct(_ context.Context, id int64) (*entity.Product, error) {
	r.s.masterMu.RLock()
	defer r.s.masterMu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *MasterDataRepo) GetLocation(_ context.Context, id int64) (*entity.Location, error) {
	r.s.masterMu.RLock()
	defer r.s.masterMu.RUnlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (r *MasterDataRepo) GetWarehouse(_ context.Context, id int64) (*entity.Warehouse, error) {
	r.s.masterMu.RLock()
	defer r.s.masterMu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	c := *w
	return &c, nil
}

// DocumentRepo documentos y líneas.
type DocumentRepo struct {
	s    *Store
	inTx bool
}

func (r *DocumentRepo) Create(_ context.Context, doc *entity.InventoryDocument) error {
	return r.s.update(r.inTx, func(st *state) error {
		for _, d := range st.docs {
			if d.DocumentNo == doc.DocumentNo {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateDocumentNumber, doc.DocumentNo)
			}
		}
		st.nextDocID++
		doc.ID = st.nextDocID
		st.docs[doc.ID] = copyDoc(doc)
		return nil
	})
}

func (r *DocumentRepo) GetByID(_ context.Context, id int64) (*entity.InventoryDocument, error) {
	var out *entity.InventoryDocument
	err := r.s.view(r.inTx, func(st *state) error {
		if d, ok := st.docs[id]; ok {
			out = copyDoc(d)
		}
		return nil
	})
	return out, err
}

// GetForUpdate en memoria equivale a GetByID: la transacción ya tiene exclusión total.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, id int64) (*entity.InventoryDocument, error) {
	return r.GetByID(ctx, id)
}

func (r *DocumentRepo) UpdateStatus(_ context.Context, doc *entity.InventoryDocument) error {
	return r.s.update(r.inTx, func(st *state) error {
		cur, ok := st.docs[doc.ID]
		if !ok {
			return fmt.Errorf("%w: documento %d", domain.ErrNotFound, doc.ID)
		}
		cur.Status = doc.Status
		cur.UpdatedAt = doc.UpdatedAt
		upd := copyDoc(doc)
		cur.DoneAt, cur.CanceledAt = upd.DoneAt, upd.CanceledAt
		return nil
	})
}

func (r *DocumentRepo) List(_ context.Context, filter entity.DocumentFilter) ([]*entity.InventoryDocument, error) {
	var out []*entity.InventoryDocument
	err := r.s.view(r.inTx, func(st *state) error {
		for _, d := range st.docs {
			if filter.Status != "" && d.Status != filter.Status {
				continue
			}
			if filter.DocType != "" && d.DocType != filter.DocType {
				continue
			}
			if filter.WarehouseID != 0 && d.WarehouseID != filter.WarehouseID {
				continue
			}
			out = append(out, copyDoc(d))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *DocumentRepo) ListItems(_ context.Context, documentID int64) ([]*entity.InventoryDocumentItem, error) {
	out := []*entity.InventoryDocumentItem{}
	err := r.s.view(r.inTx, func(st *state) error {
		for _, it := range st.items {
			if it.DocumentID == documentID {
				out = append(out, copyItem(it))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out, err
}

func (r *DocumentRepo) GetItem(_ context.Context, documentID, itemID int64) (*entity.InventoryDocumentItem, error) {
	var out *entity.InventoryDocumentItem
	err := r.s.view(r.inTx, func(st *state) error {
		if it, ok := st.items[itemID]; ok && it.DocumentID == documentID {
			out = copyItem(it)
		}
		return nil
	})
	return out, err
}

func (r *DocumentRepo) AddItem(_ context.Context, item *entity.InventoryDocumentItem) error {
	return r.s.update(r.inTx, func(st *state) error {
		if _, ok := st.docs[item.DocumentID]; !ok {
			return fmt.Errorf("%w: documento %d", domain.ErrNotFound, item.DocumentID)
		}
		st.nextItemID++
		item.ID = st.nextItemID
		st.items[item.ID] = copyItem(item)
		return nil
	})
}

func (r *DocumentRepo) UpdateItem(_ context.Context, item *entity.InventoryDocumentItem) error {
	return r.s.update(r.inTx, func(st *state) error {
		cur, ok := st.items[item.ID]
		if !ok || cur.DocumentID != item.DocumentID {
			return fmt.Errorf("%w: línea %d", domain.ErrNotFound, item.ID)
		}
		st.items[item.ID] = copyItem(item)
		return nil
	})
}

func (r *DocumentRepo) DeleteItem(_ context.Context, documentID, itemID int64) error {
	return r.s.update(r.inTx, func(st *state) error {
		cur, ok := st.items[itemID]
		if !ok || cur.DocumentID != documentID {
			return fmt.Errorf("%w: línea %d", domain.ErrNotFound, itemID)
		}
		delete(st.items, itemID)
		return nil
	})
}

// SequenceRepo contador por tipo de documento.
type SequenceRepo struct {
	s    *Store
	inTx bool
}

func (r *SequenceRepo) Next(_ context.Context, docType entity.DocType) (int64, error) {
	var next int64
	err := r.s.update(r.inTx, func(st *state) error {
		st.sequences[docType]++
		next = st.sequences[docType]
		return nil
	})
	return next, err
}

// StockLevelRepo saldos por (producto, ubicación).
type StockLevelRepo struct {
	s    *Store
	inTx bool
}

func (r *StockLevelRepo) Get(_ context.Context, productID, locationID int64) (*entity.StockLevel, error) {
	out := &entity.StockLevel{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero}
	err := r.s.view(r.inTx, func(st *state) error {
		if lvl, ok := st.levels[pairKey{productID, locationID}]; ok {
			*out = *lvl
		}
		return nil
	})
	return out, err
}

func (r *StockLevelRepo) ListByProduct(_ context.Context, productID int64) ([]*entity.StockLevel, error) {
	out := []*entity.StockLevel{}
	err := r.s.view(r.inTx, func(st *state) error {
		for _, lvl := range st.levels {
			if lvl.ProductID == productID {
				c := *lvl
				out = append(out, &c)
			}
		}
		return nil
	})
	sortLevels(out)
	return out, err
}

func (r *StockLevelRepo) ListAfter(_ context.Context, afterProductID, afterLocationID int64, limit int) ([]*entity.StockLevel, error) {
	out := []*entity.StockLevel{}
	err := r.s.view(r.inTx, func(st *state) error {
		for k, lvl := range st.levels {
			if k.productID < afterProductID || (k.productID == afterProductID && k.locationID <= afterLocationID) {
				continue
			}
			c := *lvl
			out = append(out, &c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortLevels(out)
	return paginate(out, limit, 0), nil
}

func (r *StockLevelRepo) GetForUpdate(_ context.Context, productID, locationID int64) (*entity.StockLevel, error) {
	out := &entity.StockLevel{}
	err := r.s.update(r.inTx, func(st *state) error {
		k := pairKey{productID, locationID}
		lvl, ok := st.levels[k]
		if !ok {
			lvl = &entity.StockLevel{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero, UpdatedAt: time.Now().UTC()}
			st.levels[k] = lvl
		}
		*out = *lvl
		return nil
	})
	return out, err
}

func (r *StockLevelRepo) SetQuantity(_ context.Context, productID, locationID int64, quantity decimal.Decimal) error {
	return r.s.update(r.inTx, func(st *state) error {
		if quantity.IsNegative() {
			return fmt.Errorf("%w: saldo negativo", domain.ErrInsufficientStock)
		}
		lvl, ok := st.levels[pairKey{productID, locationID}]
		if !ok {
			return fmt.Errorf("%w: nivel de stock %d/%d sin bloquear", domain.ErrNotFound, productID, locationID)
		}
		lvl.Quantity = quantity
		lvl.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// LedgerRepo libro de movimientos, solo inserción.
type LedgerRepo struct {
	s    *Store
	inTx bool
}

func (r *LedgerRepo) Append(_ context.Context, entry *entity.StockLedgerEntry) error {
	return r.s.update(r.inTx, func(st *state) error {
		st.nextLedgerID++
		entry.ID = st.nextLedgerID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}
		c := *entry
		st.ledger = append(st.ledger, &c)
		return nil
	})
}

func (r *LedgerRepo) List(_ context.Context, filter entity.LedgerFilter) ([]*entity.StockLedgerEntry, error) {
	var out []*entity.StockLedgerEntry
	err := r.s.view(r.inTx, func(st *state) error {
		for _, e := range st.ledger {
			if e.ProductID != filter.ProductID {
				continue
			}
			if filter.LocationID != nil && e.LocationID != *filter.LocationID {
				continue
			}
			if filter.From != nil && e.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && e.CreatedAt.After(*filter.To) {
				continue
			}
			c := *e
			out = append(out, &c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *LedgerRepo) ListByDocument(_ context.Context, documentID int64) ([]*entity.StockLedgerEntry, error) {
	out := []*entity.StockLedgerEntry{}
	err := r.s.view(r.inTx, func(st *state) error {
		for _, e := range st.ledger {
			if e.DocumentID == documentID {
				c := *e
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}

func (r *LedgerRepo) Sum(_ context.Context, productID, locationID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.s.view(r.inTx, func(st *state) error {
		for _, e := range st.ledger {
			if e.ProductID == productID && e.LocationID == locationID {
				sum = sum.Add(e.QuantityChange)
			}
		}
		return nil
	})
	return sum, err
}

func sortLevels(levels []*entity.StockLevel) {
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].ProductID != levels[j].ProductID {
			return levels[i].ProductID < levels[j].ProductID
		}
		return levels[i].LocationID < levels[j].LocationID
	})
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

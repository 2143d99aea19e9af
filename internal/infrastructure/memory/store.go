// Package memory implementa los puertos de persistencia en memoria (desarrollo y pruebas).
// Todas las transacciones se serializan con un único mutex; un rollback restaura la foto previa.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	appinv "github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain/entity"
)

type pairKey struct {
	productID  int64
	locationID int64
}

type state struct {
	docs      map[int64]*entity.InventoryDocument
	items     map[int64]*entity.InventoryDocumentItem
	levels    map[pairKey]*entity.StockLevel
	ledger    []*entity.StockLedgerEntry
	sequences map[entity.DocType]int64

	nextDocID    int64
	nextItemID   int64
	nextLedgerID int64
}

func newState() *state {
	return &state{
		docs:      make(map[int64]*entity.InventoryDocument),
		items:     make(map[int64]*entity.InventoryDocumentItem),
		levels:    make(map[pairKey]*entity.StockLevel),
		sequences: make(map[entity.DocType]int64),
	}
}

func (s *state) clone() *state {
	c := &state{
		docs:         make(map[int64]*entity.InventoryDocument, len(s.docs)),
		items:        make(map[int64]*entity.InventoryDocumentItem, len(s.items)),
		levels:       make(map[pairKey]*entity.StockLevel, len(s.levels)),
		ledger:       make([]*entity.StockLedgerEntry, len(s.ledger)),
		sequences:    make(map[entity.DocType]int64, len(s.sequences)),
		nextDocID:    s.nextDocID,
		nextItemID:   s.nextItemID,
		nextLedgerID: s.nextLedgerID,
	}
	for k, v := range s.docs {
		c.docs[k] = copyDoc(v)
	}
	for k, v := range s.items {
		c.items[k] = copyItem(v)
	}
	for k, v := range s.levels {
		lvl := *v
		c.levels[k] = &lvl
	}
	// las filas del libro son inmutables: basta copiar el slice
	copy(c.ledger, s.ledger)
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}

// Store almacén en memoria con datos maestros sembrables.
type Store struct {
	mu    sync.RWMutex
	state *state

	masterMu   sync.RWMutex
	products   map[int64]*entity.Product
	locations  map[int64]*entity.Location
	warehouses map[int64]*entity.Warehouse
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		state:      newState(),
		products:   make(map[int64]*entity.Product),
		locations:  make(map[int64]*entity.Location),
		warehouses: make(map[int64]*entity.Warehouse),
	}
}

// PutProduct siembra o reemplaza un producto.
func (s *Store) PutProduct(p entity.Product) {
	s.masterMu.Lock()
	defer s.masterMu.Unlock()
	s.products[p.ID] = &p
}

// PutLocation siembra o reemplaza una ubicación.
func (s *Store) PutLocation(l entity.Location) {
	s.masterMu.Lock()
	defer s.masterMu.Unlock()
	s.locations[l.ID] = &l
}

// PutWarehouse siembra o reemplaza una bodega.
func (s *Store) PutWarehouse(w entity.Warehouse) {
	s.masterMu.Lock()
	defer s.masterMu.Unlock()
	s.warehouses[w.ID] = &w
}

// MasterData repositorio de datos maestros.
func (s *Store) MasterData() *MasterDataRepo { return &MasterDataRepo{s: s} }

// Documents repositorio de documentos fuera de transacción.
func (s *Store) Documents() *DocumentRepo { return &DocumentRepo{s: s} }

// StockLevels repositorio de saldos fuera de transacción.
func (s *Store) StockLevels() *StockLevelRepo { return &StockLevelRepo{s: s} }

// Ledger repositorio del libro fuera de transacción.
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s: s} }

// Sequences contador de números de documento fuera de transacción.
func (s *Store) Sequences() *SequenceRepo { return &SequenceRepo{s: s} }

// TxRunner implementa inventory.TxRunner sobre el almacén.
type TxRunner struct {
	s *Store
}

var _ appinv.TxRunner = (*TxRunner)(nil)

// NewTxRunner construye el TxRunner en memoria.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con exclusión total. Si fn devuelve error se restaura el estado previo.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos appinv.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snapshot := r.s.state.clone()
	if err := fn(ctx, r.txRepos()); err != nil {
		r.s.state = snapshot
		return err
	}
	return nil
}

// RunSnapshot ejecuta fn de solo lectura con el almacén bloqueado.
func (r *TxRunner) RunSnapshot(ctx context.Context, fn func(ctx context.Context, repos appinv.TxRepos) error) error {
	return r.Run(ctx, fn)
}

func (r *TxRunner) txRepos() appinv.TxRepos {
	return appinv.TxRepos{
		Documents:  &DocumentRepo{s: r.s, inTx: true},
		Sequences:  &SequenceRepo{s: r.s, inTx: true},
		Levels:     &StockLevelRepo{s: r.s, inTx: true},
		Ledger:     &LedgerRepo{s: r.s, inTx: true},
		MasterData: &MasterDataRepo{s: r.s},
	}
}

// view lee el estado; fuera de transacción toma el candado de lectura.
func (s *Store) view(inTx bool, fn func(st *state) error) error {
	if !inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.state)
}

// update modifica el estado; fuera de transacción toma el candado exclusivo.
func (s *Store) update(inTx bool, fn func(st *state) error) error {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.state)
}

func copyDoc(d *entity.InventoryDocument) *entity.InventoryDocument {
	c := *d
	c.Items = nil
	if d.DoneAt != nil {
		t := *d.DoneAt
		c.DoneAt = &t
	}
	if d.CanceledAt != nil {
		t := *d.CanceledAt
		c.CanceledAt = &t
	}
	return &c
}

func copyItem(it *entity.InventoryDocumentItem) *entity.InventoryDocumentItem {
	c := *it
	c.FromLocationID = copyID(it.FromLocationID)
	c.ToLocationID = copyID(it.ToLocationID)
	c.SystemQty = copyDec(it.SystemQty)
	c.CountedQty = copyDec(it.CountedQty)
	c.Difference = copyDec(it.Difference)
	return &c
}

func copyID(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyDec(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/inventory"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

const maxCounterpartyLen = 200

// DocumentUseCase gestiona el ciclo de vida de los documentos de inventario
// (creación, edición de líneas en borrador, avance de estado y contabilización).
type DocumentUseCase struct {
	txRunner  TxRunner
	master    repository.MasterDataRepository
	documents repository.DocumentRepository
	observer  PostingObserver
	log       zerolog.Logger
	now       func() time.Time
}

// NewDocumentUseCase construye el caso de uso. observer puede ser nil.
func NewDocumentUseCase(
	txRunner TxRunner,
	master repository.MasterDataRepository,
	documents repository.DocumentRepository,
	observer PostingObserver,
	log zerolog.Logger,
) *DocumentUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	return &DocumentUseCase{
		txRunner:  txRunner,
		master:    master,
		documents: documents,
		observer:  observer,
		log:       log.With().Str("component", "documents").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateDocumentInput datos para abrir un documento en borrador.
type CreateDocumentInput struct {
	DocType          entity.DocType
	WarehouseID      int64
	DocDate          time.Time
	CounterpartyName string
}

// ItemInput datos de una línea. En ADJUSTMENT Quantity se ignora: se usa CountedQty - SystemQty.
type ItemInput struct {
	ProductID      int64
	FromLocationID *int64
	ToLocationID   *int64
	Quantity       decimal.Decimal
	SystemQty      *decimal.Decimal
	CountedQty     *decimal.Decimal
	UoM            string
}

// CreateDocument valida la bodega y crea el documento en draft con número consecutivo por tipo.
func (uc *DocumentUseCase) CreateDocument(ctx context.Context, actorID int64, in CreateDocumentInput) (*entity.InventoryDocument, error) {
	if actorID <= 0 {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	if !in.DocType.Valid() {
		return nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, in.DocType)
	}
	if in.WarehouseID <= 0 {
		return nil, fmt.Errorf("%w: warehouse_id requerido", domain.ErrInvalidInput)
	}
	name := strings.TrimSpace(norm.NFC.String(in.CounterpartyName))
	if utf8.RuneCountInString(name) > maxCounterpartyLen {
		return nil, fmt.Errorf("%w: counterparty_name supera %d caracteres", domain.ErrInvalidInput, maxCounterpartyLen)
	}

	wh, err := uc.master.GetWarehouse(ctx, in.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	if wh == nil {
		return nil, fmt.Errorf("%w: bodega %d", domain.ErrReferenceNotFound, in.WarehouseID)
	}
	if !wh.Active {
		return nil, fmt.Errorf("%w: bodega %d", domain.ErrInactiveReference, in.WarehouseID)
	}

	now := uc.now()
	docDate := in.DocDate
	if docDate.IsZero() {
		docDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	doc := &entity.InventoryDocument{
		DocType:          in.DocType,
		Status:           entity.StatusDraft,
		WarehouseID:      in.WarehouseID,
		CounterpartyName: name,
		DocDate:          docDate,
		CreatedBy:        actorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		seq, err := repos.Sequences.Next(ctx, in.DocType)
		if err != nil {
			return fmt.Errorf("next document number: %w", err)
		}
		doc.DocumentNo = inventory.FormatDocumentNo(in.DocType, seq)
		return repos.Documents.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	doc.Items = []*entity.InventoryDocumentItem{}
	uc.log.Info().
		Int64("document_id", doc.ID).
		Str("document_no", doc.DocumentNo).
		Str("doc_type", string(doc.DocType)).
		Int64("actor_id", actorID).
		Msg("documento creado")
	return doc, nil
}

// AddItem agrega una línea a un documento en draft.
func (uc *DocumentUseCase) AddItem(ctx context.Context, documentID int64, in ItemInput) (*entity.InventoryDocumentItem, error) {
	doc, err := uc.loadEditable(ctx, documentID)
	if err != nil {
		return nil, err
	}
	item := in.toItem()
	if err := uc.checkReferences(ctx, item); err != nil {
		return nil, err
	}

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		locked, err := lockEditable(ctx, repos, doc.ID)
		if err != nil {
			return err
		}
		if err := prepareItem(ctx, repos, locked.DocType, item); err != nil {
			return err
		}
		items, err := repos.Documents.ListItems(ctx, locked.ID)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		item.DocumentID = locked.ID
		item.LineNo = nextLineNo(items)
		return repos.Documents.AddItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Int64("document_id", doc.ID).Int("line_no", item.LineNo).Msg("línea agregada")
	return item, nil
}

// UpdateItem reemplaza los datos de una línea existente conservando su número de línea.
func (uc *DocumentUseCase) UpdateItem(ctx context.Context, documentID, itemID int64, in ItemInput) (*entity.InventoryDocumentItem, error) {
	doc, err := uc.loadEditable(ctx, documentID)
	if err != nil {
		return nil, err
	}
	item := in.toItem()
	if err := uc.checkReferences(ctx, item); err != nil {
		return nil, err
	}

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		locked, err := lockEditable(ctx, repos, doc.ID)
		if err != nil {
			return err
		}
		current, err := repos.Documents.GetItem(ctx, locked.ID, itemID)
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}
		if current == nil {
			return fmt.Errorf("%w: línea %d", domain.ErrNotFound, itemID)
		}
		if err := prepareItem(ctx, repos, locked.DocType, item); err != nil {
			return err
		}
		item.ID = current.ID
		item.DocumentID = locked.ID
		item.LineNo = current.LineNo
		return repos.Documents.UpdateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem elimina una línea de un documento en draft.
func (uc *DocumentUseCase) RemoveItem(ctx context.Context, documentID, itemID int64) error {
	return uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		locked, err := lockEditable(ctx, repos, documentID)
		if err != nil {
			return err
		}
		current, err := repos.Documents.GetItem(ctx, locked.ID, itemID)
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}
		if current == nil {
			return fmt.Errorf("%w: línea %d", domain.ErrNotFound, itemID)
		}
		return repos.Documents.DeleteItem(ctx, locked.ID, itemID)
	})
}

// AdvanceStatus mueve el documento un paso adelante o lo cancela.
// Al entrar en done contabiliza las líneas en la misma transacción del cambio de estado:
// si la contabilización falla el documento conserva su estado anterior.
func (uc *DocumentUseCase) AdvanceStatus(ctx context.Context, documentID int64, target entity.DocStatus, actorID int64) (*entity.InventoryDocument, error) {
	if actorID <= 0 {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	var (
		doc        *entity.InventoryDocument
		items      []*entity.InventoryDocumentItem
		ledgerRows int
		from       entity.DocStatus
	)
	start := time.Now()
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos TxRepos) error {
		var err error
		ledgerRows = 0
		doc, err = repos.Documents.GetForUpdate(ctx, documentID)
		if err != nil {
			return fmt.Errorf("lock document: %w", err)
		}
		if doc == nil {
			return fmt.Errorf("%w: documento %d", domain.ErrNotFound, documentID)
		}
		from = doc.Status
		if err := inventory.CheckTransition(doc.Status, target); err != nil {
			return err
		}
		items, err = repos.Documents.ListItems(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}

		now := uc.now()
		switch target {
		case entity.StatusReady:
			if len(items) == 0 {
				return fmt.Errorf("%w: %s", domain.ErrEmptyDocument, doc.DocumentNo)
			}
		case entity.StatusDone:
			if len(items) == 0 {
				return fmt.Errorf("%w: %s", domain.ErrEmptyDocument, doc.DocumentNo)
			}
			ledgerRows, err = uc.post(ctx, repos, doc, items, actorID, now)
			if err != nil {
				return err
			}
			doc.DoneAt = &now
		case entity.StatusCanceled:
			doc.CanceledAt = &now
		}
		doc.Status = target
		doc.UpdatedAt = now
		return repos.Documents.UpdateStatus(ctx, doc)
	})
	if err != nil {
		uc.reject(doc, documentID, target, err)
		return nil, err
	}

	doc.Items = items
	uc.observer.DocumentTransitioned(doc.DocType, target)
	ev := uc.log.Info().
		Int64("document_id", doc.ID).
		Str("document_no", doc.DocumentNo).
		Str("doc_type", string(doc.DocType)).
		Str("from", string(from)).
		Str("to", string(target)).
		Int64("actor_id", actorID)
	if target == entity.StatusDone {
		elapsed := time.Since(start)
		uc.observer.DocumentPosted(doc.DocType, ledgerRows, elapsed)
		ev = ev.Int("lines", len(items)).Int("ledger_rows", ledgerRows).Dur("elapsed", elapsed)
	}
	ev.Msg("transición de documento")
	return doc, nil
}

// GetDocument devuelve la cabecera con sus líneas.
func (uc *DocumentUseCase) GetDocument(ctx context.Context, id int64) (*entity.InventoryDocument, error) {
	doc, err := uc.documents.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: documento %d", domain.ErrNotFound, id)
	}
	items, err := uc.documents.ListItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	doc.Items = items
	return doc, nil
}

// ListDocuments lista cabeceras (sin líneas) aplicando filtros opcionales.
func (uc *DocumentUseCase) ListDocuments(ctx context.Context, filter entity.DocumentFilter) ([]*entity.InventoryDocument, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, filter.Status)
	}
	if filter.DocType != "" && !filter.DocType.Valid() {
		return nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, filter.DocType)
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	docs, err := uc.documents.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (uc *DocumentUseCase) reject(doc *entity.InventoryDocument, documentID int64, target entity.DocStatus, err error) {
	var docType entity.DocType
	if doc != nil {
		docType = doc.DocType
	}
	reason := rejectReason(err)
	uc.observer.TransitionRejected(docType, target, reason)

	var shortage *domain.InsufficientStockError
	ev := uc.log.Warn().
		Int64("document_id", documentID).
		Str("to", string(target)).
		Str("reason", reason)
	if errors.As(err, &shortage) {
		ev = ev.Int64("product_id", shortage.ProductID).
			Int64("location_id", shortage.LocationID).
			Str("available", shortage.Available.String()).
			Str("requested", shortage.Requested.String())
	}
	ev.Err(err).Msg("transición rechazada")
}

// loadEditable hace una verificación rápida fuera de la transacción; el estado se vuelve a validar con bloqueo.
func (uc *DocumentUseCase) loadEditable(ctx context.Context, documentID int64) (*entity.InventoryDocument, error) {
	doc, err := uc.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: documento %d", domain.ErrNotFound, documentID)
	}
	if err := inventory.CheckEditable(doc.Status); err != nil {
		return nil, err
	}
	return doc, nil
}

// checkReferences valida producto, ubicaciones y unidad contra los datos maestros.
// Si la línea no trae unidad se toma la del producto.
func (uc *DocumentUseCase) checkReferences(ctx context.Context, item *entity.InventoryDocumentItem) error {
	if item.ProductID <= 0 {
		return fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	product, err := uc.master.GetProduct(ctx, item.ProductID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return fmt.Errorf("%w: producto %d", domain.ErrReferenceNotFound, item.ProductID)
	}
	if !product.Active {
		return fmt.Errorf("%w: producto %d", domain.ErrInactiveReference, item.ProductID)
	}
	for _, id := range inventory.LocationIDs(item) {
		loc, err := uc.master.GetLocation(ctx, id)
		if err != nil {
			return fmt.Errorf("get location: %w", err)
		}
		if loc == nil {
			return fmt.Errorf("%w: ubicación %d", domain.ErrReferenceNotFound, id)
		}
		if !loc.Active {
			return fmt.Errorf("%w: ubicación %d", domain.ErrInactiveReference, id)
		}
	}
	item.UoM = strings.TrimSpace(item.UoM)
	switch {
	case item.UoM == "":
		item.UoM = product.UoM
	case item.UoM != product.UoM:
		return fmt.Errorf("%w: %q, el producto usa %q", domain.ErrUomMismatch, item.UoM, product.UoM)
	}
	return nil
}

func lockEditable(ctx context.Context, repos TxRepos, documentID int64) (*entity.InventoryDocument, error) {
	doc, err := repos.Documents.GetForUpdate(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("lock document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: documento %d", domain.ErrNotFound, documentID)
	}
	if err := inventory.CheckEditable(doc.Status); err != nil {
		return nil, err
	}
	return doc, nil
}

// prepareItem completa system_qty con el stock actual en ajustes y normaliza la línea.
func prepareItem(ctx context.Context, repos TxRepos, docType entity.DocType, item *entity.InventoryDocumentItem) error {
	if docType == entity.DocTypeAdjustment && item.SystemQty == nil {
		if locs := inventory.LocationIDs(item); len(locs) == 1 {
			lvl, err := repos.Levels.Get(ctx, item.ProductID, locs[0])
			if err != nil {
				return fmt.Errorf("get stock level: %w", err)
			}
			qty := lvl.Quantity
			item.SystemQty = &qty
		}
	}
	return inventory.NormalizeItem(docType, item)
}

func nextLineNo(items []*entity.InventoryDocumentItem) int {
	last := 0
	for _, it := range items {
		if it.LineNo > last {
			last = it.LineNo
		}
	}
	return last + 1
}

func (in ItemInput) toItem() *entity.InventoryDocumentItem {
	return &entity.InventoryDocumentItem{
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		SystemQty:      in.SystemQty,
		CountedQty:     in.CountedQty,
		UoM:            in.UoM,
	}
}

// rejectReason etiqueta corta del error para métricas y logs.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrEmptyDocument):
		return "empty_document"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}

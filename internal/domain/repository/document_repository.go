package repository

import (
	"context"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// DocumentRepository define el puerto de persistencia para documentos de inventario y sus líneas.
// GetByID/GetItem devuelven (nil, nil) si no existe, como el resto de adaptadores.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.InventoryDocument) error
	GetByID(ctx context.Context, id int64) (*entity.InventoryDocument, error)
	// GetForUpdate bloquea la cabecera hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id int64) (*entity.InventoryDocument, error)
	UpdateStatus(ctx context.Context, doc *entity.InventoryDocument) error
	List(ctx context.Context, filter entity.DocumentFilter) ([]*entity.InventoryDocument, error)

	ListItems(ctx context.Context, documentID int64) ([]*entity.InventoryDocumentItem, error)
	GetItem(ctx context.Context, documentID, itemID int64) (*entity.InventoryDocumentItem, error)
	AddItem(ctx context.Context, item *entity.InventoryDocumentItem) error
	UpdateItem(ctx context.Context, item *entity.InventoryDocumentItem) error
	DeleteItem(ctx context.Context, documentID, itemID int64) error
}

// DocumentSequenceRepository genera números de documento con un contador atómico del almacén.
type DocumentSequenceRepository interface {
	Next(ctx context.Context, docType entity.DocType) (int64, error)
}

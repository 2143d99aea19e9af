package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// CreateDocumentFromRequest adapta el request HTTP a CreateDocument(ctx, actorID, CreateDocumentInput).
func (uc *DocumentUseCase) CreateDocumentFromRequest(ctx context.Context, actorID int64, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	var docDate time.Time
	if in.DocDate != "" {
		d, err := time.Parse(time.DateOnly, in.DocDate)
		if err != nil {
			return nil, fmt.Errorf("%w: doc_date debe ser AAAA-MM-DD", domain.ErrInvalidInput)
		}
		docDate = d
	}
	doc, err := uc.CreateDocument(ctx, actorID, CreateDocumentInput{
		DocType:          entity.DocType(in.DocType),
		WarehouseID:      in.WarehouseID,
		DocDate:          docDate,
		CounterpartyName: in.CounterpartyName,
	})
	if err != nil {
		return nil, err
	}
	return ToDocumentResponse(doc), nil
}

// AddItemFromRequest adapta el request HTTP a AddItem.
func (uc *DocumentUseCase) AddItemFromRequest(ctx context.Context, documentID int64, in dto.DocumentItemRequest) (*dto.DocumentItemResponse, error) {
	item, err := uc.AddItem(ctx, documentID, itemInputFromRequest(in))
	if err != nil {
		return nil, err
	}
	resp := toItemResponse(item)
	return &resp, nil
}

// UpdateItemFromRequest adapta el request HTTP a UpdateItem.
func (uc *DocumentUseCase) UpdateItemFromRequest(ctx context.Context, documentID, itemID int64, in dto.DocumentItemRequest) (*dto.DocumentItemResponse, error) {
	item, err := uc.UpdateItem(ctx, documentID, itemID, itemInputFromRequest(in))
	if err != nil {
		return nil, err
	}
	resp := toItemResponse(item)
	return &resp, nil
}

// ListDocumentsFromRequest adapta los filtros de query a ListDocuments.
func (uc *DocumentUseCase) ListDocumentsFromRequest(ctx context.Context, in dto.DocumentFilterRequest) (*dto.DocumentListResponse, error) {
	filter := entity.DocumentFilter{
		Status:      entity.DocStatus(in.Status),
		DocType:     entity.DocType(in.DocType),
		WarehouseID: in.WarehouseID,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	docs, err := uc.ListDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}
	limit, offset := clampPage(in.Limit, in.Offset)
	out := &dto.DocumentListResponse{
		Items: make([]dto.DocumentResponse, 0, len(docs)),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}
	for _, d := range docs {
		out.Items = append(out.Items, *ToDocumentResponse(d))
	}
	return out, nil
}

// MovementHistoryFromRequest adapta la query HTTP a MovementHistory.
func (uc *QueryUseCase) MovementHistoryFromRequest(ctx context.Context, in dto.MovementHistoryRequest) (*dto.LedgerPageResponse, error) {
	filter := entity.LedgerFilter{
		ProductID: in.ProductID,
		Limit:     in.Limit,
		Offset:    in.Offset,
	}
	if in.LocationID > 0 {
		loc := in.LocationID
		filter.LocationID = &loc
	}
	var err error
	if filter.From, err = parseTimestamp("from", in.From); err != nil {
		return nil, err
	}
	if filter.To, err = parseTimestamp("to", in.To); err != nil {
		return nil, err
	}
	page, err := uc.MovementHistory(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.LedgerPageResponse{
		Items:   ToLedgerResponses(page.Entries),
		Page:    dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
		HasMore: page.HasMore,
	}, nil
}

func itemInputFromRequest(in dto.DocumentItemRequest) ItemInput {
	return ItemInput{
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		SystemQty:      in.SystemQty,
		CountedQty:     in.CountedQty,
		UoM:            in.UoM,
	}
}

func parseTimestamp(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s debe ser RFC3339", domain.ErrInvalidInput, field)
	}
	return &t, nil
}

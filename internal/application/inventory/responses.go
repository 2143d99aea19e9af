package inventory

import (
	"time"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// ToDocumentResponse convierte la entidad al DTO de salida.
func ToDocumentResponse(d *entity.InventoryDocument) *dto.DocumentResponse {
	resp := &dto.DocumentResponse{
		ID:               d.ID,
		DocumentNo:       d.DocumentNo,
		DocType:          string(d.DocType),
		Status:           string(d.Status),
		WarehouseID:      d.WarehouseID,
		CounterpartyName: d.CounterpartyName,
		DocDate:          d.DocDate.Format(time.DateOnly),
		CreatedBy:        d.CreatedBy,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
		DoneAt:           d.DoneAt,
		CanceledAt:       d.CanceledAt,
	}
	if d.Items != nil {
		resp.Items = make([]dto.DocumentItemResponse, 0, len(d.Items))
		for _, it := range d.Items {
			resp.Items = append(resp.Items, toItemResponse(it))
		}
	}
	return resp
}

func toItemResponse(it *entity.InventoryDocumentItem) dto.DocumentItemResponse {
	return dto.DocumentItemResponse{
		ID:             it.ID,
		LineNo:         it.LineNo,
		ProductID:      it.ProductID,
		FromLocationID: it.FromLocationID,
		ToLocationID:   it.ToLocationID,
		Quantity:       it.Quantity,
		SystemQty:      it.SystemQty,
		CountedQty:     it.CountedQty,
		Difference:     it.Difference,
		UoM:            it.UoM,
	}
}

// ToStockResponses convierte niveles de stock; los pares sin fila salen sin updated_at.
func ToStockResponses(levels []*entity.StockLevel) []dto.StockLevelResponse {
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		r := dto.StockLevelResponse{ProductID: l.ProductID, LocationID: l.LocationID, Quantity: l.Quantity}
		if !l.UpdatedAt.IsZero() {
			t := l.UpdatedAt
			r.UpdatedAt = &t
		}
		out = append(out, r)
	}
	return out
}

// ToLedgerResponses convierte filas del libro.
func ToLedgerResponses(entries []*entity.StockLedgerEntry) []dto.LedgerEntryResponse {
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.LedgerEntryResponse{
			ID:             e.ID,
			ProductID:      e.ProductID,
			LocationID:     e.LocationID,
			WarehouseID:    e.WarehouseID,
			DocumentID:     e.DocumentID,
			DocumentItemID: e.DocumentItemID,
			DocType:        string(e.DocType),
			QuantityChange: e.QuantityChange,
			BalanceAfter:   e.BalanceAfter,
			CreatedBy:      e.CreatedBy,
			CreatedAt:      e.CreatedAt,
		})
	}
	return out
}

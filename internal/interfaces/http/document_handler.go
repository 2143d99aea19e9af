package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// DocumentHandler maneja las peticiones HTTP de documentos de inventario (protegido).
type DocumentHandler struct {
	uc      *inventory.DocumentUseCase
	queries *inventory.QueryUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *inventory.DocumentUseCase, queries *inventory.QueryUseCase) *DocumentHandler {
	return &DocumentHandler{uc: uc, queries: queries}
}

// Create godoc
// @Summary      Crear documento de inventario en borrador
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDocumentRequest  true  "doc_type, warehouse_id, doc_date (AAAA-MM-DD), counterparty_name"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if ok, err := validateRequest(c, &in); !ok {
		return err
	}
	doc, err := h.uc.CreateDocumentFromRequest(c.Context(), GetActorID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// List godoc
// @Summary      Listar documentos
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        status        query  string  false  "draft|waiting|ready|done|canceled"
// @Param        doc_type      query  string  false  "RECEIPT|DELIVERY|TRANSFER|ADJUSTMENT"
// @Param        warehouse_id  query  int     false  "Bodega"
// @Param        limit         query  int     false  "Máximo 500 (defecto 50)"
// @Param        offset        query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.DocumentListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	var in dto.DocumentFilterRequest
	if err := c.QueryParser(&in); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	if ok, err := validateRequest(c, &in); !ok {
		return err
	}
	out, err := h.uc.ListDocumentsFromRequest(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener documento con sus líneas
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/documents/{id} [get]
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "VALIDATION", "id inválido")
	}
	doc, err := h.uc.GetDocument(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToDocumentResponse(doc))
}

// AddItem godoc
// @Summary      Agregar línea (solo draft)
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                      true  "ID del documento"
// @Param        body  body  dto.DocumentItemRequest  true  "Línea"
// @Success      201   {object}  dto.DocumentItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/documents/{id}/items [post]
func (h *DocumentHandler) AddItem(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "VALIDATION", "id inválido")
	}
	var in dto.DocumentItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if ok, err := validateRequest(c, &in); !ok {
		return err
	}
	item, err := h.uc.AddItemFromRequest(c.Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateItem godoc
// @Summary      Modificar línea (solo draft)
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  int                      true  "ID del documento"
// @Param        itemId  path  int                      true  "ID de la línea"
// @Param        body    body  dto.DocumentItemRequest  true  "Línea"
// @Success      200     {object}  dto.DocumentItemResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/inventory/documents/{id}/items/{itemId} [put]
func (h *DocumentHandler) UpdateItem(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	itemID, okItem := paramID(c, "itemId")
	if !ok || !okItem {
		return badRequest(c, "VALIDATION", "id inválido")
	}
	var in dto.DocumentItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if ok, err := validateRequest(c, &in); !ok {
		return err
	}
	item, err := h.uc.UpdateItemFromRequest(c.Context(), id, itemID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(item)
}

// RemoveItem godoc
// @Summary      Eliminar línea (solo draft)
// @Tags         documents
// @Security     Bearer
// @Param        id      path  int  true  "ID del documento"
// @Param        itemId  path  int  true  "ID de la línea"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/documents/{id}/items/{itemId} [delete]
func (h *DocumentHandler) RemoveItem(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	itemID, okItem := paramID(c, "itemId")
	if !ok || !okItem {
		return badRequest(c, "VALIDATION", "id inválido")
	}
	if err := h.uc.RemoveItem(c.Context(), id, itemID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdvanceStatus godoc
// @Summary      Avanzar o cancelar el documento
// @Description  Un paso adelante (draft→waiting→ready→done) o canceled. Entrar en done contabiliza el documento.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id               path    int                       true   "ID del documento"
// @Param        Idempotency-Key  header  string                    false  "UUID para reintentos seguros"
// @Param        body             body    dto.AdvanceStatusRequest  true   "Estado destino"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/inventory/documents/{id}/status [post]
func (h *DocumentHandler) AdvanceStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "VALIDATION", "id inválido")
	}
	var in dto.AdvanceStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if ok, err := validateRequest(c, &in); !ok {
		return err
	}
	doc, err := h.uc.AdvanceStatus(c.Context(), id, entity.DocStatus(in.Status), GetActorID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToDocumentResponse(doc))
}

// Movements godoc
// @Summary      Movimientos del libro generados por el documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del documento"
// @Success      200  {array}   dto.LedgerEntryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/documents/{id}/movements [get]
func (h *DocumentHandler) Movements(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "VALIDATION", "id inválido")
	}
	entries, err := h.queries.DocumentMovements(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToLedgerResponses(entries))
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

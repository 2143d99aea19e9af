package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// errorTable orden de evaluación de errors.Is; el primero que coincide gana.
var errorTable = []errorMapping{
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrReferenceNotFound, fiber.StatusNotFound, "REFERENCE_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInactiveReference, fiber.StatusUnprocessableEntity, "INACTIVE_REFERENCE"},
	{domain.ErrUomMismatch, fiber.StatusUnprocessableEntity, "UOM_MISMATCH"},
	{domain.ErrEmptyDocument, fiber.StatusUnprocessableEntity, "EMPTY_DOCUMENT"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrInvalidState, fiber.StatusConflict, "INVALID_STATE"},
	{domain.ErrImmutableDocument, fiber.StatusConflict, "IMMUTABLE_DOCUMENT"},
	{domain.ErrDuplicateDocumentNumber, fiber.StatusConflict, "DUPLICATE_DOCUMENT_NUMBER"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
}

// writeError traduce errores de dominio a dto.ErrorResponse con el código HTTP correspondiente.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorTable {
		if !errors.Is(err, m.target) {
			continue
		}
		resp := dto.ErrorResponse{Code: m.code, Message: err.Error()}
		var shortage *domain.InsufficientStockError
		if errors.As(err, &shortage) {
			resp.Details = map[string]any{
				"product_id":  shortage.ProductID,
				"location_id": shortage.LocationID,
				"available":   shortage.Available.String(),
				"requested":   shortage.Requested.String(),
			}
		}
		return c.Status(m.status).JSON(resp)
	}
	// el detalle queda en el log de acceso, no en la respuesta
	c.Locals(localError, err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/application/inventory"
)

// SweepEnqueuer lo implementa jobs.Client.
type SweepEnqueuer interface {
	EnqueueReconcileSweep(ctx context.Context, requestedBy int64) (*asynq.TaskInfo, error)
}

// StockHandler consultas de stock, libro y conciliación (protegido).
type StockHandler struct {
	queries *inventory.QueryUseCase
	sweeps  SweepEnqueuer
}

// NewStockHandler construye el handler. sweeps puede ser nil si no hay cola configurada.
func NewStockHandler(queries *inventory.QueryUseCase, sweeps SweepEnqueuer) *StockHandler {
	return &StockHandler{queries: queries, sweeps: sweeps}
}

// CurrentStock godoc
// @Summary      Stock actual por producto (y ubicación)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  int  true   "Producto"
// @Param        location_id  query  int  false  "Ubicación"
// @Success      200  {array}   dto.StockLevelResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *StockHandler) CurrentStock(c *fiber.Ctx) error {
	var in dto.StockQueryRequest
	if err := c.QueryParser(&in); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	if ok, err := validateRequest(c, &in); !ok {
		return err
	}
	var location *int64
	if in.LocationID > 0 {
		location = &in.LocationID
	}
	levels, err := h.queries.CurrentStock(c.Context(), in.ProductID, location)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToStockResponses(levels))
}

// MovementHistory godoc
// @Summary      Historial de movimientos (más reciente primero)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  int     true   "Producto"
// @Param        location_id  query  int     false  "Ubicación"
// @Param        from         query  string  false  "RFC3339"
// @Param        to           query  string  false  "RFC3339"
// @Param        limit        query  int     false  "Máximo 500 (defecto 50)"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.LedgerPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *StockHandler) MovementHistory(c *fiber.Ctx) error {
	var in dto.MovementHistoryRequest
	if err := c.QueryParser(&in); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	if ok, err := validateRequest(c, &in); !ok {
		return err
	}
	page, err := h.queries.MovementHistoryFromRequest(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(page)
}

// Reconcile godoc
// @Summary      Conciliar un par producto/ubicación contra el libro
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  int  true  "Producto"
// @Param        location_id  query  int  true  "Ubicación"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/reconcile [get]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	var in dto.StockQueryRequest
	if err := c.QueryParser(&in); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	if ok, err := validateRequest(c, &in); !ok {
		return err
	}
	if in.LocationID <= 0 {
		return badRequest(c, "VALIDATION", "location_id requerido")
	}
	consistent, err := h.queries.Reconcile(c.Context(), in.ProductID, in.LocationID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReconcileResponse{ProductID: in.ProductID, LocationID: in.LocationID, Consistent: consistent})
}

// EnqueueSweep godoc
// @Summary      Encolar barrido completo de conciliación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      202  {object}  dto.SweepEnqueuedResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/reconcile/sweep [post]
func (h *StockHandler) EnqueueSweep(c *fiber.Ctx) error {
	if h.sweeps == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "UNAVAILABLE", Message: "cola de trabajos no configurada"})
	}
	info, err := h.sweeps.EnqueueReconcileSweep(c.Context(), GetActorID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.SweepEnqueuedResponse{TaskID: info.ID, Queue: info.Queue})
}

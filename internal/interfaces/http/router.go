package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockledger/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Documents   *inventory.DocumentUseCase
	Queries     *inventory.QueryUseCase
	Sweeps      SweepEnqueuer    // opcional
	Idempotency IdempotencyStore // opcional
	JWTSecret   string
	JWTIssuer   string
	Logger      zerolog.Logger
}

// Router registra las rutas de la API bajo /api/inventory.
func Router(app *fiber.App, deps RouterDeps) {
	inv := app.Group("/api/inventory", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	documentHandler := NewDocumentHandler(deps.Documents, deps.Queries)
	inv.Post("/documents", documentHandler.Create)
	inv.Get("/documents", documentHandler.List)
	inv.Get("/documents/:id", documentHandler.Get)
	inv.Post("/documents/:id/items", documentHandler.AddItem)
	inv.Put("/documents/:id/items/:itemId", documentHandler.UpdateItem)
	inv.Delete("/documents/:id/items/:itemId", documentHandler.RemoveItem)
	inv.Post("/documents/:id/status", Idempotency(deps.Idempotency, deps.Logger), documentHandler.AdvanceStatus)
	inv.Get("/documents/:id/movements", documentHandler.Movements)

	stockHandler := NewStockHandler(deps.Queries, deps.Sweeps)
	inv.Get("/stock", stockHandler.CurrentStock)
	inv.Get("/movements", stockHandler.MovementHistory)
	inv.Get("/reconcile", stockHandler.Reconcile)
	inv.Post("/reconcile/sweep", stockHandler.EnqueueSweep)
}

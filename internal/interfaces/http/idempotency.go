package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/infrastructure/cache"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

// IdempotencyStore lo implementa cache.IdempotencyStore.
type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (*cache.StoredResponse, error)
	Complete(ctx context.Context, key string, statusCode int, body []byte) error
	Release(ctx context.Context, key string) error
}

// Idempotency repite la respuesta guardada cuando llega otra vez la misma Idempotency-Key (UUID)
// para el mismo actor y documento. Sin cabecera o sin store la petición pasa tal cual.
// Si Redis falla se continúa sin garantía de idempotencia; el bloqueo de fila sigue evitando doble contabilización.
func Idempotency(store IdempotencyStore, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(headerIdempotencyKey)
		if key == "" || store == nil {
			return c.Next()
		}
		if _, err := uuid.Parse(key); err != nil {
			return badRequest(c, "VALIDATION", "Idempotency-Key debe ser un UUID")
		}
		scoped := fmt.Sprintf("%d:%s:%s:%s", GetActorID(c), c.Route().Path, c.Params("id"), key)

		stored, err := store.Begin(c.Context(), scoped)
		switch {
		case errors.Is(err, cache.ErrRequestInProgress):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "petición con la misma Idempotency-Key en curso"})
		case err != nil:
			log.Warn().Err(err).Msg("idempotencia no disponible")
			return c.Next()
		case stored != nil:
			c.Set(headerReplayed, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(stored.StatusCode).Send(stored.Body)
		}

		// La clave se libera en toda salida sin respuesta guardada, incluido un panic del handler.
		completed := false
		defer func() {
			if completed {
				return
			}
			if err := store.Release(context.WithoutCancel(c.Context()), scoped); err != nil {
				log.Warn().Err(err).Msg("no se pudo liberar Idempotency-Key")
			}
		}()

		chainErr := c.Next()
		status := c.Response().StatusCode()
		if chainErr != nil || status >= fiber.StatusInternalServerError {
			return chainErr
		}
		body := append([]byte(nil), c.Response().Body()...)
		if err := store.Complete(c.Context(), scoped, status, body); err != nil {
			log.Warn().Err(err).Msg("no se pudo guardar respuesta idempotente")
			return nil
		}
		completed = true
		return nil
	}
}

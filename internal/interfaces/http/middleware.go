package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	headerRequestID = "X-Request-ID"
	localError      = "handler_error"
)

// RequestLogger asigna un request id (o respeta el recibido) y escribe una línea de acceso por petición.
// Las respuestas 5xx se registran en nivel error con el error interno.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqID := c.Get(headerRequestID)
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}
		c.Locals(LocalRequestID, reqID)
		c.Set(headerRequestID, reqID)

		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			if fe, ok := chainErr.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		if handlerErr, ok := c.Locals(localError).(error); ok {
			ev = ev.AnErr("internal_error", handlerErr)
		}
		if chainErr != nil {
			ev = ev.Err(chainErr)
		}
		ev.Str("request_id", reqID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Int64("actor_id", GetActorID(c)).
			Str("role", GetRole(c)).
			Dur("latency", time.Since(start)).
			Msg("http request")
		return chainErr
	}
}

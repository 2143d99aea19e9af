package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/pkg/jwt"
)

// Locals keys en Fiber.
const (
	LocalActorID   = "actor_id"
	LocalRole      = "role"
	LocalRequestID = "request_id"
)

// AuthMiddleware valida el Bearer Token JWT (emitido por el subsistema de autenticación)
// y deja el id del actor en c.Locals. El motor no autentica ni autoriza por sí mismo.
func AuthMiddleware(jwtSecret, issuer string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		actorID, role, err := jwt.Parse(jwtSecret, issuer, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalActorID, actorID)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

// GetActorID devuelve el id del actor autenticado (0 si el middleware no corrió).
func GetActorID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(LocalActorID).(int64)
	return id
}

// GetRole devuelve el rol del token, si lo trae.
func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(LocalRole).(string)
	return role
}

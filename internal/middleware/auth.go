package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/pertepiece/backend/internal/config"
	"github.com/pertepiece/backend/internal/dto"
	"github.com/pertepiece/backend/internal/session"
)

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// NoRecovery rejects sessions opened from a password reset link. Such a
// session may only read the current user and set a new password.
func NoRecovery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if session.IsRecovery(c) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Please set a new password first",
			})
		}
		return c.Next()
	}
}

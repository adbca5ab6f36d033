package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/pertepiece/backend/internal/dto"
	"github.com/pertepiece/backend/internal/services"
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

// declarationError maps store errors to responses. Unexpected errors are
// logged and reported as a generic 500.
func declarationError(c *fiber.Ctx, action string, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorJSON(c, fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Declaration not found")
	case errors.Is(err, services.ErrNotPermitted):
		return errorJSON(c, fiber.StatusForbidden, "You are not allowed to modify this declaration")
	case errors.Is(err, services.ErrInvalidStatus):
		return errorJSON(c, fiber.StatusBadRequest, "Invalid status")
	}
	slog.Error("declaration request failed", "action", action, "path", c.Path(), "error", err)
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}

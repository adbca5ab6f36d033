package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/config"
	"github.com/pertepiece/backend/internal/dto"
	"github.com/pertepiece/backend/internal/models"
	"github.com/pertepiece/backend/internal/session"
)

// RoleLookup resolves the profile role of a user.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID uuid.UUID) (string, error)
}

// AdminRequired admits the caller when one of these holds:
// 1. the X-Admin-Token header matches the configured token
// 2. the JWT email or subject is in the configured admin lists
// 3. the profile role is ADMIN
func AdminRequired(roles RoleLookup, cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)
	adminUserIDs := parseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			session.MarkAdmin(c)
			return c.Next()
		}

		userID, err := session.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		email := strings.ToLower(session.GetEmail(c))
		if contains(adminEmails, email) || contains(adminUserIDs, userID.String()) {
			session.MarkAdmin(c)
			return c.Next()
		}

		if role, err := roles.RoleOf(c.UserContext(), userID); err == nil && role == models.RoleAdmin {
			session.MarkAdmin(c)
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(p))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}

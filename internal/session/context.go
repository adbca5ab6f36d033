package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const adminLocal = "is_admin"

var ErrNoSession = errors.New("invalid token in context")

func claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, ErrNoSession
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	claims, err := claims(c)
	if err != nil {
		return uuid.Nil, err
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

func GetEmail(c *fiber.Ctx) string {
	claims, err := claims(c)
	if err != nil {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}

// IsRecovery reports whether the session was opened from a password reset link.
func IsRecovery(c *fiber.Ctx) bool {
	claims, err := claims(c)
	if err != nil {
		return false
	}
	recovery, _ := claims["recovery"].(bool)
	return recovery
}

// MarkAdmin is called by the admin middleware once the caller is vetted.
func MarkAdmin(c *fiber.Ctx) {
	c.Locals(adminLocal, true)
}

func IsAdmin(c *fiber.Ctx) bool {
	admin, _ := c.Locals(adminLocal).(bool)
	return admin
}

package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/idempotency"
	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/dto"
	"github.com/pertepiece/backend/internal/session"
)

const IdempotencyKeyHeader = "X-Idempotency-Key"

// Idempotent replays the first response for a repeated X-Idempotency-Key on
// unsafe methods. Requests without the header pass through.
//
// The cached entry is keyed by caller, method and path as well as the client
// key, so two users or two endpoints never share a replay.
func Idempotent(lifetime time.Duration) fiber.Handler {
	replay := idempotency.New(idempotency.Config{
		Lifetime:  lifetime,
		KeyHeader: IdempotencyKeyHeader,
		// The client part is checked before scoping.
		KeyHeaderValidate: func(string) error { return nil },
	})

	return func(c *fiber.Ctx) error {
		key := c.Get(IdempotencyKeyHeader)
		if key == "" || fiber.IsMethodSafe(c.Method()) {
			return replay(c)
		}
		if _, err := uuid.Parse(key); err != nil || len(key) != 36 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "X-Idempotency-Key must be a UUID",
			})
		}

		c.Request().Header.Set(IdempotencyKeyHeader, scopedKey(c, key))
		return replay(c)
	}
}

func scopedKey(c *fiber.Ctx, clientKey string) string {
	caller := "anonymous"
	if userID, err := session.GetUserID(c); err == nil {
		caller = userID.String()
	}
	return strings.Join([]string{caller, c.Method(), c.Path(), strings.ToLower(clientKey)}, ":")
}

package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v3"
)

const HeaderSyncSecret = "X-Sync-Secret"

// SyncSecret guards server-to-server endpoints with a shared secret. An empty
// secret disables the route entirely.
func SyncSecret(secret string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if secret == "" {
			return NewAppError(fiber.StatusNotFound, "Not found", nil, nil)
		}
		got := c.Get(HeaderSyncSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return NewAppError(fiber.StatusUnauthorized, "Invalid sync secret", nil, nil)
		}
		return c.Next()
	}
}

package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
)

const HeaderRequestTimeout = "X-Request-Timeout"

// Timeout attaches a deadline to the request context. Clients may ask for a
// different one with X-Request-Timeout (a Go duration), capped at max.
func Timeout(def, max time.Duration) fiber.Handler {
	return func(c fiber.Ctx) error {
		d := def
		if raw := c.Get(HeaderRequestTimeout); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil || parsed <= 0 {
				return NewAppError(fiber.StatusBadRequest, "invalid "+HeaderRequestTimeout+" header", nil, err)
			}
			d = parsed
		}
		if max > 0 && d > max {
			d = max
		}
		if d <= 0 {
			return c.Next()
		}

		ctx, cancel := context.WithTimeout(c.Context(), d)
		defer cancel()
		c.SetContext(ctx)
		return c.Next()
	}
}

package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// StructuredLogger logs one line per request through slog. Errors from the
// chain are passed to the app's error handler first so the logged status is
// the one sent to the client.
func StructuredLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		if identity, ok := CurrentIdentity(c); ok {
			fields = append(fields, slog.Uint64("user_id", uint64(identity.UserID)))
		}

		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			logger.Error("request failed", fields...)
		} else {
			logger.Info("request processed", fields...)
		}
		return nil
	}
}

package handlers

import (
	"log/slog"

	"sharebite/internal/flash"
	"sharebite/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// render writes page inside the layout, adding pending flash messages and the
// current identity to data.
func render(c *fiber.Ctx, flashes *flash.Store, status int, page string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	messages, err := flashes.Pop(c)
	if err != nil {
		slog.WarnContext(c.UserContext(), "failed to read flash messages", "error", err)
	}
	data["Flashes"] = messages
	if identity, ok := middleware.CurrentIdentity(c); ok {
		data["Identity"] = identity
	}
	return c.Status(status).Render(page, data, "layout")
}

// redirectWithFlash stores a flash message and redirects to location.
func redirectWithFlash(c *fiber.Ctx, flashes *flash.Store, category, text, location string) error {
	if err := flashes.Add(c, category, text); err != nil {
		slog.WarnContext(c.UserContext(), "failed to store flash message", "error", err)
	}
	return c.Redirect(location)
}

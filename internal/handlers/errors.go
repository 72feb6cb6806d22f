package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// ErrorHandler is the application-wide fiber error handler. API callers get
// JSON, browsers get the error page.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Something went wrong. Please try again."

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			message = fe.Message
		}
	}
	if code >= fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	}

	path := c.Path()
	switch {
	case strings.HasPrefix(path, "/api/"):
		return c.Status(code).JSON(fiber.Map{"error": message})
	case strings.HasPrefix(path, "/claim/"):
		return c.Status(code).JSON(fiber.Map{"success": false, "message": message})
	}

	renderErr := c.Status(code).Render("error", fiber.Map{
		"Title":   utils.StatusMessage(code),
		"Message": message,
	}, "layout")
	if renderErr != nil {
		return c.Status(code).SendString(message)
	}
	return nil
}

package middleware

import (
	"errors"
	"log/slog"
	"time"

	"sharebite/internal/flash"
	"sharebite/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie holding the signed session token.
const SessionCookie = "sharebite_session"

const identityKey = "identity"

// LoadIdentity verifies the session cookie, if any, and stores the identity
// in the request locals. Requests without a valid token continue anonymously;
// a tampered or expired cookie, or one naming an unknown user, is cleared.
func LoadIdentity(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			return c.Next()
		}

		identity, err := authService.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) {
				slog.DebugContext(c.UserContext(), "session token rejected", "error", err)
				ClearSessionCookie(c)
			} else {
				slog.WarnContext(c.UserContext(), "failed to load session user", "error", err)
			}
			return c.Next()
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// RequireLogin guards page routes: anonymous visitors are redirected to the
// login page with message flashed.
func RequireLogin(flashes *flash.Store, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentIdentity(c); ok {
			return c.Next()
		}
		if err := flashes.Add(c, flash.Error, message); err != nil {
			slog.WarnContext(c.UserContext(), "failed to store flash message", "error", err)
		}
		return c.Redirect("/login")
	}
}

// RequireLoginJSON guards API routes: anonymous callers get a structured
// failure instead of a redirect.
func RequireLoginJSON(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentIdentity(c); ok {
			return c.Next()
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}
}

// CurrentIdentity returns the authenticated identity of the request.
func CurrentIdentity(c *fiber.Ctx) (*services.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*services.Identity)
	return identity, ok && identity != nil
}

// SetSessionCookie stores token in an HttpOnly cookie valid for ttl.
func SetSessionCookie(c *fiber.Ctx, token string, ttl time.Duration, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

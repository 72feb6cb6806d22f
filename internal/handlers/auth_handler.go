package handlers

import (
	"errors"
	"log/slog"

	"sharebite/internal/flash"
	"sharebite/internal/middleware"
	"sharebite/internal/repositories"
	"sharebite/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// RegisterForm is the payload of POST /register.
type RegisterForm struct {
	Username string `form:"username" validate:"required"`
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// LoginForm is the payload of POST /login.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// AuthHandler handles HTTP requests for registration and sessions.
type AuthHandler struct {
	authService   *services.AuthService
	flashes       *flash.Store
	validate      *validator.Validate
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler. secureCookies marks the session
// cookie Secure and should be set when served over HTTPS.
func NewAuthHandler(authService *services.AuthService, flashes *flash.Store, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		flashes:       flashes,
		validate:      validator.New(),
		secureCookies: secureCookies,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/register", h.ShowRegister)
	router.Post("/register", h.HandleRegister)
	router.Get("/login", h.ShowLogin)
	router.Post("/login", h.HandleLogin)
	router.Get("/logout", h.HandleLogout)
}

// ShowRegister renders the registration form.
func (h *AuthHandler) ShowRegister(c *fiber.Ctx) error {
	return render(c, h.flashes, fiber.StatusOK, "register", fiber.Map{"Title": "Register", "Form": RegisterForm{}})
}

// HandleRegister creates a new account.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var form RegisterForm
	if err := c.BodyParser(&form); err != nil {
		return h.registerFailed(c, fiber.StatusBadRequest, form, "Please fill in all fields.")
	}
	if err := h.validate.Struct(form); err != nil {
		return h.registerFailed(c, fiber.StatusBadRequest, form, "Please fill in all fields.")
	}

	_, err := h.authService.RegisterUser(c.UserContext(), form.Username, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateIdentity) {
			return h.registerFailed(c, fiber.StatusConflict, form, "Username or email already exists!")
		}
		slog.ErrorContext(c.UserContext(), "registration failed", "username", form.Username, "error", err)
		return h.registerFailed(c, fiber.StatusInternalServerError, form, "Registration failed. Please try again.")
	}

	return redirectWithFlash(c, h.flashes, flash.Success, "Registration successful! Please log in.", "/login")
}

func (h *AuthHandler) registerFailed(c *fiber.Ctx, status int, form RegisterForm, message string) error {
	form.Password = ""
	return render(c, h.flashes, status, "register", fiber.Map{
		"Title": "Register",
		"Form":  form,
		"Error": message,
	})
}

// ShowLogin renders the login form.
func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	return render(c, h.flashes, fiber.StatusOK, "login", fiber.Map{"Title": "Log in", "Form": LoginForm{}})
}

// HandleLogin authenticates the user and starts a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var form LoginForm
	if err := c.BodyParser(&form); err != nil {
		return h.loginFailed(c, fiber.StatusBadRequest, form, "Please fill in all fields.")
	}
	if err := h.validate.Struct(form); err != nil {
		return h.loginFailed(c, fiber.StatusBadRequest, form, "Please fill in all fields.")
	}

	token, identity, err := h.authService.LoginUser(c.UserContext(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return h.loginFailed(c, fiber.StatusUnauthorized, form, "Invalid username or password!")
		}
		slog.ErrorContext(c.UserContext(), "login failed", "username", form.Username, "error", err)
		return h.loginFailed(c, fiber.StatusInternalServerError, form, "Login failed. Please try again.")
	}

	middleware.SetSessionCookie(c, token, h.authService.SessionTTL(), h.secureCookies)
	slog.InfoContext(c.UserContext(), "user logged in", "user_id", identity.UserID)
	return redirectWithFlash(c, h.flashes, flash.Success, "Login successful!", "/")
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, status int, form LoginForm, message string) error {
	form.Password = ""
	return render(c, h.flashes, status, "login", fiber.Map{
		"Title": "Log in",
		"Form":  form,
		"Error": message,
	})
}

// HandleLogout ends the session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c)
	if err := h.flashes.Reset(c); err != nil {
		slog.WarnContext(c.UserContext(), "failed to reset flash session", "error", err)
	}
	return redirectWithFlash(c, h.flashes, flash.Info, "You have been logged out.", "/")
}

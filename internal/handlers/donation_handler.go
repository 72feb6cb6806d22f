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

// DonationForm is the payload of POST /donate.
type DonationForm struct {
	FoodName    string `form:"food_name" validate:"required"`
	Quantity    string `form:"quantity" validate:"required"`
	Location    string `form:"location" validate:"required"`
	ContactInfo string `form:"contact_info" validate:"required"`
}

// DonationHandler handles HTTP requests for listing, posting and claiming
// donations.
type DonationHandler struct {
	donationService *services.DonationService
	flashes         *flash.Store
	validate        *validator.Validate
}

// NewDonationHandler creates a new DonationHandler.
func NewDonationHandler(donationService *services.DonationService, flashes *flash.Store) *DonationHandler {
	return &DonationHandler{
		donationService: donationService,
		flashes:         flashes,
		validate:        validator.New(),
	}
}

// RegisterRoutes registers the donation routes with the Fiber app.
func (h *DonationHandler) RegisterRoutes(router fiber.Router) {
	pageAuth := middleware.RequireLogin(h.flashes, "Please log in to donate.")
	apiAuth := middleware.RequireLoginJSON("Please log in to claim food.")

	router.Get("/", h.Index)
	router.Get("/donate", pageAuth, h.ShowDonate)
	router.Post("/donate", pageAuth, h.HandleDonate)
	router.Post("/claim/:id", apiAuth, h.HandleClaim)
	router.Get("/api/search", h.HandleSearch)
}

// Index lists all unclaimed donations.
func (h *DonationHandler) Index(c *fiber.Ctx) error {
	donations, err := h.donationService.ListAvailable(c.UserContext())
	if err != nil {
		slog.ErrorContext(c.UserContext(), "failed to list donations", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load donations.")
	}
	return render(c, h.flashes, fiber.StatusOK, "index", fiber.Map{"Donations": donations})
}

// ShowDonate renders the donation form.
func (h *DonationHandler) ShowDonate(c *fiber.Ctx) error {
	return render(c, h.flashes, fiber.StatusOK, "donate", fiber.Map{"Title": "Donate food", "Form": DonationForm{}})
}

// HandleDonate posts a new donation owned by the logged-in user.
func (h *DonationHandler) HandleDonate(c *fiber.Ctx) error {
	identity, _ := middleware.CurrentIdentity(c)

	var form DonationForm
	if err := c.BodyParser(&form); err != nil {
		return h.donateFailed(c, fiber.StatusBadRequest, form, "Please fill in all fields.")
	}
	if err := h.validate.Struct(form); err != nil {
		return h.donateFailed(c, fiber.StatusBadRequest, form, "Please fill in all fields.")
	}

	_, err := h.donationService.CreateDonation(c.UserContext(), identity.UserID, services.DonationInput{
		FoodName:    form.FoodName,
		Quantity:    form.Quantity,
		Location:    form.Location,
		ContactInfo: form.ContactInfo,
	})
	if err != nil {
		slog.ErrorContext(c.UserContext(), "failed to create donation", "user_id", identity.UserID, "error", err)
		return h.donateFailed(c, fiber.StatusInternalServerError, form, "Could not post donation. Please try again.")
	}

	return redirectWithFlash(c, h.flashes, flash.Success, "Food donation posted successfully!", "/")
}

func (h *DonationHandler) donateFailed(c *fiber.Ctx, status int, form DonationForm, message string) error {
	return render(c, h.flashes, status, "donate", fiber.Map{
		"Title": "Donate food",
		"Form":  form,
		"Error": message,
	})
}

// HandleClaim atomically claims a donation for the logged-in user.
func (h *DonationHandler) HandleClaim(c *fiber.Ctx) error {
	identity, _ := middleware.CurrentIdentity(c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid donation id.",
		})
	}

	err = h.donationService.ClaimDonation(c.UserContext(), uint(id), identity.UserID)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Food claimed successfully!",
		})
	case errors.Is(err, repositories.ErrDonationUnavailable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Food is no longer available.",
		})
	default:
		slog.ErrorContext(c.UserContext(), "claim failed", "donation_id", id, "user_id", identity.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Could not claim food. Please try again.",
		})
	}
}

// HandleSearch returns unclaimed donations matching the search query as JSON.
func (h *DonationHandler) HandleSearch(c *fiber.Ctx) error {
	donations, err := h.donationService.Search(c.UserContext(), c.Query("search"))
	if err != nil {
		slog.ErrorContext(c.UserContext(), "search failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Search failed. Please try again.",
		})
	}
	return c.JSON(donations)
}

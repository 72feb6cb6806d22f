package repositories

import (
	"context"

	"sharebite/internal/models"
)

// DonationRepository defines the interface for donation data access.
type DonationRepository interface {
	Create(ctx context.Context, donation *models.Donation) error
	GetByID(ctx context.Context, id uint) (*models.Donation, error)
	// ListAvailable returns unclaimed donations, newest first.
	ListAvailable(ctx context.Context) ([]models.DonationListing, error)
	// SearchAvailable returns unclaimed donations whose food name or location
	// contains term, case-insensitively, newest first.
	SearchAvailable(ctx context.Context, term string) ([]models.DonationListing, error)
	// Claim marks the donation claimed by userID. It returns
	// ErrDonationUnavailable when the donation is absent or already claimed.
	Claim(ctx context.Context, id, userID uint) error
}

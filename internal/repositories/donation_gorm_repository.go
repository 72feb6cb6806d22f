package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sharebite/internal/models"

	"gorm.io/gorm"
)

// GORMDonationRepository is a GORM implementation of DonationRepository.
type GORMDonationRepository struct {
	db *gorm.DB
}

// NewGORMDonationRepository creates a new instance of GORMDonationRepository.
func NewGORMDonationRepository(db *gorm.DB) *GORMDonationRepository {
	return &GORMDonationRepository{
		db: db,
	}
}

// Create inserts a new, unclaimed donation.
func (r *GORMDonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	donation.IsClaimed = false
	donation.ClaimedBy = nil
	if err := r.db.WithContext(ctx).Create(donation).Error; err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}
	return nil
}

// GetByID retrieves a single donation by its ID.
func (r *GORMDonationRepository) GetByID(ctx context.Context, id uint) (*models.Donation, error) {
	var donation models.Donation
	if err := r.db.WithContext(ctx).First(&donation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("donation with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get donation by ID %d: %w", id, err)
	}
	return &donation, nil
}

// ListAvailable retrieves all unclaimed donations joined with their donor's username.
func (r *GORMDonationRepository) ListAvailable(ctx context.Context) ([]models.DonationListing, error) {
	listings := []models.DonationListing{}
	if err := r.available(ctx).Scan(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to list available donations: %w", err)
	}
	return nonNil(listings), nil
}

// SearchAvailable filters unclaimed donations by a case-insensitive substring
// match on food name or location. An empty term lists everything available.
func (r *GORMDonationRepository) SearchAvailable(ctx context.Context, term string) ([]models.DonationListing, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.ListAvailable(ctx)
	}

	// SQLite's LOWER only folds ASCII, so filter there with Go's case folding.
	if r.db.Dialector.Name() == "sqlite" {
		all, err := r.ListAvailable(ctx)
		if err != nil {
			return nil, err
		}
		listings := []models.DonationListing{}
		for _, l := range all {
			if matchesTerm(l.FoodName, l.Location, term) {
				listings = append(listings, l)
			}
		}
		return listings, nil
	}

	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	listings := []models.DonationListing{}
	err := r.available(ctx).
		Where("(LOWER(fd.food_name) LIKE ? ESCAPE '\\' OR LOWER(fd.location) LIKE ? ESCAPE '\\')", pattern, pattern).
		Scan(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search donations for %q: %w", term, err)
	}
	return nonNil(listings), nil
}

// Claim flips is_claimed and records the claimer in one conditional UPDATE.
// The is_claimed predicate is evaluated by the database under its row lock,
// so of several concurrent claims exactly one sees an affected row.
func (r *GORMDonationRepository) Claim(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ? AND is_claimed = ?", id, false).
		Updates(map[string]interface{}{
			"is_claimed": true,
			"claimed_by": userID,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to claim donation %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("donation with ID %d: %w", id, ErrDonationUnavailable)
	}
	return nil
}

func (r *GORMDonationRepository) available(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("food_donations AS fd").
		Select("fd.*, u.username AS donor_name").
		Joins("JOIN users u ON fd.donor_id = u.id").
		Where("fd.is_claimed = ?", false).
		Order("fd.created_at DESC").
		Order("fd.id DESC")
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// matchesTerm reports whether term occurs in food or location, ignoring case.
func matchesTerm(food, location, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(food), term) ||
		strings.Contains(strings.ToLower(location), term)
}

func nonNil(listings []models.DonationListing) []models.DonationListing {
	if listings == nil {
		return []models.DonationListing{}
	}
	return listings
}

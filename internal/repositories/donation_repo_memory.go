package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"sharebite/internal/models"
)

// InMemoryDonationRepository is an in-memory implementation of DonationRepository.
// Donor names are resolved through the user repository it was built with.
type InMemoryDonationRepository struct {
	donations map[uint]models.Donation
	users     *InMemoryUserRepository
	nextID    uint
	mu        sync.RWMutex
}

// NewInMemoryDonationRepository creates a new instance of InMemoryDonationRepository.
func NewInMemoryDonationRepository(users *InMemoryUserRepository) *InMemoryDonationRepository {
	return &InMemoryDonationRepository{
		donations: make(map[uint]models.Donation),
		users:     users,
		nextID:    1,
	}
}

// Create adds a new, unclaimed donation.
func (r *InMemoryDonationRepository) Create(_ context.Context, donation *models.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	donation.ID = r.nextID
	r.nextID++
	donation.IsClaimed = false
	donation.ClaimedBy = nil
	donation.CreatedAt = time.Now()
	r.donations[donation.ID] = *donation
	return nil
}

// GetByID returns a donation by ID.
func (r *InMemoryDonationRepository) GetByID(_ context.Context, id uint) (*models.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	donation, ok := r.donations[id]
	if !ok {
		return nil, fmt.Errorf("donation with ID %d: %w", id, ErrNotFound)
	}
	return &donation, nil
}

// ListAvailable returns unclaimed donations, newest first.
func (r *InMemoryDonationRepository) ListAvailable(ctx context.Context) ([]models.DonationListing, error) {
	return r.SearchAvailable(ctx, "")
}

// SearchAvailable returns unclaimed donations matching term on food name or location.
func (r *InMemoryDonationRepository) SearchAvailable(_ context.Context, term string) ([]models.DonationListing, error) {
	term = strings.TrimSpace(term)

	r.mu.RLock()
	matches := make([]models.Donation, 0, len(r.donations))
	for _, d := range r.donations {
		if d.IsClaimed {
			continue
		}
		if term != "" && !matchesTerm(d.FoodName, d.Location, term) {
			continue
		}
		matches = append(matches, d)
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	listings := make([]models.DonationListing, 0, len(matches))
	for _, d := range matches {
		listings = append(listings, models.DonationListing{
			ID:          d.ID,
			FoodName:    d.FoodName,
			Quantity:    d.Quantity,
			Location:    d.Location,
			ContactInfo: d.ContactInfo,
			DonorID:     d.DonorID,
			IsClaimed:   d.IsClaimed,
			ClaimedBy:   d.ClaimedBy,
			CreatedAt:   d.CreatedAt,
			DonorName:   r.users.username(d.DonorID),
		})
	}
	return listings, nil
}

// Claim marks the donation claimed under the write lock.
func (r *InMemoryDonationRepository) Claim(_ context.Context, id, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	donation, ok := r.donations[id]
	if !ok || donation.IsClaimed {
		return fmt.Errorf("donation with ID %d: %w", id, ErrDonationUnavailable)
	}
	claimer := userID
	donation.IsClaimed = true
	donation.ClaimedBy = &claimer
	r.donations[id] = donation
	return nil
}

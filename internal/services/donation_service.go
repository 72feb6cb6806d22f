package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sharebite/internal/metrics"
	"sharebite/internal/models"
	"sharebite/internal/repositories"
)

// EventPublisher publishes donation lifecycle events to a message broker.
type EventPublisher interface {
	PublishDonationEvent(event models.DonationEvent) error
}

// DonationInput carries the user-supplied fields of a new donation.
type DonationInput struct {
	FoodName    string
	Quantity    string
	Location    string
	ContactInfo string
}

// DonationService handles business logic related to food donations.
type DonationService struct {
	repo      repositories.DonationRepository
	publisher EventPublisher
}

// NewDonationService creates a new DonationService. publisher may be nil,
// in which case no events are published.
func NewDonationService(repo repositories.DonationRepository, publisher EventPublisher) *DonationService {
	return &DonationService{
		repo:      repo,
		publisher: publisher,
	}
}

// ListAvailable returns all unclaimed donations, newest first.
func (s *DonationService) ListAvailable(ctx context.Context) ([]models.DonationListing, error) {
	return s.repo.ListAvailable(ctx)
}

// Search returns unclaimed donations matching term on food name or location.
func (s *DonationService) Search(ctx context.Context, term string) ([]models.DonationListing, error) {
	return s.repo.SearchAvailable(ctx, term)
}

// CreateDonation posts a new donation owned by donorID. The donor always
// comes from the authenticated session, never from the submitted form.
func (s *DonationService) CreateDonation(ctx context.Context, donorID uint, input DonationInput) (*models.Donation, error) {
	donation := &models.Donation{
		FoodName:    input.FoodName,
		Quantity:    input.Quantity,
		Location:    input.Location,
		ContactInfo: input.ContactInfo,
		DonorID:     donorID,
	}
	if err := s.repo.Create(ctx, donation); err != nil {
		return nil, fmt.Errorf("failed to create donation: %w", err)
	}

	metrics.DonationsCreated.Inc()
	s.publish(ctx, models.DonationEvent{
		Type:       models.EventDonationCreated,
		DonationID: donation.ID,
		UserID:     donorID,
		FoodName:   donation.FoodName,
		OccurredAt: time.Now(),
	})
	return donation, nil
}

// ClaimDonation claims donation id for userID. It returns
// repositories.ErrDonationUnavailable if the donation does not exist or was
// already claimed; concurrent callers see exactly one success.
func (s *DonationService) ClaimDonation(ctx context.Context, id, userID uint) error {
	if err := s.repo.Claim(ctx, id, userID); err != nil {
		if errors.Is(err, repositories.ErrDonationUnavailable) {
			metrics.Claims.WithLabelValues(metrics.OutcomeUnavailable).Inc()
			return err
		}
		metrics.Claims.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("failed to claim donation: %w", err)
	}
	metrics.Claims.WithLabelValues(metrics.OutcomeSuccess).Inc()
	slog.InfoContext(ctx, "donation claimed", "donation_id", id, "user_id", userID)

	if s.publisher != nil {
		event := models.DonationEvent{
			Type:       models.EventDonationClaimed,
			DonationID: id,
			UserID:     userID,
			OccurredAt: time.Now(),
		}
		if donation, err := s.repo.GetByID(ctx, id); err == nil {
			event.FoodName = donation.FoodName
		}
		s.publish(ctx, event)
	}
	return nil
}

// publish is best-effort: broker failures are logged and never fail the request.
func (s *DonationService) publish(ctx context.Context, event models.DonationEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDonationEvent(event); err != nil {
		slog.WarnContext(ctx, "failed to publish donation event",
			"type", event.Type, "donation_id", event.DonationID, "error", err)
	}
}

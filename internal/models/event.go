package models

import "time"

// Donation lifecycle event types.
const (
	EventDonationCreated = "donation.created"
	EventDonationClaimed = "donation.claimed"
)

// DonationEvent is published to the message broker whenever a donation is
// created or claimed.
type DonationEvent struct {
	Type       string    `json:"type"`
	DonationID uint      `json:"donation_id"`
	UserID     uint      `json:"user_id"` // Donor for created, claimer for claimed
	FoodName   string    `json:"food_name"`
	OccurredAt time.Time `json:"occurred_at"`
}

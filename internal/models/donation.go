package models

import "time"

// Donation is a food item posted by a donor. It is mutated exactly once in
// its lifetime: the transition from unclaimed to claimed.
type Donation struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	FoodName    string    `json:"food_name" gorm:"type:varchar(200);not null"`
	Quantity    string    `json:"quantity" gorm:"type:varchar(50);not null"`
	Location    string    `json:"location" gorm:"type:varchar(255);not null"`
	ContactInfo string    `json:"contact_info" gorm:"type:varchar(255);not null"`
	DonorID     uint      `json:"donor_id" gorm:"not null;index"`
	IsClaimed   bool      `json:"is_claimed" gorm:"not null;default:false;index"`
	ClaimedBy   *uint     `json:"claimed_by"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime;index"`

	Donor   *User `json:"-" gorm:"foreignKey:DonorID"`
	Claimer *User `json:"-" gorm:"foreignKey:ClaimedBy"`
}

// TableName keeps the table name stable across naming strategies.
func (Donation) TableName() string {
	return "food_donations"
}

// DonationListing is the read model used by the home page and search API:
// an unclaimed donation joined with its donor's username.
type DonationListing struct {
	ID          uint      `json:"id"`
	FoodName    string    `json:"food_name"`
	Quantity    string    `json:"quantity"`
	Location    string    `json:"location"`
	ContactInfo string    `json:"contact_info"`
	DonorID     uint      `json:"donor_id"`
	IsClaimed   bool      `json:"is_claimed"`
	ClaimedBy   *uint     `json:"claimed_by"`
	CreatedAt   time.Time `json:"created_at"`
	DonorName   string    `json:"donor_name"`
}

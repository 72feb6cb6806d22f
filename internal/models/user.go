package models

import "time"

// User represents a registered member who can donate and claim food.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(150);not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;type:varchar(255);not null"` // Never serialized
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateIdentity is returned when a username or email is already registered.
	ErrDuplicateIdentity = errors.New("username or email already exists")
	// ErrDonationUnavailable is returned when a donation does not exist or has already been claimed.
	ErrDonationUnavailable = errors.New("donation is no longer available")
)

// isUniqueViolation reports whether err comes from a unique constraint.
// gorm translates it when TranslateError is enabled; the string checks cover
// connections opened without it.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

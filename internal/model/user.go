package model

import (
	"regexp"
	"time"

	"github.com/erazemk/oprema/internal/apperrors"
)

// User represents an account that can sign in.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Roles.
const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleOwner: 3,
		RoleAdmin: 2,
		RoleUser:  1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// AssignableRole reports whether role can be given to an account. The owner
// role is created once at initialization and never assigned afterwards.
func AssignableRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	passwordPattern = regexp.MustCompile(`^[A-Za-z0-9!@#$%^&*()_+\-=.?]+$`)
)

// ValidateUsername checks that a username is non-empty and alphanumeric.
func ValidateUsername(username string) error {
	if username == "" {
		return apperrors.Validation("username is required")
	}
	if !usernamePattern.MatchString(username) {
		return apperrors.Validation("username may only contain letters and digits")
	}
	return nil
}

// ValidatePassword checks that a password is non-empty and only uses the
// allowed character set.
func ValidatePassword(password string) error {
	if password == "" {
		return apperrors.Validation("password is required")
	}
	if !passwordPattern.MatchString(password) {
		return apperrors.Validation("password may only contain letters, digits and !@#$%%^&*()_+-=.?")
	}
	return nil
}

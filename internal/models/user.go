package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a reference to an externally authenticated identity.
// Authentication and token issuance happen outside this core; the store only
// keeps the minimal row other entities point at.
type User struct {
	UserID    uuid.UUID // UUIDv7
	Username  string
	Email     string
	FullName  string
	CreatedAt time.Time
}

// DisplayName returns the full name if set, falling back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

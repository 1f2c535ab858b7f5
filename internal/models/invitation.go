package models

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// InvitationTTL is how long an invitation remains redeemable.
const InvitationTTL = 7 * 24 * time.Hour

// Invitation invites an email address to collaborate on a project. Whichever
// authenticated user redeems the code becomes a contributor, after which the
// invitation is deleted. At most one outstanding invitation exists per email
// per project, matched case-insensitively.
type Invitation struct {
	InvitationID uuid.UUID // UUIDv7
	ProjectID    uuid.UUID
	Email        string
	// Code is the random opaque token mailed to the invitee. It is usable
	// exactly once.
	Code      string
	CreatedAt time.Time
}

// Expired reports whether the invitation is past its TTL at the given time.
func (i *Invitation) Expired(now time.Time) bool {
	return now.Sub(i.CreatedAt) > InvitationTTL
}

// NewInvitationCode produces a fresh random invitation code.
func NewInvitationCode() string {
	buf := make([]byte, 20)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(buf)
	return base58.Encode(buf)
}

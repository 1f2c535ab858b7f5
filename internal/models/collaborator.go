package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a collaborator's level of access to a project. The values are
// ordered so that a higher role implies more access.
type Role int

const (
	// RoleContributor is permitted to create and edit requirements.
	RoleContributor Role = 20
	// RoleOwner can additionally manage collaborators, send invitations and
	// submit the project for review.
	RoleOwner Role = 40
)

// Valid reports whether the value is one of the defined roles.
func (r Role) Valid() bool {
	return r == RoleContributor || r == RoleOwner
}

func (r Role) String() string {
	switch r {
	case RoleContributor:
		return "CONTRIBUTOR"
	case RoleOwner:
		return "OWNER"
	}
	return "UNKNOWN"
}

// Collaborator is a user's membership of a project. The (project, user) pair
// is unique, and a project always has at least one owner.
type Collaborator struct {
	CollaboratorID uuid.UUID // UUIDv7
	ProjectID      uuid.UUID
	UserID         uuid.UUID
	Role           Role
	CreatedAt      time.Time
}

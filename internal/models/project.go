package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the position of a project in its review cycle. The values
// are ordered as they represent a progression; the only back-edge is
// UNDER_REVIEW returning to EDITABLE when the review finishes.
type ProjectStatus int

const (
	ProjectEditable    ProjectStatus = 10
	ProjectUnderReview ProjectStatus = 20
	ProjectCompleted   ProjectStatus = 30
)

// Valid reports whether the value is one of the defined project statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectEditable, ProjectUnderReview, ProjectCompleted:
		return true
	}
	return false
}

func (s ProjectStatus) String() string {
	switch s {
	case ProjectEditable:
		return "EDITABLE"
	case ProjectUnderReview:
		return "UNDER_REVIEW"
	case ProjectCompleted:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

// Project represents a project within a consortium. Its status and the
// statuses of its requirements are the two lifecycle state machines of the
// system.
type Project struct {
	ProjectID   uuid.UUID // UUIDv7
	Name        string    // unique
	Description string
	Status      ProjectStatus
	// ConsortiumID is fixed at creation; projects do not move between
	// consortia.
	ConsortiumID uuid.UUID
	// Version increments on every write and is checked on update so that a
	// stale write is rejected rather than silently overwriting.
	Version   int64
	CreatedAt time.Time
}

// ProjectSummary carries a project plus the counts the listing views need,
// computed in a single query rather than per row.
type ProjectSummary struct {
	Project
	NumCollaborators int64
	NumServices      int64
	NumRequirements  int64
	// CurrentUserRole is the requesting user's role on the project, or zero
	// if they are not a collaborator.
	CurrentUserRole Role
}

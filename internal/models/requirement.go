package models

import (
	"time"

	"github.com/google/uuid"
)

// RequirementStatus is the position of a requirement in its lifecycle. The
// values are ordered as they represent a progression, which keeps range
// comparisons such as status < RequirementApproved meaningful.
type RequirementStatus int

const (
	RequirementRequested            RequirementStatus = 10
	RequirementRejected             RequirementStatus = 20
	RequirementApproved             RequirementStatus = 30
	RequirementAwaitingProvisioning RequirementStatus = 40
	RequirementProvisioned          RequirementStatus = 50
	RequirementDecommissioned       RequirementStatus = 60
)

// AllRequirementStatuses lists every status in progression order.
var AllRequirementStatuses = []RequirementStatus{
	RequirementRequested,
	RequirementRejected,
	RequirementApproved,
	RequirementAwaitingProvisioning,
	RequirementProvisioned,
	RequirementDecommissioned,
}

// Valid reports whether the value is one of the defined requirement statuses.
func (s RequirementStatus) Valid() bool {
	switch s {
	case RequirementRequested, RequirementRejected, RequirementApproved,
		RequirementAwaitingProvisioning, RequirementProvisioned, RequirementDecommissioned:
		return true
	}
	return false
}

func (s RequirementStatus) String() string {
	switch s {
	case RequirementRequested:
		return "REQUESTED"
	case RequirementRejected:
		return "REJECTED"
	case RequirementApproved:
		return "APPROVED"
	case RequirementAwaitingProvisioning:
		return "AWAITING_PROVISIONING"
	case RequirementProvisioned:
		return "PROVISIONED"
	case RequirementDecommissioned:
		return "DECOMMISSIONED"
	}
	return "UNKNOWN"
}

// Requirement is a project's request for an amount of a resource, attached to
// one of the project's services. The resource must be one allowed by the
// service's category.
type Requirement struct {
	RequirementID uuid.UUID // UUIDv7
	ServiceID     uuid.UUID
	ResourceID    uuid.UUID
	Status        RequirementStatus
	Amount        int64
	// StartDate and EndDate bound the period the resource is needed for.
	// EndDate is always strictly after StartDate.
	StartDate time.Time
	EndDate   time.Time
	// Version increments on every write; updates must present the version
	// they read.
	Version   int64
	CreatedAt time.Time
}

// RequirementCounts is a snapshot of how many of a project's requirements sit
// in each status. The project state machine evaluates its gates against one
// consistent snapshot read in the same transaction as the status write.
type RequirementCounts struct {
	Requested            int64
	Rejected             int64
	Approved             int64
	AwaitingProvisioning int64
	Provisioned          int64
	Decommissioned       int64
}

// Total returns the number of requirements across all statuses.
func (c RequirementCounts) Total() int64 {
	return c.Requested + c.Rejected + c.Approved +
		c.AwaitingProvisioning + c.Provisioned + c.Decommissioned
}

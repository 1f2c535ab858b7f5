package models

import (
	"time"

	"github.com/google/uuid"
)

// Consortium represents a science area to which projects belong. Each
// consortium is allocated resource quotas which its manager distributes by
// approving project requirements.
type Consortium struct {
	ConsortiumID uuid.UUID // UUIDv7
	Name         string    // unique
	Description  string
	IsPublic     bool
	// ManagerID references the user who reviews and approves requirements.
	// The referenced user must not be deleted while managing a consortium.
	ManagerID uuid.UUID
	CreatedAt time.Time
}

// Quota is a ceiling on how much of one resource a consortium may have in an
// approved-or-later state at once. The (consortium, resource) pair is unique.
// A missing quota row means an effective quota of zero.
type Quota struct {
	QuotaID      uuid.UUID // UUIDv7
	ConsortiumID uuid.UUID
	ResourceID   uuid.UUID
	Amount       int64
	CreatedAt    time.Time
}

// QuotaUsage reports, for one (consortium, resource) pair, the number of
// requirements and the total amount in each status. It is the snapshot the
// approval check reads, and is also exposed for reporting.
type QuotaUsage struct {
	ConsortiumID uuid.UUID
	ResourceID   uuid.UUID
	// QuotaAmount is zero when no quota row exists for the pair.
	QuotaAmount int64
	Counts      map[RequirementStatus]int64
	Totals      map[RequirementStatus]int64
}

// Allocated returns the total amount counted against the quota: the sum over
// requirements in APPROVED, AWAITING_PROVISIONING and PROVISIONED.
func (u *QuotaUsage) Allocated() int64 {
	return u.Totals[RequirementApproved] +
		u.Totals[RequirementAwaitingProvisioning] +
		u.Totals[RequirementProvisioned]
}

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
)

// CreateRequirementParams carries the fields for a new requirement. New
// requirements always start in REQUESTED.
type CreateRequirementParams struct {
	ServiceID  uuid.UUID
	ResourceID uuid.UUID
	Amount     int64
	StartDate  time.Time
	EndDate    time.Time
}

// RequirementStore persists requirements and owns the requirement lifecycle
// state machine. The quota check inside ApproveRequirement is atomic with the
// status write: concurrent approvals against the same (consortium, resource)
// pair serialize, so the approved-or-later total can never exceed the quota.
type RequirementStore interface {
	CreateRequirement(ctx context.Context, params CreateRequirementParams) (*models.Requirement, error)
	GetRequirement(ctx context.Context, requirementID uuid.UUID) (*models.Requirement, error)
	ListRequirementsForService(ctx context.Context, serviceID uuid.UUID) ([]*models.Requirement, error)

	// UpdateRequirement applies a collaborator edit. Edits are only legal in
	// REQUESTED or REJECTED while the project is EDITABLE; editing a REJECTED
	// requirement resets it to REQUESTED as part of the same write.
	UpdateRequirement(ctx context.Context, requirementID uuid.UUID, version int64, edit lifecycle.RequirementEdit) (*models.Requirement, models.EventType, error)

	// DeleteRequirement removes a requirement, allowed only in a status below
	// APPROVED while the project is EDITABLE.
	DeleteRequirement(ctx context.Context, requirementID uuid.UUID, version int64) error

	// ApproveRequirement moves a requirement to APPROVED, gated by the quota
	// check. Re-approving an APPROVED requirement re-validates the quota and
	// succeeds idempotently.
	ApproveRequirement(ctx context.Context, requirementID uuid.UUID, version int64) (*models.Requirement, models.EventType, error)

	// RejectRequirement moves a requirement to REJECTED. Idempotent for an
	// already rejected requirement.
	RejectRequirement(ctx context.Context, requirementID uuid.UUID, version int64) (*models.Requirement, models.EventType, error)

	// ProvisionRequirement records the external provisioning signal, moving
	// AWAITING_PROVISIONING to PROVISIONED.
	ProvisionRequirement(ctx context.Context, requirementID uuid.UUID, version int64) (*models.Requirement, models.EventType, error)

	// DecommissionRequirement is the administrative transition from
	// PROVISIONED to the terminal DECOMMISSIONED status.
	DecommissionRequirement(ctx context.Context, requirementID uuid.UUID, version int64) (*models.Requirement, models.EventType, error)
}

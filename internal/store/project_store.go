package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/models"
)

// CreateProjectParams carries the fields for a new project. The owner becomes
// the project's first collaborator with the OWNER role, created in the same
// atomic operation; a project never exists without an owner.
type CreateProjectParams struct {
	Name         string
	Description  string
	ConsortiumID uuid.UUID
	OwnerID      uuid.UUID
}

// ProjectStore persists projects and owns the project review-cycle state
// machine. Transition operations verify the supplied version, evaluate their
// gates against requirement counts read in the same atomic operation, and
// return the event classifying the transition.
type ProjectStore interface {
	CreateProject(ctx context.Context, params CreateProjectParams) (*models.Project, error)
	GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error)

	// ListProjectsForUser returns summaries of the projects the user
	// collaborates on.
	ListProjectsForUser(ctx context.Context, userID uuid.UUID) ([]*models.ProjectSummary, error)

	// SubmitForReview moves an EDITABLE project to UNDER_REVIEW. It requires
	// at least one REQUESTED requirement and no REJECTED ones.
	SubmitForReview(ctx context.Context, projectID uuid.UUID, version int64) (*models.Project, models.EventType, error)

	// RequestChanges returns an UNDER_REVIEW project to EDITABLE for rework.
	// It requires no REQUESTED requirements and at least one REJECTED one.
	RequestChanges(ctx context.Context, projectID uuid.UUID, version int64) (*models.Project, models.EventType, error)

	// SubmitForProvisioning returns an UNDER_REVIEW project to EDITABLE with
	// everything approved, advancing every APPROVED requirement to
	// AWAITING_PROVISIONING in the same atomic operation.
	SubmitForProvisioning(ctx context.Context, projectID uuid.UUID, version int64) (*models.Project, models.EventType, error)

	// CompleteProject is the administrative transition to COMPLETED, allowed
	// only once every requirement is DECOMMISSIONED.
	CompleteProject(ctx context.Context, projectID uuid.UUID, version int64) (*models.Project, models.EventType, error)

	// ProjectRequirementCounts snapshots the per-status requirement counts
	// for a project.
	ProjectRequirementCounts(ctx context.Context, projectID uuid.UUID) (models.RequirementCounts, error)
}

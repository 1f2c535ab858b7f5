package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/auth"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// ProjectService exposes the project actions.
type ProjectService struct {
	store store.Store
}

// NewProjectService creates a project service backed by the given store.
func NewProjectService(st store.Store) *ProjectService {
	return &ProjectService{store: st}
}

// Create makes a new project in a consortium. Any authenticated user may
// create a project; they become its first owner in the same atomic write.
func (s *ProjectService) Create(ctx context.Context, consortiumID uuid.UUID, name, description string, ownerID uuid.UUID) (*models.Project, error) {
	return s.store.CreateProject(ctx, store.CreateProjectParams{
		Name:         name,
		Description:  description,
		ConsortiumID: consortiumID,
		OwnerID:      ownerID,
	})
}

// Get fetches a project for an actor who can view it.
func (s *ProjectService) Get(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	actor, err := resolveActor(ctx, s.store, project, userID)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(actor, auth.PermProjectView); err != nil {
		return nil, err
	}
	return project, nil
}

// List returns summaries of the projects the user collaborates on.
func (s *ProjectService) List(ctx context.Context, userID uuid.UUID) ([]*models.ProjectSummary, error) {
	return s.store.ListProjectsForUser(ctx, userID)
}

// SubmitForReview submits an editable project for review. Owners only.
func (s *ProjectService) SubmitForReview(ctx context.Context, projectID uuid.UUID, version int64, userID uuid.UUID) (*models.Project, models.EventType, error) {
	if err := s.requirePermission(ctx, projectID, userID, auth.PermProjectSubmitForReview); err != nil {
		return nil, models.EventNone, err
	}
	return s.store.SubmitForReview(ctx, projectID, version)
}

// RequestChanges sends a reviewed project back for rework. Consortium
// managers only.
func (s *ProjectService) RequestChanges(ctx context.Context, projectID uuid.UUID, version int64, userID uuid.UUID) (*models.Project, models.EventType, error) {
	if err := s.requirePermission(ctx, projectID, userID, auth.PermProjectRequestChanges); err != nil {
		return nil, models.EventNone, err
	}
	return s.store.RequestChanges(ctx, projectID, version)
}

// SubmitForProvisioning finishes a review with everything approved,
// bulk-advancing the approved requirements. Consortium managers only.
func (s *ProjectService) SubmitForProvisioning(ctx context.Context, projectID uuid.UUID, version int64, userID uuid.UUID) (*models.Project, models.EventType, error) {
	if err := s.requirePermission(ctx, projectID, userID, auth.PermProjectSubmitForProvisioning); err != nil {
		return nil, models.EventNone, err
	}
	return s.store.SubmitForProvisioning(ctx, projectID, version)
}

func (s *ProjectService) requirePermission(ctx context.Context, projectID, userID uuid.UUID, perm auth.Permission) error {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	actor, err := resolveActor(ctx, s.store, project, userID)
	if err != nil {
		return err
	}
	return auth.Require(actor, perm)
}

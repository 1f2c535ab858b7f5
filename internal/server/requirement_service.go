package server

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/auth"
	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// RequirementService exposes the requirement actions.
type RequirementService struct {
	store store.Store
}

// NewRequirementService creates a requirement service backed by the given
// store.
func NewRequirementService(st store.Store) *RequirementService {
	return &RequirementService{store: st}
}

// Create adds a requirement to a service. Any project collaborator may
// create requirements.
func (s *RequirementService) Create(ctx context.Context, serviceID, resourceID uuid.UUID, amount int64, startDate, endDate time.Time, userID uuid.UUID) (*models.Requirement, error) {
	svc, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if err := s.requireProjectPermission(ctx, svc.ProjectID, userID, auth.PermRequirementsManage); err != nil {
		return nil, err
	}
	return s.store.CreateRequirement(ctx, store.CreateRequirementParams{
		ServiceID:  serviceID,
		ResourceID: resourceID,
		Amount:     amount,
		StartDate:  startDate,
		EndDate:    endDate,
	})
}

// Get fetches a requirement for an actor who can view its project.
func (s *RequirementService) Get(ctx context.Context, requirementID, userID uuid.UUID) (*models.Requirement, error) {
	req, err := s.store.GetRequirement(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	projectID, err := s.projectIDFor(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.requireProjectPermission(ctx, projectID, userID, auth.PermProjectView); err != nil {
		return nil, err
	}
	return req, nil
}

// Update applies a collaborator edit to a requirement.
func (s *RequirementService) Update(ctx context.Context, requirementID uuid.UUID, version int64, edit lifecycle.RequirementEdit, userID uuid.UUID) (*models.Requirement, models.EventType, error) {
	if err := s.requireRequirementPermission(ctx, requirementID, userID, auth.PermRequirementsManage); err != nil {
		return nil, models.EventNone, err
	}
	return s.store.UpdateRequirement(ctx, requirementID, version, edit)
}

// Delete removes a requirement that has not been approved yet.
func (s *RequirementService) Delete(ctx context.Context, requirementID uuid.UUID, version int64, userID uuid.UUID) error {
	if err := s.requireRequirementPermission(ctx, requirementID, userID, auth.PermRequirementsManage); err != nil {
		return err
	}
	return s.store.DeleteRequirement(ctx, requirementID, version)
}

// Approve approves a requirement against the consortium quota. Consortium
// managers only.
func (s *RequirementService) Approve(ctx context.Context, requirementID uuid.UUID, version int64, userID uuid.UUID) (*models.Requirement, models.EventType, error) {
	if err := s.requireRequirementPermission(ctx, requirementID, userID, auth.PermRequirementsReview); err != nil {
		return nil, models.EventNone, err
	}
	return s.store.ApproveRequirement(ctx, requirementID, version)
}

// Reject rejects a requirement. Consortium managers only.
func (s *RequirementService) Reject(ctx context.Context, requirementID uuid.UUID, version int64, userID uuid.UUID) (*models.Requirement, models.EventType, error) {
	if err := s.requireRequirementPermission(ctx, requirementID, userID, auth.PermRequirementsReview); err != nil {
		return nil, models.EventNone, err
	}
	return s.store.RejectRequirement(ctx, requirementID, version)
}

func (s *RequirementService) projectIDFor(ctx context.Context, req *models.Requirement) (uuid.UUID, error) {
	svc, err := s.store.GetService(ctx, req.ServiceID)
	if err != nil {
		return uuid.Nil, err
	}
	return svc.ProjectID, nil
}

func (s *RequirementService) requireRequirementPermission(ctx context.Context, requirementID, userID uuid.UUID, perm auth.Permission) error {
	req, err := s.store.GetRequirement(ctx, requirementID)
	if err != nil {
		return err
	}
	projectID, err := s.projectIDFor(ctx, req)
	if err != nil {
		return err
	}
	return s.requireProjectPermission(ctx, projectID, userID, perm)
}

func (s *RequirementService) requireProjectPermission(ctx context.Context, projectID, userID uuid.UUID, perm auth.Permission) error {
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

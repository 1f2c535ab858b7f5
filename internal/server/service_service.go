package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/auth"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// ServiceService exposes the service actions on a project.
type ServiceService struct {
	store store.Store
}

// NewServiceService creates a service service backed by the given store.
func NewServiceService(st store.Store) *ServiceService {
	return &ServiceService{store: st}
}

// Create adds a service to a project. Any project collaborator may create
// services while the project is editable.
func (s *ServiceService) Create(ctx context.Context, projectID, categoryID uuid.UUID, name string, userID uuid.UUID) (*models.Service, error) {
	if err := s.requireProjectPermission(ctx, projectID, userID, auth.PermServicesManage); err != nil {
		return nil, err
	}
	return s.store.CreateService(ctx, store.CreateServiceParams{
		ProjectID:  projectID,
		CategoryID: categoryID,
		Name:       name,
	})
}

// List returns a project's services for an actor who can view it.
func (s *ServiceService) List(ctx context.Context, projectID, userID uuid.UUID) ([]*models.Service, error) {
	if err := s.requireProjectPermission(ctx, projectID, userID, auth.PermProjectView); err != nil {
		return nil, err
	}
	return s.store.ListServicesForProject(ctx, projectID)
}

// Delete removes a service with no requirements from an editable project.
func (s *ServiceService) Delete(ctx context.Context, serviceID uuid.UUID, version int64, userID uuid.UUID) error {
	svc, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		return err
	}
	if err := s.requireProjectPermission(ctx, svc.ProjectID, userID, auth.PermServicesManage); err != nil {
		return err
	}
	return s.store.DeleteService(ctx, serviceID, version)
}

func (s *ServiceService) requireProjectPermission(ctx context.Context, projectID, userID uuid.UUID, perm auth.Permission) error {
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

package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CreateService adds a service to a project. The project must be EDITABLE,
// it must not already have a service in the category, and the name must be
// unique within the category.
func (s *Store) CreateService(ctx context.Context, params store.CreateServiceParams) (*models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[params.ProjectID]
	if !ok {
		return nil, store.ErrProjectNotFound
	}
	if _, ok := s.categories[params.CategoryID]; !ok {
		return nil, store.ErrCategoryNotFound
	}
	if err := lifecycle.CheckProjectEditable(project); err != nil {
		return nil, err
	}
	if !models.ValidServiceName(params.Name) {
		return nil, lifecycle.NewValidationError("name",
			"service name must start with a letter and contain lower-case letters, numbers, underscores and hyphens only")
	}
	for _, svc := range s.services {
		if svc.ProjectID == params.ProjectID && svc.CategoryID == params.CategoryID {
			return nil, lifecycle.NewValidationError("category_id", "this project already has a service in this category")
		}
		if svc.CategoryID == params.CategoryID && svc.Name == params.Name {
			return nil, lifecycle.NewValidationError("name", "a service with this name already exists in the category")
		}
	}

	service := &models.Service{
		ServiceID:  newID(),
		ProjectID:  params.ProjectID,
		CategoryID: params.CategoryID,
		Name:       params.Name,
		Version:    1,
		CreatedAt:  s.now(),
	}
	s.services[service.ServiceID] = service

	cp := *service
	return &cp, nil
}

// GetService fetches a service by id.
func (s *Store) GetService(ctx context.Context, serviceID uuid.UUID) (*models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	service, ok := s.services[serviceID]
	if !ok {
		return nil, store.ErrServiceNotFound
	}
	cp := *service
	return &cp, nil
}

// ListServicesForProject returns the services of a project.
func (s *Store) ListServicesForProject(ctx context.Context, projectID uuid.UUID) ([]*models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, store.ErrProjectNotFound
	}
	var results []*models.Service
	for _, service := range s.services {
		if service.ProjectID == projectID {
			cp := *service
			results = append(results, &cp)
		}
	}
	return results, nil
}

// DeleteService removes a service. The project must be EDITABLE and the
// service must have no requirements.
func (s *Store) DeleteService(ctx context.Context, serviceID uuid.UUID, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	service, ok := s.services[serviceID]
	if !ok {
		return store.ErrServiceNotFound
	}
	if service.Version != version {
		return staleVersion("service", version, service.Version)
	}
	project, ok := s.projects[service.ProjectID]
	if !ok {
		return store.ErrProjectNotFound
	}

	var numRequirements int64
	for _, req := range s.requirements {
		if req.ServiceID == serviceID {
			numRequirements++
		}
	}
	if err := lifecycle.CheckDeleteService(project, numRequirements); err != nil {
		return err
	}

	delete(s.services, serviceID)
	return nil
}

package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/models"
)

// CreateServiceParams carries the fields for a new service.
type CreateServiceParams struct {
	ProjectID  uuid.UUID
	CategoryID uuid.UUID
	Name       string
}

// ServiceStore persists the services a project has requested. Services can
// only be created and deleted while the project is EDITABLE; deletion also
// requires the service to have no requirements.
type ServiceStore interface {
	CreateService(ctx context.Context, params CreateServiceParams) (*models.Service, error)
	GetService(ctx context.Context, serviceID uuid.UUID) (*models.Service, error)
	ListServicesForProject(ctx context.Context, projectID uuid.UUID) ([]*models.Service, error)
	DeleteService(ctx context.Context, serviceID uuid.UUID, version int64) error
}

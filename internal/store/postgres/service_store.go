package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CreateService adds a service to a project. The project row is locked while
// its status is checked so a concurrent submit-for-review cannot slip in
// between the check and the insert.
func (s *Store) CreateService(ctx context.Context, params store.CreateServiceParams) (*models.Service, error) {
	if !models.ValidServiceName(params.Name) {
		return nil, lifecycle.NewValidationError("name",
			"service name must start with a letter and contain lower-case letters, numbers, underscores and hyphens only")
	}

	service := &models.Service{
		ServiceID:  newID(),
		ProjectID:  params.ProjectID,
		CategoryID: params.CategoryID,
		Name:       params.Name,
		Version:    1,
	}
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		project, err := getProject(ctx, tx, params.ProjectID, true)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckProjectEditable(project); err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO services (service_id, project_id, category_id, name)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`, service.ServiceID, params.ProjectID, params.CategoryID, params.Name,
		).Scan(&service.CreatedAt)
		if err != nil {
			return mapWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return service, nil
}

// GetService fetches a service by id.
func (s *Store) GetService(ctx context.Context, serviceID uuid.UUID) (*models.Service, error) {
	service := &models.Service{ServiceID: serviceID}
	err := s.pool.QueryRow(ctx, `
		SELECT project_id, category_id, name, version, created_at
		FROM services
		WHERE service_id = $1
	`, serviceID).Scan(
		&service.ProjectID, &service.CategoryID, &service.Name,
		&service.Version, &service.CreatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, store.ErrServiceNotFound)
	}
	return service, nil
}

// ListServicesForProject returns the services of a project, ordered by name.
func (s *Store) ListServicesForProject(ctx context.Context, projectID uuid.UUID) ([]*models.Service, error) {
	if _, err := getProject(ctx, s.pool, projectID, false); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT service_id, category_id, name, version, created_at
		FROM services
		WHERE project_id = $1
		ORDER BY name
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var results []*models.Service
	for rows.Next() {
		service := &models.Service{ProjectID: projectID}
		if err := rows.Scan(
			&service.ServiceID, &service.CategoryID, &service.Name,
			&service.Version, &service.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		results = append(results, service)
	}
	return results, rows.Err()
}

// DeleteService removes a service. The project must be EDITABLE and the
// service must have no requirements.
func (s *Store) DeleteService(ctx context.Context, serviceID uuid.UUID, version int64) error {
	return s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var projectID uuid.UUID
		var current int64
		err := tx.QueryRow(ctx, `
			SELECT project_id, version FROM services WHERE service_id = $1 FOR UPDATE
		`, serviceID).Scan(&projectID, &current)
		if err != nil {
			return mapNotFound(err, store.ErrServiceNotFound)
		}
		if current != version {
			return staleVersion("service", version, current)
		}

		project, err := getProject(ctx, tx, projectID, true)
		if err != nil {
			return err
		}

		var numRequirements int64
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM requirements WHERE service_id = $1
		`, serviceID).Scan(&numRequirements)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckDeleteService(project, numRequirements); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `DELETE FROM services WHERE service_id = $1`, serviceID)
		return err
	})
}

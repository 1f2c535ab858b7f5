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

// CreateConsortium adds a consortium with a unique name.
func (s *Store) CreateConsortium(ctx context.Context, params store.CreateConsortiumParams) (*models.Consortium, error) {
	if params.Name == "" {
		return nil, lifecycle.NewValidationError("name", "name is required")
	}

	consortium := &models.Consortium{
		ConsortiumID: newID(),
		Name:         params.Name,
		Description:  params.Description,
		IsPublic:     params.IsPublic,
		ManagerID:    params.ManagerID,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO consortia (consortium_id, name, description, is_public, manager_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, consortium.ConsortiumID, params.Name, params.Description, params.IsPublic, params.ManagerID,
	).Scan(&consortium.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return consortium, nil
}

// GetConsortium fetches a consortium by id.
func (s *Store) GetConsortium(ctx context.Context, consortiumID uuid.UUID) (*models.Consortium, error) {
	consortium := &models.Consortium{ConsortiumID: consortiumID}
	err := s.pool.QueryRow(ctx, `
		SELECT name, description, is_public, manager_id, created_at
		FROM consortia
		WHERE consortium_id = $1
	`, consortiumID).Scan(
		&consortium.Name, &consortium.Description, &consortium.IsPublic,
		&consortium.ManagerID, &consortium.CreatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, store.ErrConsortiumNotFound)
	}
	return consortium, nil
}

// ListConsortia returns every consortium, ordered by name.
func (s *Store) ListConsortia(ctx context.Context) ([]*models.Consortium, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT consortium_id, name, description, is_public, manager_id, created_at
		FROM consortia
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list consortia: %w", err)
	}
	defer rows.Close()

	var results []*models.Consortium
	for rows.Next() {
		consortium := &models.Consortium{}
		if err := rows.Scan(
			&consortium.ConsortiumID, &consortium.Name, &consortium.Description,
			&consortium.IsPublic, &consortium.ManagerID, &consortium.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan consortium: %w", err)
		}
		results = append(results, consortium)
	}
	return results, rows.Err()
}

// CreateResource adds a resource with a unique name.
func (s *Store) CreateResource(ctx context.Context, params store.CreateResourceParams) (*models.Resource, error) {
	if params.Name == "" {
		return nil, lifecycle.NewValidationError("name", "name is required")
	}

	resource := &models.Resource{
		ResourceID: newID(),
		Name:       params.Name,
		ShortName:  params.ShortName,
		Units:      params.Units,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO resources (resource_id, name, short_name, units)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, resource.ResourceID, params.Name, params.ShortName, params.Units,
	).Scan(&resource.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return resource, nil
}

// GetResource fetches a resource by id.
func (s *Store) GetResource(ctx context.Context, resourceID uuid.UUID) (*models.Resource, error) {
	resource := &models.Resource{ResourceID: resourceID}
	err := s.pool.QueryRow(ctx, `
		SELECT name, short_name, units, created_at
		FROM resources
		WHERE resource_id = $1
	`, resourceID).Scan(&resource.Name, &resource.ShortName, &resource.Units, &resource.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err, store.ErrResourceNotFound)
	}
	return resource, nil
}

// AddResourceChunk records a procurement unit for a resource.
func (s *Store) AddResourceChunk(ctx context.Context, params store.AddResourceChunkParams) (*models.ResourceChunk, error) {
	if params.Amount <= 0 {
		return nil, lifecycle.NewValidationError("amount", "amount must be positive")
	}

	chunk := &models.ResourceChunk{
		ChunkID:    newID(),
		ResourceID: params.ResourceID,
		Name:       params.Name,
		Amount:     params.Amount,
		Version:    1,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO resource_chunks (chunk_id, resource_id, name, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, chunk.ChunkID, params.ResourceID, params.Name, params.Amount,
	).Scan(&chunk.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return chunk, nil
}

// RemoveResourceChunk deletes a procurement unit, verifying the version.
func (s *Store) RemoveResourceChunk(ctx context.Context, chunkID uuid.UUID, version int64) error {
	return s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var current int64
		err := tx.QueryRow(ctx, `
			SELECT version FROM resource_chunks WHERE chunk_id = $1 FOR UPDATE
		`, chunkID).Scan(&current)
		if err != nil {
			return mapNotFound(err, store.ErrChunkNotFound)
		}
		if current != version {
			return staleVersion("resource chunk", version, current)
		}
		_, err = tx.Exec(ctx, `DELETE FROM resource_chunks WHERE chunk_id = $1`, chunkID)
		return err
	})
}

// TotalAvailable sums the chunk amounts for a resource.
func (s *Store) TotalAvailable(ctx context.Context, resourceID uuid.UUID) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(c.amount), 0)
		FROM resources r
		LEFT JOIN resource_chunks c ON c.resource_id = r.resource_id
		WHERE r.resource_id = $1
		GROUP BY r.resource_id
	`, resourceID).Scan(&total)
	if err != nil {
		return 0, mapNotFound(err, store.ErrResourceNotFound)
	}
	return total, nil
}

// CreateCategory adds a service category together with its allowed resource
// set, in one transaction.
func (s *Store) CreateCategory(ctx context.Context, params store.CreateCategoryParams) (*models.Category, error) {
	if params.Name == "" {
		return nil, lifecycle.NewValidationError("name", "name is required")
	}

	category := &models.Category{
		CategoryID:  newID(),
		Name:        params.Name,
		Description: params.Description,
		ResourceIDs: append([]uuid.UUID(nil), params.ResourceIDs...),
	}
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO categories (category_id, name, description)
			VALUES ($1, $2, $3)
			RETURNING created_at
		`, category.CategoryID, params.Name, params.Description).Scan(&category.CreatedAt)
		if err != nil {
			return mapWriteError(err)
		}
		for _, resourceID := range params.ResourceIDs {
			_, err := tx.Exec(ctx, `
				INSERT INTO category_resources (category_id, resource_id)
				VALUES ($1, $2)
			`, category.CategoryID, resourceID)
			if err != nil {
				return mapWriteError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// GetCategory fetches a category and its allowed resources.
func (s *Store) GetCategory(ctx context.Context, categoryID uuid.UUID) (*models.Category, error) {
	category := &models.Category{CategoryID: categoryID}
	err := s.pool.QueryRow(ctx, `
		SELECT name, description, created_at
		FROM categories
		WHERE category_id = $1
	`, categoryID).Scan(&category.Name, &category.Description, &category.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err, store.ErrCategoryNotFound)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT resource_id FROM category_resources WHERE category_id = $1
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category resources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var resourceID uuid.UUID
		if err := rows.Scan(&resourceID); err != nil {
			return nil, fmt.Errorf("failed to scan category resource: %w", err)
		}
		category.ResourceIDs = append(category.ResourceIDs, resourceID)
	}
	return category, rows.Err()
}

// SetQuota creates or replaces the quota for a (consortium, resource) pair.
func (s *Store) SetQuota(ctx context.Context, params store.SetQuotaParams) (*models.Quota, error) {
	if params.Amount < 0 {
		return nil, lifecycle.NewValidationError("amount", "amount cannot be negative")
	}

	quota := &models.Quota{
		ConsortiumID: params.ConsortiumID,
		ResourceID:   params.ResourceID,
		Amount:       params.Amount,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO quotas (quota_id, consortium_id, resource_id, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT quotas_consortium_resource_key
		DO UPDATE SET amount = EXCLUDED.amount
		RETURNING quota_id, created_at
	`, newID(), params.ConsortiumID, params.ResourceID, params.Amount,
	).Scan(&quota.QuotaID, &quota.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return quota, nil
}

// GetQuota fetches the quota for a (consortium, resource) pair.
func (s *Store) GetQuota(ctx context.Context, consortiumID, resourceID uuid.UUID) (*models.Quota, error) {
	quota := &models.Quota{ConsortiumID: consortiumID, ResourceID: resourceID}
	err := s.pool.QueryRow(ctx, `
		SELECT quota_id, amount, created_at
		FROM quotas
		WHERE consortium_id = $1 AND resource_id = $2
	`, consortiumID, resourceID).Scan(&quota.QuotaID, &quota.Amount, &quota.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err, store.ErrQuotaNotFound)
	}
	return quota, nil
}

// QuotaUsage reports per-status counts and totals for a (consortium,
// resource) pair.
func (s *Store) QuotaUsage(ctx context.Context, consortiumID, resourceID uuid.UUID) (*models.QuotaUsage, error) {
	usage := &models.QuotaUsage{
		ConsortiumID: consortiumID,
		ResourceID:   resourceID,
		Counts:       make(map[models.RequirementStatus]int64),
		Totals:       make(map[models.RequirementStatus]int64),
	}

	// Verify both ids exist before aggregating, since an empty aggregate and
	// an unknown id are otherwise indistinguishable.
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM consortia WHERE consortium_id = $1)`, consortiumID,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrConsortiumNotFound
	}
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM resources WHERE resource_id = $1)`, resourceID,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrResourceNotFound
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(
			(SELECT amount FROM quotas WHERE consortium_id = $1 AND resource_id = $2), 0)
	`, consortiumID, resourceID).Scan(&usage.QuotaAmount)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT r.status, COUNT(*), SUM(r.amount)
		FROM requirements r
		JOIN services s ON s.service_id = r.service_id
		JOIN projects p ON p.project_id = s.project_id
		WHERE p.consortium_id = $1 AND r.resource_id = $2
		GROUP BY r.status
	`, consortiumID, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate quota usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.RequirementStatus
		var count, total int64
		if err := rows.Scan(&status, &count, &total); err != nil {
			return nil, fmt.Errorf("failed to scan quota usage: %w", err)
		}
		usage.Counts[status] = count
		usage.Totals[status] = total
	}
	return usage, rows.Err()
}

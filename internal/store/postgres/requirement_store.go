package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CreateRequirement adds a requirement to a service in REQUESTED status. The
// project row is locked while its status is checked, matching the other
// editable-only mutations.
func (s *Store) CreateRequirement(ctx context.Context, params store.CreateRequirementParams) (*models.Requirement, error) {
	req := &models.Requirement{
		RequirementID: newID(),
		ServiceID:     params.ServiceID,
		ResourceID:    params.ResourceID,
		Status:        models.RequirementRequested,
		Amount:        params.Amount,
		StartDate:     params.StartDate,
		EndDate:       params.EndDate,
		Version:       1,
	}
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		service, err := getServiceRow(ctx, tx, params.ServiceID)
		if err != nil {
			return err
		}
		project, err := getProject(ctx, tx, service.ProjectID, true)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckProjectEditable(project); err != nil {
			return err
		}

		if err := checkResourceExists(ctx, tx, params.ResourceID); err != nil {
			return err
		}
		category, err := getCategoryResources(ctx, tx, service.CategoryID)
		if err != nil {
			return err
		}
		if err := lifecycle.ValidateResource(category, params.ResourceID, nil); err != nil {
			return err
		}
		if err := lifecycle.ValidateNew(params.Amount, params.StartDate, params.EndDate, time.Now()); err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO requirements (requirement_id, service_id, resource_id, status, amount, start_date, end_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING start_date, end_date, created_at
		`, req.RequirementID, params.ServiceID, params.ResourceID, req.Status,
			params.Amount, params.StartDate, params.EndDate,
		).Scan(&req.StartDate, &req.EndDate, &req.CreatedAt)
		if err != nil {
			return mapWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// GetRequirement fetches a requirement by id.
func (s *Store) GetRequirement(ctx context.Context, requirementID uuid.UUID) (*models.Requirement, error) {
	return getRequirement(ctx, s.pool, requirementID, false)
}

func getRequirement(ctx context.Context, q querier, requirementID uuid.UUID, forUpdate bool) (*models.Requirement, error) {
	sql := `
		SELECT service_id, resource_id, status, amount, start_date, end_date, version, created_at
		FROM requirements
		WHERE requirement_id = $1
	`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	req := &models.Requirement{RequirementID: requirementID}
	err := q.QueryRow(ctx, sql, requirementID).Scan(
		&req.ServiceID, &req.ResourceID, &req.Status, &req.Amount,
		&req.StartDate, &req.EndDate, &req.Version, &req.CreatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, store.ErrRequirementNotFound)
	}
	return req, nil
}

// ListRequirementsForService returns the requirements of a service, oldest
// first.
func (s *Store) ListRequirementsForService(ctx context.Context, serviceID uuid.UUID) ([]*models.Requirement, error) {
	if _, err := getServiceRow(ctx, s.pool, serviceID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT requirement_id, resource_id, status, amount, start_date, end_date, version, created_at
		FROM requirements
		WHERE service_id = $1
		ORDER BY created_at
	`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.Requirement
	for rows.Next() {
		req := &models.Requirement{ServiceID: serviceID}
		if err := rows.Scan(
			&req.RequirementID, &req.ResourceID, &req.Status, &req.Amount,
			&req.StartDate, &req.EndDate, &req.Version, &req.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, req)
	}
	return results, rows.Err()
}

// UpdateRequirement applies a collaborator edit under the edit rules:
// project EDITABLE, status below APPROVED, dates and amount valid, resource
// allowed by the category (or unchanged). Editing a REJECTED requirement
// resets it to REQUESTED in the same write.
func (s *Store) UpdateRequirement(ctx context.Context, requirementID uuid.UUID, version int64, edit lifecycle.RequirementEdit) (*models.Requirement, models.EventType, error) {
	var updated models.Requirement
	var event models.EventType

	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		req, err := getRequirement(ctx, tx, requirementID, true)
		if err != nil {
			return err
		}
		if req.Version != version {
			return staleVersion("requirement", version, req.Version)
		}

		service, err := getServiceRow(ctx, tx, req.ServiceID)
		if err != nil {
			return err
		}
		project, err := getProject(ctx, tx, service.ProjectID, true)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckEditable(req, project); err != nil {
			return err
		}

		if edit.ResourceID != nil {
			if err := checkResourceExists(ctx, tx, *edit.ResourceID); err != nil {
				return err
			}
			category, err := getCategoryResources(ctx, tx, service.CategoryID)
			if err != nil {
				return err
			}
			previous := req.ResourceID
			if err := lifecycle.ValidateResource(category, *edit.ResourceID, &previous); err != nil {
				return err
			}
		}

		updated, event, err = lifecycle.ApplyEdit(*req, edit, time.Now())
		if err != nil {
			return err
		}

		return tx.QueryRow(ctx, `
			UPDATE requirements
			SET resource_id = $1, status = $2, amount = $3, start_date = $4, end_date = $5,
			    version = version + 1
			WHERE requirement_id = $6
			RETURNING version
		`, updated.ResourceID, updated.Status, updated.Amount,
			updated.StartDate, updated.EndDate, requirementID,
		).Scan(&updated.Version)
	})
	if err != nil {
		return nil, models.EventNone, err
	}
	return &updated, event, nil
}

// DeleteRequirement removes a requirement, allowed only below APPROVED while
// the project is EDITABLE.
func (s *Store) DeleteRequirement(ctx context.Context, requirementID uuid.UUID, version int64) error {
	return s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		req, err := getRequirement(ctx, tx, requirementID, true)
		if err != nil {
			return err
		}
		if req.Version != version {
			return staleVersion("requirement", version, req.Version)
		}

		service, err := getServiceRow(ctx, tx, req.ServiceID)
		if err != nil {
			return err
		}
		project, err := getProject(ctx, tx, service.ProjectID, true)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckEditable(req, project); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `DELETE FROM requirements WHERE requirement_id = $1`, requirementID)
		return err
	})
}

// ApproveRequirement moves a requirement to APPROVED, checking the quota
// against the allocated total for the (consortium, resource) pair. An
// advisory lock on the pair serializes concurrent approvals, so two
// approvals whose combined amount exceeds the quota cannot both pass the
// check.
func (s *Store) ApproveRequirement(ctx context.Context, requirementID uuid.UUID, version int64) (*models.Requirement, models.EventType, error) {
	var result *models.Requirement
	var event models.EventType

	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		req, err := getRequirement(ctx, tx, requirementID, true)
		if err != nil {
			return err
		}
		if req.Version != version {
			return staleVersion("requirement", version, req.Version)
		}

		service, err := getServiceRow(ctx, tx, req.ServiceID)
		if err != nil {
			return err
		}
		project, err := getProject(ctx, tx, service.ProjectID, true)
		if err != nil {
			return err
		}

		if err := lockQuotaPair(ctx, tx, project.ConsortiumID, req.ResourceID); err != nil {
			return err
		}

		var quotaAmount int64
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(
				(SELECT amount FROM quotas WHERE consortium_id = $1 AND resource_id = $2), 0)
		`, project.ConsortiumID, req.ResourceID).Scan(&quotaAmount)
		if err != nil {
			return err
		}

		var allocated int64
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(r.amount), 0)
			FROM requirements r
			JOIN services s ON s.service_id = r.service_id
			JOIN projects p ON p.project_id = s.project_id
			WHERE p.consortium_id = $1
			  AND r.resource_id = $2
			  AND r.status BETWEEN $3 AND $4
			  AND r.requirement_id <> $5
		`, project.ConsortiumID, req.ResourceID,
			models.RequirementApproved, models.RequirementProvisioned, requirementID,
		).Scan(&allocated)
		if err != nil {
			return err
		}

		if err := lifecycle.CanApprove(req, project, quotaAmount, allocated); err != nil {
			return err
		}

		event = models.EventNone
		if req.Status != models.RequirementApproved {
			req.Status = models.RequirementApproved
			event = models.EventRequirementApproved
		}

		err = tx.QueryRow(ctx, `
			UPDATE requirements
			SET status = $1, version = version + 1
			WHERE requirement_id = $2
			RETURNING version
		`, req.Status, requirementID).Scan(&req.Version)
		if err != nil {
			return err
		}

		log.Info().
			Str("requirement_id", requirementID.String()).
			Int64("amount", req.Amount).
			Int64("allocated", allocated+req.Amount).
			Int64("quota", quotaAmount).
			Msg("Approved requirement")

		result = req
		return nil
	})
	if err != nil {
		return nil, models.EventNone, err
	}
	return result, event, nil
}

// RejectRequirement moves a requirement to REJECTED. Idempotent for an
// already rejected requirement.
func (s *Store) RejectRequirement(ctx context.Context, requirementID uuid.UUID, version int64) (*models.Requirement, models.EventType, error) {
	return s.transitionRequirement(ctx, requirementID, version, models.RequirementRejected,
		func(req *models.Requirement, project *models.Project) error {
			return lifecycle.CanReject(req, project)
		})
}

// ProvisionRequirement records the external provisioning signal.
func (s *Store) ProvisionRequirement(ctx context.Context, requirementID uuid.UUID, version int64) (*models.Requirement, models.EventType, error) {
	return s.transitionRequirement(ctx, requirementID, version, models.RequirementProvisioned,
		func(req *models.Requirement, project *models.Project) error {
			return lifecycle.CanProvision(req)
		})
}

// DecommissionRequirement moves a provisioned requirement to the terminal
// DECOMMISSIONED status.
func (s *Store) DecommissionRequirement(ctx context.Context, requirementID uuid.UUID, version int64) (*models.Requirement, models.EventType, error) {
	return s.transitionRequirement(ctx, requirementID, version, models.RequirementDecommissioned,
		func(req *models.Requirement, project *models.Project) error {
			return lifecycle.CanDecommission(req)
		})
}

// transitionRequirement runs a simple requirement status transition: lock,
// version check, gate, write, event.
func (s *Store) transitionRequirement(
	ctx context.Context,
	requirementID uuid.UUID,
	version int64,
	newStatus models.RequirementStatus,
	check func(*models.Requirement, *models.Project) error,
) (*models.Requirement, models.EventType, error) {
	var result *models.Requirement
	var event models.EventType

	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		req, err := getRequirement(ctx, tx, requirementID, true)
		if err != nil {
			return err
		}
		if req.Version != version {
			return staleVersion("requirement", version, req.Version)
		}

		service, err := getServiceRow(ctx, tx, req.ServiceID)
		if err != nil {
			return err
		}
		project, err := getProject(ctx, tx, service.ProjectID, false)
		if err != nil {
			return err
		}
		if err := check(req, project); err != nil {
			return err
		}

		event = models.EventNone
		if req.Status != newStatus {
			req.Status = newStatus
			event = models.RequirementEvent(newStatus)
		}

		err = tx.QueryRow(ctx, `
			UPDATE requirements
			SET status = $1, version = version + 1
			WHERE requirement_id = $2
			RETURNING version
		`, req.Status, requirementID).Scan(&req.Version)
		if err != nil {
			return err
		}

		result = req
		return nil
	})
	if err != nil {
		return nil, models.EventNone, err
	}
	return result, event, nil
}

// getServiceRow reads a service row without the project status checks.
func getServiceRow(ctx context.Context, q querier, serviceID uuid.UUID) (*models.Service, error) {
	service := &models.Service{ServiceID: serviceID}
	err := q.QueryRow(ctx, `
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

func checkResourceExists(ctx context.Context, q querier, resourceID uuid.UUID) error {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM resources WHERE resource_id = $1)`, resourceID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrResourceNotFound
	}
	return nil
}

// getCategoryResources loads a category with just its allowed resource set,
// which is all the resource validation needs.
func getCategoryResources(ctx context.Context, q querier, categoryID uuid.UUID) (*models.Category, error) {
	category := &models.Category{CategoryID: categoryID}
	err := q.QueryRow(ctx, `
		SELECT name FROM categories WHERE category_id = $1
	`, categoryID).Scan(&category.Name)
	if err != nil {
		return nil, mapNotFound(err, store.ErrCategoryNotFound)
	}

	rows, err := q.Query(ctx, `
		SELECT resource_id FROM category_resources WHERE category_id = $1
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var resourceID uuid.UUID
		if err := rows.Scan(&resourceID); err != nil {
			return nil, err
		}
		category.ResourceIDs = append(category.ResourceIDs, resourceID)
	}
	return category, rows.Err()
}

// lockQuotaPair takes a transaction-scoped advisory lock on a (consortium,
// resource) pair. A plain row lock is not enough because the pair may have
// no quota row at all.
func lockQuotaPair(ctx context.Context, tx pgx.Tx, consortiumID, resourceID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`,
		consortiumID.String(), resourceID.String(),
	)
	return err
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CreateProject adds a project together with its first OWNER collaborator.
// The two inserts share a transaction so a project is never observable
// without an owner.
func (s *Store) CreateProject(ctx context.Context, params store.CreateProjectParams) (*models.Project, error) {
	if params.Name == "" {
		return nil, lifecycle.NewValidationError("name", "name is required")
	}

	project := &models.Project{
		ProjectID:    newID(),
		Name:         params.Name,
		Description:  params.Description,
		Status:       models.ProjectEditable,
		ConsortiumID: params.ConsortiumID,
		Version:      1,
	}
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO projects (project_id, name, description, status, consortium_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at
		`, project.ProjectID, params.Name, params.Description, project.Status, params.ConsortiumID,
		).Scan(&project.CreatedAt)
		if err != nil {
			return mapWriteError(err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO collaborators (collaborator_id, project_id, user_id, role)
			VALUES ($1, $2, $3, $4)
		`, newID(), project.ProjectID, params.OwnerID, models.RoleOwner)
		if err != nil {
			return mapWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("project_id", project.ProjectID.String()).
		Str("name", project.Name).
		Msg("Created project")

	return project, nil
}

// GetProject fetches a project by id.
func (s *Store) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	return getProject(ctx, s.pool, projectID, false)
}

// getProject reads a project row, locking it for the transaction when
// forUpdate is set.
func getProject(ctx context.Context, q querier, projectID uuid.UUID, forUpdate bool) (*models.Project, error) {
	sql := `
		SELECT name, description, status, consortium_id, version, created_at
		FROM projects
		WHERE project_id = $1
	`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	project := &models.Project{ProjectID: projectID}
	err := q.QueryRow(ctx, sql, projectID).Scan(
		&project.Name, &project.Description, &project.Status,
		&project.ConsortiumID, &project.Version, &project.CreatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, store.ErrProjectNotFound)
	}
	return project, nil
}

// ListProjectsForUser returns summaries of the projects the user is a
// collaborator on, with counts computed in the same query.
func (s *Store) ListProjectsForUser(ctx context.Context, userID uuid.UUID) ([]*models.ProjectSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.project_id, p.name, p.description, p.status, p.consortium_id,
		       p.version, p.created_at, c.role,
		       (SELECT COUNT(*) FROM collaborators c2 WHERE c2.project_id = p.project_id),
		       (SELECT COUNT(*) FROM services s WHERE s.project_id = p.project_id),
		       (SELECT COUNT(*)
		        FROM requirements r
		        JOIN services s2 ON s2.service_id = r.service_id
		        WHERE s2.project_id = p.project_id)
		FROM projects p
		JOIN collaborators c ON c.project_id = p.project_id AND c.user_id = $1
		ORDER BY p.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var results []*models.ProjectSummary
	for rows.Next() {
		summary := &models.ProjectSummary{}
		if err := rows.Scan(
			&summary.ProjectID, &summary.Name, &summary.Description, &summary.Status,
			&summary.ConsortiumID, &summary.Version, &summary.CreatedAt,
			&summary.CurrentUserRole, &summary.NumCollaborators,
			&summary.NumServices, &summary.NumRequirements,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		results = append(results, summary)
	}
	return results, rows.Err()
}

// SubmitForReview moves an EDITABLE project to UNDER_REVIEW.
func (s *Store) SubmitForReview(ctx context.Context, projectID uuid.UUID, version int64) (*models.Project, models.EventType, error) {
	return s.transitionProject(ctx, projectID, version, models.ProjectUnderReview, lifecycle.CheckSubmitForReview, nil)
}

// RequestChanges returns an UNDER_REVIEW project to EDITABLE for rework.
func (s *Store) RequestChanges(ctx context.Context, projectID uuid.UUID, version int64) (*models.Project, models.EventType, error) {
	return s.transitionProject(ctx, projectID, version, models.ProjectEditable, lifecycle.CheckRequestChanges, nil)
}

// SubmitForProvisioning returns an UNDER_REVIEW project to EDITABLE and
// bulk-advances every APPROVED requirement to AWAITING_PROVISIONING in the
// same transaction.
func (s *Store) SubmitForProvisioning(ctx context.Context, projectID uuid.UUID, version int64) (*models.Project, models.EventType, error) {
	return s.transitionProject(ctx, projectID, version, models.ProjectEditable,
		lifecycle.CheckSubmitForProvisioning,
		func(ctx context.Context, tx pgx.Tx, projectID uuid.UUID) error {
			_, err := tx.Exec(ctx, `
				UPDATE requirements
				SET status = $1, version = version + 1
				WHERE status = $2
				  AND service_id IN (SELECT service_id FROM services WHERE project_id = $3)
			`, models.RequirementAwaitingProvisioning, models.RequirementApproved, projectID)
			return err
		})
}

// CompleteProject is the administrative transition to COMPLETED.
func (s *Store) CompleteProject(ctx context.Context, projectID uuid.UUID, version int64) (*models.Project, models.EventType, error) {
	return s.transitionProject(ctx, projectID, version, models.ProjectCompleted, lifecycle.CheckComplete, nil)
}

// ProjectRequirementCounts snapshots the per-status requirement counts for a
// project.
func (s *Store) ProjectRequirementCounts(ctx context.Context, projectID uuid.UUID) (models.RequirementCounts, error) {
	if _, err := getProject(ctx, s.pool, projectID, false); err != nil {
		return models.RequirementCounts{}, err
	}
	return requirementCounts(ctx, s.pool, projectID)
}

// requirementCounts aggregates a project's requirements by status. Run on a
// transaction, it sees that transaction's snapshot, which is what the
// project transition gates require.
func requirementCounts(ctx context.Context, q querier, projectID uuid.UUID) (models.RequirementCounts, error) {
	rows, err := q.Query(ctx, `
		SELECT r.status, COUNT(*)
		FROM requirements r
		JOIN services s ON s.service_id = r.service_id
		WHERE s.project_id = $1
		GROUP BY r.status
	`, projectID)
	if err != nil {
		return models.RequirementCounts{}, fmt.Errorf("failed to count requirements: %w", err)
	}
	defer rows.Close()

	var counts models.RequirementCounts
	for rows.Next() {
		var status models.RequirementStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return models.RequirementCounts{}, fmt.Errorf("failed to scan requirement count: %w", err)
		}
		switch status {
		case models.RequirementRequested:
			counts.Requested = count
		case models.RequirementRejected:
			counts.Rejected = count
		case models.RequirementApproved:
			counts.Approved = count
		case models.RequirementAwaitingProvisioning:
			counts.AwaitingProvisioning = count
		case models.RequirementProvisioned:
			counts.Provisioned = count
		case models.RequirementDecommissioned:
			counts.Decommissioned = count
		}
	}
	return counts, rows.Err()
}

// transitionProject runs a project status transition: lock the row, verify
// the version, evaluate the gate against a requirement-count snapshot, apply
// the optional side effect, then write the status and classify the event.
func (s *Store) transitionProject(
	ctx context.Context,
	projectID uuid.UUID,
	version int64,
	newStatus models.ProjectStatus,
	check func(*models.Project, models.RequirementCounts) error,
	sideEffect func(ctx context.Context, tx pgx.Tx, projectID uuid.UUID) error,
) (*models.Project, models.EventType, error) {
	var project *models.Project
	var event models.EventType

	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		project, err = getProject(ctx, tx, projectID, true)
		if err != nil {
			return err
		}
		if project.Version != version {
			return staleVersion("project", version, project.Version)
		}

		counts, err := requirementCounts(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if err := check(project, counts); err != nil {
			return err
		}

		if sideEffect != nil {
			if err := sideEffect(ctx, tx, projectID); err != nil {
				return err
			}
		}

		err = tx.QueryRow(ctx, `
			UPDATE projects
			SET status = $1, version = version + 1
			WHERE project_id = $2
			RETURNING version
		`, newStatus, projectID).Scan(&project.Version)
		if err != nil {
			return err
		}
		project.Status = newStatus

		counts, err = requirementCounts(ctx, tx, projectID)
		if err != nil {
			return err
		}
		event = lifecycle.ClassifyProjectEvent(newStatus, counts)
		return nil
	})
	if err != nil {
		return nil, models.EventNone, err
	}

	log.Info().
		Str("project_id", projectID.String()).
		Str("status", project.Status.String()).
		Str("event", string(event)).
		Msg("Project transitioned")

	return project, event, nil
}

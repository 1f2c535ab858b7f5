package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// GetCollaborator fetches a collaborator by id.
func (s *Store) GetCollaborator(ctx context.Context, collaboratorID uuid.UUID) (*models.Collaborator, error) {
	return getCollaborator(ctx, s.pool, collaboratorID, false)
}

func getCollaborator(ctx context.Context, q querier, collaboratorID uuid.UUID, forUpdate bool) (*models.Collaborator, error) {
	sql := `
		SELECT project_id, user_id, role, created_at
		FROM collaborators
		WHERE collaborator_id = $1
	`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	collab := &models.Collaborator{CollaboratorID: collaboratorID}
	err := q.QueryRow(ctx, sql, collaboratorID).Scan(
		&collab.ProjectID, &collab.UserID, &collab.Role, &collab.CreatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, store.ErrCollaboratorNotFound)
	}
	return collab, nil
}

// ListCollaborators returns the collaborators of a project.
func (s *Store) ListCollaborators(ctx context.Context, projectID uuid.UUID) ([]*models.Collaborator, error) {
	if _, err := getProject(ctx, s.pool, projectID, false); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT collaborator_id, user_id, role, created_at
		FROM collaborators
		WHERE project_id = $1
		ORDER BY created_at
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}
	defer rows.Close()

	var results []*models.Collaborator
	for rows.Next() {
		collab := &models.Collaborator{ProjectID: projectID}
		if err := rows.Scan(
			&collab.CollaboratorID, &collab.UserID, &collab.Role, &collab.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan collaborator: %w", err)
		}
		results = append(results, collab)
	}
	return results, rows.Err()
}

// GetProjectRole returns the collaborator row for (project, user).
func (s *Store) GetProjectRole(ctx context.Context, projectID, userID uuid.UUID) (*models.Collaborator, error) {
	collab := &models.Collaborator{ProjectID: projectID, UserID: userID}
	err := s.pool.QueryRow(ctx, `
		SELECT collaborator_id, role, created_at
		FROM collaborators
		WHERE project_id = $1 AND user_id = $2
	`, projectID, userID).Scan(&collab.CollaboratorID, &collab.Role, &collab.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err, store.ErrCollaboratorNotFound)
	}
	return collab, nil
}

// UpdateCollaboratorRole changes a collaborator's role, guarding against a
// downgrade that would leave the project without an owner. The project's
// collaborator rows are locked while the owner count is read, so two
// concurrent downgrades of the last two owners cannot both succeed.
func (s *Store) UpdateCollaboratorRole(ctx context.Context, collaboratorID uuid.UUID, newRole models.Role) (*models.Collaborator, error) {
	var collab *models.Collaborator

	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		collab, err = getCollaborator(ctx, tx, collaboratorID, true)
		if err != nil {
			return err
		}

		otherOwners, err := lockAndCountOtherOwners(ctx, tx, collab.ProjectID, collaboratorID)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckRoleChange(collab, newRole, otherOwners); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE collaborators SET role = $1 WHERE collaborator_id = $2
		`, newRole, collaboratorID)
		if err != nil {
			return err
		}
		collab.Role = newRole
		return nil
	})
	if err != nil {
		return nil, err
	}
	return collab, nil
}

// DeleteCollaborator removes a collaborator, guarding against removing the
// last owner.
func (s *Store) DeleteCollaborator(ctx context.Context, collaboratorID uuid.UUID) error {
	return s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		collab, err := getCollaborator(ctx, tx, collaboratorID, true)
		if err != nil {
			return err
		}

		otherOwners, err := lockAndCountOtherOwners(ctx, tx, collab.ProjectID, collaboratorID)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckRemoval(collab, otherOwners); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM collaborators WHERE collaborator_id = $1
		`, collaboratorID)
		return err
	})
}

// lockAndCountOtherOwners locks the project's collaborator rows and returns
// how many owners other than the given collaborator the project has.
func lockAndCountOtherOwners(ctx context.Context, tx pgx.Tx, projectID, collaboratorID uuid.UUID) (int64, error) {
	rows, err := tx.Query(ctx, `
		SELECT collaborator_id, role
		FROM collaborators
		WHERE project_id = $1
		FOR UPDATE
	`, projectID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var otherOwners int64
	for rows.Next() {
		var id uuid.UUID
		var role models.Role
		if err := rows.Scan(&id, &role); err != nil {
			return 0, err
		}
		if id != collaboratorID && role == models.RoleOwner {
			otherOwners++
		}
	}
	return otherOwners, rows.Err()
}

// CreateInvitation invites an email address to a project. The email must not
// belong to an existing collaborator and must not already have an
// outstanding invitation for the project.
func (s *Store) CreateInvitation(ctx context.Context, params store.CreateInvitationParams) (*models.Invitation, error) {
	if params.Email == "" {
		return nil, lifecycle.NewValidationError("email", "email is required")
	}

	invitation := &models.Invitation{
		InvitationID: newID(),
		ProjectID:    params.ProjectID,
		Email:        params.Email,
		Code:         models.NewInvitationCode(),
	}
	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := getProject(ctx, tx, params.ProjectID, false); err != nil {
			return err
		}

		var displayName string
		err := tx.QueryRow(ctx, `
			SELECT COALESCE(NULLIF(u.full_name, ''), u.username)
			FROM collaborators c
			JOIN users u ON u.user_id = c.user_id
			WHERE c.project_id = $1 AND LOWER(u.email) = LOWER($2)
		`, params.ProjectID, params.Email).Scan(&displayName)
		if err == nil {
			return lifecycle.NewValidationError("email",
				"user with this email address is already a project collaborator (%s)", displayName)
		}
		if err != pgx.ErrNoRows {
			return err
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO invitations (invitation_id, project_id, email, code)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`, invitation.InvitationID, params.ProjectID, params.Email, invitation.Code,
		).Scan(&invitation.CreatedAt)
		if err != nil {
			return mapWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invitation, nil
}

// GetInvitation fetches an invitation by id.
func (s *Store) GetInvitation(ctx context.Context, invitationID uuid.UUID) (*models.Invitation, error) {
	invitation := &models.Invitation{InvitationID: invitationID}
	err := s.pool.QueryRow(ctx, `
		SELECT project_id, email, code, created_at
		FROM invitations
		WHERE invitation_id = $1
	`, invitationID).Scan(
		&invitation.ProjectID, &invitation.Email, &invitation.Code, &invitation.CreatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, store.ErrInvitationNotFound)
	}
	return invitation, nil
}

// ListInvitations returns the outstanding invitations for a project.
func (s *Store) ListInvitations(ctx context.Context, projectID uuid.UUID) ([]*models.Invitation, error) {
	if _, err := getProject(ctx, s.pool, projectID, false); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT invitation_id, email, code, created_at
		FROM invitations
		WHERE project_id = $1
		ORDER BY created_at
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var results []*models.Invitation
	for rows.Next() {
		invitation := &models.Invitation{ProjectID: projectID}
		if err := rows.Scan(
			&invitation.InvitationID, &invitation.Email, &invitation.Code, &invitation.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		results = append(results, invitation)
	}
	return results, rows.Err()
}

// DeleteInvitation withdraws an invitation.
func (s *Store) DeleteInvitation(ctx context.Context, invitationID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM invitations WHERE invitation_id = $1
	`, invitationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrInvitationNotFound
	}
	return nil
}

// AcceptInvitation redeems a code for a user. The invitation is consumed
// even when the user already collaborates on the project; unknown and
// expired codes are indistinguishable to the caller.
func (s *Store) AcceptInvitation(ctx context.Context, code string, userID uuid.UUID) (*models.Collaborator, error) {
	var collab *models.Collaborator

	err := s.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, userID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return store.ErrUserNotFound
		}

		invitation := &models.Invitation{Code: code}
		err = tx.QueryRow(ctx, `
			SELECT invitation_id, project_id, email, created_at
			FROM invitations
			WHERE code = $1
			FOR UPDATE
		`, code).Scan(
			&invitation.InvitationID, &invitation.ProjectID,
			&invitation.Email, &invitation.CreatedAt,
		)
		if err != nil {
			return mapNotFound(err, store.ErrInvitationInvalid)
		}
		if invitation.Expired(time.Now()) {
			return store.ErrInvitationInvalid
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM invitations WHERE invitation_id = $1
		`, invitation.InvitationID)
		if err != nil {
			return err
		}

		collab = &models.Collaborator{
			ProjectID: invitation.ProjectID,
			UserID:    userID,
			Role:      models.RoleContributor,
		}
		err = tx.QueryRow(ctx, `
			SELECT collaborator_id, role, created_at
			FROM collaborators
			WHERE project_id = $1 AND user_id = $2
		`, invitation.ProjectID, userID).Scan(
			&collab.CollaboratorID, &collab.Role, &collab.CreatedAt,
		)
		if err == nil {
			return nil
		}
		if err != pgx.ErrNoRows {
			return err
		}

		collab.CollaboratorID = newID()
		err = tx.QueryRow(ctx, `
			INSERT INTO collaborators (collaborator_id, project_id, user_id, role)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at
		`, collab.CollaboratorID, invitation.ProjectID, userID, collab.Role,
		).Scan(&collab.CreatedAt)
		if err != nil {
			return mapWriteError(err)
		}

		log.Info().
			Str("project_id", invitation.ProjectID.String()).
			Str("user_id", userID.String()).
			Msg("Invitation accepted")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return collab, nil
}

// PruneInvitations deletes invitations created before the cutoff.
func (s *Store) PruneInvitations(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM invitations WHERE created_at < $1
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

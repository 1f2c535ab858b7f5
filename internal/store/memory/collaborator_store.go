package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// GetCollaborator fetches a collaborator by id.
func (s *Store) GetCollaborator(ctx context.Context, collaboratorID uuid.UUID) (*models.Collaborator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	collab, ok := s.collaborators[collaboratorID]
	if !ok {
		return nil, store.ErrCollaboratorNotFound
	}
	cp := *collab
	return &cp, nil
}

// ListCollaborators returns the collaborators of a project.
func (s *Store) ListCollaborators(ctx context.Context, projectID uuid.UUID) ([]*models.Collaborator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, store.ErrProjectNotFound
	}
	var results []*models.Collaborator
	for _, collab := range s.collaborators {
		if collab.ProjectID == projectID {
			cp := *collab
			results = append(results, &cp)
		}
	}
	return results, nil
}

// GetProjectRole returns the collaborator row for (project, user).
func (s *Store) GetProjectRole(ctx context.Context, projectID, userID uuid.UUID) (*models.Collaborator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, collab := range s.collaborators {
		if collab.ProjectID == projectID && collab.UserID == userID {
			cp := *collab
			return &cp, nil
		}
	}
	return nil, store.ErrCollaboratorNotFound
}

// UpdateCollaboratorRole changes a collaborator's role, guarding against a
// downgrade that would leave the project without an owner. The owner count
// and the write happen under the same lock.
func (s *Store) UpdateCollaboratorRole(ctx context.Context, collaboratorID uuid.UUID, newRole models.Role) (*models.Collaborator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collab, ok := s.collaborators[collaboratorID]
	if !ok {
		return nil, store.ErrCollaboratorNotFound
	}

	otherOwners := s.ownerCount(collab.ProjectID, collaboratorID)
	if err := lifecycle.CheckRoleChange(collab, newRole, otherOwners); err != nil {
		return nil, err
	}
	collab.Role = newRole

	cp := *collab
	return &cp, nil
}

// DeleteCollaborator removes a collaborator, guarding against removing the
// last owner.
func (s *Store) DeleteCollaborator(ctx context.Context, collaboratorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	collab, ok := s.collaborators[collaboratorID]
	if !ok {
		return store.ErrCollaboratorNotFound
	}

	otherOwners := s.ownerCount(collab.ProjectID, collaboratorID)
	if err := lifecycle.CheckRemoval(collab, otherOwners); err != nil {
		return err
	}

	delete(s.collaborators, collaboratorID)
	return nil
}

// CreateInvitation invites an email address to a project. The email must not
// belong to an existing collaborator and must not already have an outstanding
// invitation for the project.
func (s *Store) CreateInvitation(ctx context.Context, params store.CreateInvitationParams) (*models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[params.ProjectID]; !ok {
		return nil, store.ErrProjectNotFound
	}
	if params.Email == "" {
		return nil, lifecycle.NewValidationError("email", "email is required")
	}
	for _, collab := range s.collaborators {
		if collab.ProjectID != params.ProjectID {
			continue
		}
		if user, ok := s.users[collab.UserID]; ok && equalFold(user.Email, params.Email) {
			return nil, lifecycle.NewValidationError("email",
				"user with this email address is already a project collaborator (%s)", user.DisplayName())
		}
	}
	for _, inv := range s.invitations {
		if inv.ProjectID == params.ProjectID && equalFold(inv.Email, params.Email) {
			return nil, lifecycle.NewValidationError("email",
				"email address already has an invitation for this project")
		}
	}

	invitation := &models.Invitation{
		InvitationID: newID(),
		ProjectID:    params.ProjectID,
		Email:        params.Email,
		Code:         models.NewInvitationCode(),
		CreatedAt:    s.now(),
	}
	s.invitations[invitation.InvitationID] = invitation

	cp := *invitation
	return &cp, nil
}

// GetInvitation fetches an invitation by id.
func (s *Store) GetInvitation(ctx context.Context, invitationID uuid.UUID) (*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invitation, ok := s.invitations[invitationID]
	if !ok {
		return nil, store.ErrInvitationNotFound
	}
	cp := *invitation
	return &cp, nil
}

// ListInvitations returns the outstanding invitations for a project.
func (s *Store) ListInvitations(ctx context.Context, projectID uuid.UUID) ([]*models.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, store.ErrProjectNotFound
	}
	var results []*models.Invitation
	for _, invitation := range s.invitations {
		if invitation.ProjectID == projectID {
			cp := *invitation
			results = append(results, &cp)
		}
	}
	return results, nil
}

// DeleteInvitation withdraws an invitation.
func (s *Store) DeleteInvitation(ctx context.Context, invitationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invitations[invitationID]; !ok {
		return store.ErrInvitationNotFound
	}
	delete(s.invitations, invitationID)
	return nil
}

// AcceptInvitation redeems a code for a user. The invitation is consumed
// even when the user already collaborates on the project.
func (s *Store) AcceptInvitation(ctx context.Context, code string, userID uuid.UUID) (*models.Collaborator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, store.ErrUserNotFound
	}

	var invitation *models.Invitation
	for _, inv := range s.invitations {
		if inv.Code == code {
			invitation = inv
			break
		}
	}
	if invitation == nil || invitation.Expired(s.now()) {
		return nil, store.ErrInvitationInvalid
	}

	delete(s.invitations, invitation.InvitationID)

	for _, collab := range s.collaborators {
		if collab.ProjectID == invitation.ProjectID && collab.UserID == userID {
			cp := *collab
			return &cp, nil
		}
	}

	collab := &models.Collaborator{
		CollaboratorID: newID(),
		ProjectID:      invitation.ProjectID,
		UserID:         userID,
		Role:           models.RoleContributor,
		CreatedAt:      s.now(),
	}
	s.collaborators[collab.CollaboratorID] = collab

	log.Info().
		Str("project_id", invitation.ProjectID.String()).
		Str("user_id", userID.String()).
		Msg("Invitation accepted")

	cp := *collab
	return &cp, nil
}

// PruneInvitations deletes invitations created before the cutoff.
func (s *Store) PruneInvitations(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pruned int64
	for id, invitation := range s.invitations {
		if invitation.CreatedAt.Before(olderThan) {
			delete(s.invitations, id)
			pruned++
		}
	}
	return pruned, nil
}

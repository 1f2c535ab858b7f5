package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/auth"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CollaboratorService exposes the collaborator and invitation actions.
type CollaboratorService struct {
	store store.Store
}

// NewCollaboratorService creates a collaborator service backed by the given
// store.
func NewCollaboratorService(st store.Store) *CollaboratorService {
	return &CollaboratorService{store: st}
}

// List returns a project's collaborators for an actor who can view it.
func (s *CollaboratorService) List(ctx context.Context, projectID, userID uuid.UUID) ([]*models.Collaborator, error) {
	if err := s.requireProjectPermission(ctx, projectID, userID, auth.PermProjectView); err != nil {
		return nil, err
	}
	return s.store.ListCollaborators(ctx, projectID)
}

// UpdateRole changes a collaborator's role. Owners only; downgrading the
// last owner fails with the sole_owner conflict.
func (s *CollaboratorService) UpdateRole(ctx context.Context, collaboratorID uuid.UUID, newRole models.Role, userID uuid.UUID) (*models.Collaborator, error) {
	collab, err := s.store.GetCollaborator(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}
	if err := s.requireProjectPermission(ctx, collab.ProjectID, userID, auth.PermCollaboratorsManage); err != nil {
		return nil, err
	}
	return s.store.UpdateCollaboratorRole(ctx, collaboratorID, newRole)
}

// Delete removes a collaborator. Owners only; removing the last owner fails
// with the sole_owner conflict.
func (s *CollaboratorService) Delete(ctx context.Context, collaboratorID, userID uuid.UUID) error {
	collab, err := s.store.GetCollaborator(ctx, collaboratorID)
	if err != nil {
		return err
	}
	if err := s.requireProjectPermission(ctx, collab.ProjectID, userID, auth.PermCollaboratorsManage); err != nil {
		return err
	}
	return s.store.DeleteCollaborator(ctx, collaboratorID)
}

// Invite creates an invitation for an email address to join a project.
// Owners only.
func (s *CollaboratorService) Invite(ctx context.Context, projectID uuid.UUID, email string, userID uuid.UUID) (*models.Invitation, error) {
	if err := s.requireProjectPermission(ctx, projectID, userID, auth.PermInvitationsManage); err != nil {
		return nil, err
	}
	return s.store.CreateInvitation(ctx, store.CreateInvitationParams{
		ProjectID: projectID,
		Email:     email,
	})
}

// Withdraw deletes an outstanding invitation. Owners only.
func (s *CollaboratorService) Withdraw(ctx context.Context, invitationID, userID uuid.UUID) error {
	invitation, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return err
	}
	if err := s.requireProjectPermission(ctx, invitation.ProjectID, userID, auth.PermInvitationsManage); err != nil {
		return err
	}
	return s.store.DeleteInvitation(ctx, invitationID)
}

// AcceptInvitation redeems an invitation code for the authenticated user.
// Whoever holds a valid code may join; no project permission applies.
func (s *CollaboratorService) AcceptInvitation(ctx context.Context, code string, userID uuid.UUID) (*models.Collaborator, error) {
	return s.store.AcceptInvitation(ctx, code, userID)
}

func (s *CollaboratorService) requireProjectPermission(ctx context.Context, projectID, userID uuid.UUID, perm auth.Permission) error {
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

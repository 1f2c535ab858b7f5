package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/models"
)

// CreateInvitationParams carries the fields for a new invitation.
type CreateInvitationParams struct {
	ProjectID uuid.UUID
	Email     string
}

// CollaboratorStore persists project memberships and invitations. The
// sole-owner guard runs inside the same atomic operation as the mutation, so
// two concurrent removals of a project's last two owners cannot both succeed.
type CollaboratorStore interface {
	GetCollaborator(ctx context.Context, collaboratorID uuid.UUID) (*models.Collaborator, error)
	ListCollaborators(ctx context.Context, projectID uuid.UUID) ([]*models.Collaborator, error)

	// GetProjectRole returns the collaborator row for (project, user), or
	// ErrCollaboratorNotFound if the user is not a collaborator.
	GetProjectRole(ctx context.Context, projectID, userID uuid.UUID) (*models.Collaborator, error)

	// UpdateCollaboratorRole changes a collaborator's role. Downgrading the
	// last owner fails with the sole_owner conflict.
	UpdateCollaboratorRole(ctx context.Context, collaboratorID uuid.UUID, newRole models.Role) (*models.Collaborator, error)

	// DeleteCollaborator removes a collaborator. Removing the last owner
	// fails with the sole_owner conflict.
	DeleteCollaborator(ctx context.Context, collaboratorID uuid.UUID) error

	// CreateInvitation invites an email address to the project. At most one
	// outstanding invitation may exist per email per project, and none if the
	// email already belongs to a collaborator; both matches are
	// case-insensitive.
	CreateInvitation(ctx context.Context, params CreateInvitationParams) (*models.Invitation, error)
	GetInvitation(ctx context.Context, invitationID uuid.UUID) (*models.Invitation, error)
	ListInvitations(ctx context.Context, projectID uuid.UUID) ([]*models.Invitation, error)
	DeleteInvitation(ctx context.Context, invitationID uuid.UUID) error

	// AcceptInvitation redeems a code for the given user, creating a
	// CONTRIBUTOR collaborator and consuming the invitation. If the user is
	// already a collaborator the membership is unchanged but the invitation
	// is still consumed. Unknown and expired codes both return
	// ErrInvitationInvalid.
	AcceptInvitation(ctx context.Context, code string, userID uuid.UUID) (*models.Collaborator, error)

	// PruneInvitations deletes invitations created before the cutoff and
	// returns how many were removed.
	PruneInvitations(ctx context.Context, olderThan time.Time) (int64, error)
}

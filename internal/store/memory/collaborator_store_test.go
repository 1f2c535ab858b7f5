package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

func TestSoleOwnerGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("sole owner cannot be downgraded", func(t *testing.T) {
		f := newFixture(t)
		owner, err := f.st.GetProjectRole(ctx, f.project.ProjectID, f.owner.UserID)
		require.NoError(t, err)

		_, err = f.st.UpdateCollaboratorRole(ctx, owner.CollaboratorID, models.RoleContributor)
		require.Equal(t, lifecycle.CodeSoleOwner, lifecycle.ConflictCode(err))
	})

	t.Run("sole owner cannot be removed", func(t *testing.T) {
		f := newFixture(t)
		owner, err := f.st.GetProjectRole(ctx, f.project.ProjectID, f.owner.UserID)
		require.NoError(t, err)

		err = f.st.DeleteCollaborator(ctx, owner.CollaboratorID)
		require.Equal(t, lifecycle.CodeSoleOwner, lifecycle.ConflictCode(err))
	})

	t.Run("owner can step down once another owner exists", func(t *testing.T) {
		f := newFixture(t)
		second := f.addCollaborator(t, "second", "second@example.org")

		_, err := f.st.UpdateCollaboratorRole(ctx, second.CollaboratorID, models.RoleOwner)
		require.NoError(t, err)

		owner, err := f.st.GetProjectRole(ctx, f.project.ProjectID, f.owner.UserID)
		require.NoError(t, err)
		updated, err := f.st.UpdateCollaboratorRole(ctx, owner.CollaboratorID, models.RoleContributor)
		require.NoError(t, err)
		require.Equal(t, models.RoleContributor, updated.Role)

		// The stepped-down owner is now removable; the remaining owner is not.
		require.NoError(t, f.st.DeleteCollaborator(ctx, owner.CollaboratorID))
		err = f.st.DeleteCollaborator(ctx, second.CollaboratorID)
		require.Equal(t, lifecycle.CodeSoleOwner, lifecycle.ConflictCode(err))
	})
}

func TestInvitations(t *testing.T) {
	ctx := context.Background()

	t.Run("create and accept", func(t *testing.T) {
		f := newFixture(t)
		invitee, err := f.st.CreateUser(ctx, store.CreateUserParams{Username: "invitee", Email: "invitee@example.org"})
		require.NoError(t, err)

		invitation, err := f.st.CreateInvitation(ctx, store.CreateInvitationParams{
			ProjectID: f.project.ProjectID,
			Email:     "invitee@example.org",
		})
		require.NoError(t, err)
		require.NotEmpty(t, invitation.Code)

		collab, err := f.st.AcceptInvitation(ctx, invitation.Code, invitee.UserID)
		require.NoError(t, err)
		require.Equal(t, models.RoleContributor, collab.Role)
		require.Equal(t, f.project.ProjectID, collab.ProjectID)

		// The code is single use.
		_, err = f.st.AcceptInvitation(ctx, invitation.Code, invitee.UserID)
		require.ErrorIs(t, err, store.ErrInvitationInvalid)
	})

	t.Run("duplicate email is rejected case-insensitively", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.st.CreateInvitation(ctx, store.CreateInvitationParams{
			ProjectID: f.project.ProjectID,
			Email:     "someone@example.org",
		})
		require.NoError(t, err)

		_, err = f.st.CreateInvitation(ctx, store.CreateInvitationParams{
			ProjectID: f.project.ProjectID,
			Email:     "Someone@Example.org",
		})
		require.True(t, lifecycle.IsValidation(err))
	})

	t.Run("collaborator email cannot be invited", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.st.CreateInvitation(ctx, store.CreateInvitationParams{
			ProjectID: f.project.ProjectID,
			Email:     "owner@example.org",
		})
		require.True(t, lifecycle.IsValidation(err))
	})

	t.Run("expired code cannot be accepted but is still consumed once pruned", func(t *testing.T) {
		f := newFixture(t)
		invitee, err := f.st.CreateUser(ctx, store.CreateUserParams{Username: "late", Email: "late@example.org"})
		require.NoError(t, err)

		invitation, err := f.st.CreateInvitation(ctx, store.CreateInvitationParams{
			ProjectID: f.project.ProjectID,
			Email:     "late@example.org",
		})
		require.NoError(t, err)

		f.st.SetClock(func() time.Time { return testNow.Add(models.InvitationTTL + time.Hour) })

		_, err = f.st.AcceptInvitation(ctx, invitation.Code, invitee.UserID)
		require.ErrorIs(t, err, store.ErrInvitationInvalid)

		pruned, err := f.st.PruneInvitations(ctx, testNow.Add(time.Minute))
		require.NoError(t, err)
		require.Equal(t, int64(1), pruned)

		_, err = f.st.GetInvitation(ctx, invitation.InvitationID)
		require.ErrorIs(t, err, store.ErrInvitationNotFound)
	})

	t.Run("accepting while already a collaborator consumes the invitation", func(t *testing.T) {
		f := newFixture(t)
		second := f.addCollaborator(t, "dup", "dup@example.org")

		invitation, err := f.st.CreateInvitation(ctx, store.CreateInvitationParams{
			ProjectID: f.project.ProjectID,
			Email:     "other-address@example.org",
		})
		require.NoError(t, err)

		collab, err := f.st.AcceptInvitation(ctx, invitation.Code, second.UserID)
		require.NoError(t, err)
		require.Equal(t, second.CollaboratorID, collab.CollaboratorID)

		_, err = f.st.GetInvitation(ctx, invitation.InvitationID)
		require.ErrorIs(t, err, store.ErrInvitationNotFound)
	})

	t.Run("withdraw", func(t *testing.T) {
		f := newFixture(t)
		invitation, err := f.st.CreateInvitation(ctx, store.CreateInvitationParams{
			ProjectID: f.project.ProjectID,
			Email:     "gone@example.org",
		})
		require.NoError(t, err)

		require.NoError(t, f.st.DeleteInvitation(ctx, invitation.InvitationID))
		require.ErrorIs(t, f.st.DeleteInvitation(ctx, invitation.InvitationID), store.ErrInvitationNotFound)
	})
}

// addCollaborator invites a fresh user to the fixture project and accepts
// the invitation, returning the contributor row.
func (f *fixture) addCollaborator(t *testing.T, username, email string) *models.Collaborator {
	t.Helper()
	ctx := context.Background()

	user, err := f.st.CreateUser(ctx, store.CreateUserParams{Username: username, Email: email})
	require.NoError(t, err)
	invitation, err := f.st.CreateInvitation(ctx, store.CreateInvitationParams{
		ProjectID: f.project.ProjectID,
		Email:     email,
	})
	require.NoError(t, err)
	collab, err := f.st.AcceptInvitation(ctx, invitation.Code, user.UserID)
	require.NoError(t, err)
	return collab
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/store"
)

func TestComments(t *testing.T) {
	ctx := context.Background()

	t.Run("create and list newest first", func(t *testing.T) {
		f := newFixture(t)
		now := testNow
		f.st.SetClock(func() time.Time { return now })

		first, err := f.st.CreateComment(ctx, store.CreateCommentParams{
			ProjectID: f.project.ProjectID,
			UserID:    f.owner.UserID,
			Content:   "please review the storage requirement",
		})
		require.NoError(t, err)
		require.Equal(t, first.CreatedAt, first.EditedAt)

		now = now.Add(time.Minute)
		second, err := f.st.CreateComment(ctx, store.CreateCommentParams{
			ProjectID: f.project.ProjectID,
			UserID:    f.manager.UserID,
			Content:   "the amount looks too high for this consortium",
		})
		require.NoError(t, err)

		comments, err := f.st.ListCommentsForProject(ctx, f.project.ProjectID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		require.Equal(t, second.CommentID, comments[0].CommentID)
		require.Equal(t, first.CommentID, comments[1].CommentID)
	})

	t.Run("content must not be empty", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.st.CreateComment(ctx, store.CreateCommentParams{
			ProjectID: f.project.ProjectID,
			UserID:    f.owner.UserID,
		})
		require.True(t, lifecycle.IsValidation(err))
	})

	t.Run("update stamps the edit time", func(t *testing.T) {
		f := newFixture(t)
		now := testNow
		f.st.SetClock(func() time.Time { return now })

		comment, err := f.st.CreateComment(ctx, store.CreateCommentParams{
			ProjectID: f.project.ProjectID,
			UserID:    f.owner.UserID,
			Content:   "draft",
		})
		require.NoError(t, err)

		now = now.Add(time.Hour)
		updated, err := f.st.UpdateComment(ctx, comment.CommentID, "final")
		require.NoError(t, err)
		require.Equal(t, "final", updated.Content)
		require.Equal(t, comment.CreatedAt, updated.CreatedAt)
		require.True(t, updated.EditedAt.After(updated.CreatedAt))

		_, err = f.st.UpdateComment(ctx, comment.CommentID, "")
		require.True(t, lifecycle.IsValidation(err))
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture(t)
		comment, err := f.st.CreateComment(ctx, store.CreateCommentParams{
			ProjectID: f.project.ProjectID,
			UserID:    f.owner.UserID,
			Content:   "obsolete",
		})
		require.NoError(t, err)

		require.NoError(t, f.st.DeleteComment(ctx, comment.CommentID))
		require.ErrorIs(t, f.st.DeleteComment(ctx, comment.CommentID), store.ErrCommentNotFound)

		_, err = f.st.GetComment(ctx, comment.CommentID)
		require.ErrorIs(t, err, store.ErrCommentNotFound)
	})

	t.Run("unknown project or user", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.st.CreateComment(ctx, store.CreateCommentParams{
			ProjectID: newID(),
			UserID:    f.owner.UserID,
			Content:   "lost",
		})
		require.ErrorIs(t, err, store.ErrProjectNotFound)

		_, err = f.st.CreateComment(ctx, store.CreateCommentParams{
			ProjectID: f.project.ProjectID,
			UserID:    newID(),
			Content:   "lost",
		})
		require.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

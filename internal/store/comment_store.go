package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/models"
)

// CreateCommentParams carries the fields for a new comment.
type CreateCommentParams struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Content   string
}

// CommentStore persists the discussion on a project. Comments have no
// lifecycle of their own; who may post and moderate them is decided in the
// action layer.
type CommentStore interface {
	CreateComment(ctx context.Context, params CreateCommentParams) (*models.Comment, error)
	GetComment(ctx context.Context, commentID uuid.UUID) (*models.Comment, error)

	// ListCommentsForProject returns a project's comments, newest first.
	ListCommentsForProject(ctx context.Context, projectID uuid.UUID) ([]*models.Comment, error)

	// UpdateComment replaces a comment's content and stamps the edit time.
	UpdateComment(ctx context.Context, commentID uuid.UUID, content string) (*models.Comment, error)

	DeleteComment(ctx context.Context, commentID uuid.UUID) error
}

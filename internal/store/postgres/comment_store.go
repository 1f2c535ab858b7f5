package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CreateComment posts a comment on a project.
func (s *Store) CreateComment(ctx context.Context, params store.CreateCommentParams) (*models.Comment, error) {
	if params.Content == "" {
		return nil, lifecycle.NewValidationError("content", "comment content must not be empty")
	}

	comment := &models.Comment{
		CommentID: newID(),
		ProjectID: params.ProjectID,
		UserID:    params.UserID,
		Content:   params.Content,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO comments (comment_id, project_id, user_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, edited_at
	`, comment.CommentID, params.ProjectID, params.UserID, params.Content,
	).Scan(&comment.CreatedAt, &comment.EditedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return comment, nil
}

// GetComment fetches a comment by id.
func (s *Store) GetComment(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	comment := &models.Comment{CommentID: commentID}
	err := s.pool.QueryRow(ctx, `
		SELECT project_id, user_id, content, created_at, edited_at
		FROM comments
		WHERE comment_id = $1
	`, commentID).Scan(
		&comment.ProjectID, &comment.UserID, &comment.Content,
		&comment.CreatedAt, &comment.EditedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, store.ErrCommentNotFound)
	}
	return comment, nil
}

// ListCommentsForProject returns a project's comments, newest first.
func (s *Store) ListCommentsForProject(ctx context.Context, projectID uuid.UUID) ([]*models.Comment, error) {
	if _, err := getProject(ctx, s.pool, projectID, false); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT comment_id, user_id, content, created_at, edited_at
		FROM comments
		WHERE project_id = $1
		ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var results []*models.Comment
	for rows.Next() {
		comment := &models.Comment{ProjectID: projectID}
		if err := rows.Scan(
			&comment.CommentID, &comment.UserID, &comment.Content,
			&comment.CreatedAt, &comment.EditedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		results = append(results, comment)
	}
	return results, rows.Err()
}

// UpdateComment replaces a comment's content and stamps the edit time.
func (s *Store) UpdateComment(ctx context.Context, commentID uuid.UUID, content string) (*models.Comment, error) {
	if content == "" {
		return nil, lifecycle.NewValidationError("content", "comment content must not be empty")
	}

	comment := &models.Comment{CommentID: commentID, Content: content}
	err := s.pool.QueryRow(ctx, `
		UPDATE comments
		SET content = $2, edited_at = NOW()
		WHERE comment_id = $1
		RETURNING project_id, user_id, created_at, edited_at
	`, commentID, content).Scan(
		&comment.ProjectID, &comment.UserID, &comment.CreatedAt, &comment.EditedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, store.ErrCommentNotFound)
	}
	return comment, nil
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE comment_id = $1`, commentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrCommentNotFound
	}
	return nil
}

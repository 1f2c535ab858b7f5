package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CreateComment posts a comment on a project.
func (s *Store) CreateComment(ctx context.Context, params store.CreateCommentParams) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[params.ProjectID]; !ok {
		return nil, store.ErrProjectNotFound
	}
	if _, ok := s.users[params.UserID]; !ok {
		return nil, store.ErrUserNotFound
	}
	if params.Content == "" {
		return nil, lifecycle.NewValidationError("content", "comment content must not be empty")
	}

	now := s.now()
	comment := &models.Comment{
		CommentID: newID(),
		ProjectID: params.ProjectID,
		UserID:    params.UserID,
		Content:   params.Content,
		CreatedAt: now,
		EditedAt:  now,
	}
	s.comments[comment.CommentID] = comment

	cp := *comment
	return &cp, nil
}

// GetComment fetches a comment by id.
func (s *Store) GetComment(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[commentID]
	if !ok {
		return nil, store.ErrCommentNotFound
	}
	cp := *comment
	return &cp, nil
}

// ListCommentsForProject returns a project's comments, newest first.
func (s *Store) ListCommentsForProject(ctx context.Context, projectID uuid.UUID) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, store.ErrProjectNotFound
	}
	var results []*models.Comment
	for _, comment := range s.comments {
		if comment.ProjectID == projectID {
			cp := *comment
			results = append(results, &cp)
		}
	}
	slices.SortFunc(results, func(a, b *models.Comment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return results, nil
}

// UpdateComment replaces a comment's content and stamps the edit time.
func (s *Store) UpdateComment(ctx context.Context, commentID uuid.UUID, content string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[commentID]
	if !ok {
		return nil, store.ErrCommentNotFound
	}
	if content == "" {
		return nil, lifecycle.NewValidationError("content", "comment content must not be empty")
	}

	comment.Content = content
	comment.EditedAt = s.now()

	cp := *comment
	return &cp, nil
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[commentID]; !ok {
		return store.ErrCommentNotFound
	}
	delete(s.comments, commentID)
	return nil
}

package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/auth"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CommentService exposes the discussion on a project. Collaborators and the
// consortium manager can read and post; owners moderate, everyone else may
// only touch their own comments.
type CommentService struct {
	store store.Store
}

// NewCommentService creates a comment service backed by the given store.
func NewCommentService(st store.Store) *CommentService {
	return &CommentService{store: st}
}

// Create posts a comment on a project.
func (s *CommentService) Create(ctx context.Context, projectID uuid.UUID, content string, userID uuid.UUID) (*models.Comment, error) {
	actor, err := s.projectActor(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(actor, auth.PermCommentsPost); err != nil {
		return nil, err
	}
	return s.store.CreateComment(ctx, store.CreateCommentParams{
		ProjectID: projectID,
		UserID:    userID,
		Content:   content,
	})
}

// List returns a project's comments, newest first.
func (s *CommentService) List(ctx context.Context, projectID, userID uuid.UUID) ([]*models.Comment, error) {
	actor, err := s.projectActor(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(actor, auth.PermCommentsPost); err != nil {
		return nil, err
	}
	return s.store.ListCommentsForProject(ctx, projectID)
}

// Update replaces a comment's content.
func (s *CommentService) Update(ctx context.Context, commentID uuid.UUID, content string, userID uuid.UUID) (*models.Comment, error) {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireModeration(ctx, comment, userID); err != nil {
		return nil, err
	}
	return s.store.UpdateComment(ctx, commentID, content)
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, commentID uuid.UUID, userID uuid.UUID) error {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if err := s.requireModeration(ctx, comment, userID); err != nil {
		return err
	}
	return s.store.DeleteComment(ctx, commentID)
}

func (s *CommentService) projectActor(ctx context.Context, projectID, userID uuid.UUID) (auth.Actor, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return auth.Actor{}, err
	}
	return resolveActor(ctx, s.store, project, userID)
}

func (s *CommentService) requireModeration(ctx context.Context, comment *models.Comment, userID uuid.UUID) error {
	actor, err := s.projectActor(ctx, comment.ProjectID, userID)
	if err != nil {
		return err
	}
	if !actor.CanModerateComment(comment.UserID) {
		return fmt.Errorf("%w: comments:moderate", auth.ErrPermissionDenied)
	}
	return nil
}

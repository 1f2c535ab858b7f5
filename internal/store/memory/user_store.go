package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CreateUser adds a user reference with a unique username.
func (s *Store) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.Username == "" {
		return nil, lifecycle.NewValidationError("username", "username is required")
	}
	for _, u := range s.users {
		if equalFold(u.Username, params.Username) {
			return nil, lifecycle.NewValidationError("username", "a user with this username already exists")
		}
	}

	user := &models.User{
		UserID:    newID(),
		Username:  params.Username,
		Email:     params.Email,
		FullName:  params.FullName,
		CreatedAt: s.now(),
	}
	s.users[user.UserID] = user

	cp := *user
	return &cp, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// GetUserByUsername fetches a user by username, case-insensitively.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if equalFold(user.Username, username) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

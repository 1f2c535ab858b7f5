package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CreateUser adds a user reference with a unique username.
func (s *Store) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	if params.Username == "" {
		return nil, lifecycle.NewValidationError("username", "username is required")
	}

	user := &models.User{UserID: newID()}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (user_id, username, email, full_name)
		VALUES ($1, $2, $3, $4)
		RETURNING username, email, full_name, created_at
	`, user.UserID, params.Username, params.Email, params.FullName).Scan(
		&user.Username, &user.Email, &user.FullName, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", mapWriteError(err))
	}
	return user, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user := &models.User{UserID: userID}
	err := s.pool.QueryRow(ctx, `
		SELECT username, email, full_name, created_at
		FROM users
		WHERE user_id = $1
	`, userID).Scan(&user.Username, &user.Email, &user.FullName, &user.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err, store.ErrUserNotFound)
	}
	return user, nil
}

// GetUserByUsername fetches a user by username, case-insensitively.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, username, email, full_name, created_at
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`, username).Scan(&user.UserID, &user.Username, &user.Email, &user.FullName, &user.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err, store.ErrUserNotFound)
	}
	return user, nil
}

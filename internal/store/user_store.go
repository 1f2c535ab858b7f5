package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/models"
)

// CreateUserParams carries the fields for a new user reference. Users are
// authenticated externally; the store only keeps the rows other entities
// point at.
type CreateUserParams struct {
	Username string
	Email    string
	FullName string
}

// UserStore persists user references.
type UserStore interface {
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

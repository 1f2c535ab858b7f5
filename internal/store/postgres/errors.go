package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/store"
)

// retryableTxError reports whether a transaction failed in a way that a
// fresh attempt could succeed, such as a serialization failure or a
// deadlock between two concurrent approvals.
func retryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	}
	return false
}

// mapUniqueViolation translates a unique constraint violation into the
// field-level validation error the caller expects, based on the
// constraint that was violated. Any other error passes through.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return lifecycle.NewValidationError("username", "a user with this username already exists")
	case strings.Contains(pgErr.ConstraintName, "consortia_name"):
		return lifecycle.NewValidationError("name", "a consortium with this name already exists")
	case strings.Contains(pgErr.ConstraintName, "resources_name"):
		return lifecycle.NewValidationError("name", "a resource with this name already exists")
	case strings.Contains(pgErr.ConstraintName, "categories_name"):
		return lifecycle.NewValidationError("name", "a category with this name already exists")
	case strings.Contains(pgErr.ConstraintName, "projects_name"):
		return lifecycle.NewValidationError("name", "a project with this name already exists")
	case strings.Contains(pgErr.ConstraintName, "services_category_name"):
		return lifecycle.NewValidationError("name", "a service with this name already exists in this category")
	case strings.Contains(pgErr.ConstraintName, "services_project_category"):
		return lifecycle.NewValidationError("category_id", "this project already has a service in this category")
	case strings.Contains(pgErr.ConstraintName, "quotas_consortium_resource"):
		return lifecycle.NewValidationError("resource_id", "a quota for this resource already exists")
	case strings.Contains(pgErr.ConstraintName, "collaborators_project_user"):
		return lifecycle.NewValidationError("user_id", "this user is already a collaborator on this project")
	case strings.Contains(pgErr.ConstraintName, "invitations_project_email"):
		return lifecycle.NewValidationError("email", "this email address already has a pending invitation")
	}
	return err
}

// mapForeignKeyViolation translates a foreign key violation into the
// not-found sentinel for the referenced entity. Constraint names follow the
// default <table>_<column>_fkey pattern.
func mapForeignKeyViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.ForeignKeyViolation {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "manager_id"),
		strings.Contains(pgErr.ConstraintName, "user_id"):
		return store.ErrUserNotFound
	case strings.Contains(pgErr.ConstraintName, "consortium_id"):
		return store.ErrConsortiumNotFound
	case strings.Contains(pgErr.ConstraintName, "resource_id"):
		return store.ErrResourceNotFound
	case strings.Contains(pgErr.ConstraintName, "category_id"):
		return store.ErrCategoryNotFound
	case strings.Contains(pgErr.ConstraintName, "project_id"):
		return store.ErrProjectNotFound
	case strings.Contains(pgErr.ConstraintName, "service_id"):
		return store.ErrServiceNotFound
	}
	return err
}

// mapWriteError applies both the unique and foreign key mappings.
func mapWriteError(err error) error {
	return mapForeignKeyViolation(mapUniqueViolation(err))
}

// mapNotFound converts pgx.ErrNoRows into the given sentinel so callers
// see the same errors regardless of the backing store.
func mapNotFound(err error, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

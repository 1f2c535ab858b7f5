// Package store defines the persistence interfaces for the allocation core.
// Every multi-step check-then-mutate sequence (quota approval, bulk project
// transitions, the sole-owner guard) is a single store operation so that
// implementations can make it atomic: the memory store holds its write lock
// for the whole operation, the postgres store runs a transaction with row
// locks. State-transition operations return the domain event classifying the
// transition, for the notification consumer to dispatch downstream.
package store

import (
	"errors"
)

// Sentinel errors for common conditions.
var (
	ErrConsortiumNotFound   = errors.New("consortium not found")
	ErrResourceNotFound     = errors.New("resource not found")
	ErrChunkNotFound        = errors.New("resource chunk not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrQuotaNotFound        = errors.New("quota not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrServiceNotFound      = errors.New("service not found")
	ErrRequirementNotFound  = errors.New("requirement not found")
	ErrCollaboratorNotFound = errors.New("collaborator not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrUserNotFound         = errors.New("user not found")

	// ErrInvitationInvalid covers an unknown or expired invitation code. The
	// two cases are deliberately indistinguishable to the caller.
	ErrInvitationInvalid = errors.New("invitation code is not valid")
)

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, sentinel := range []error{
		ErrConsortiumNotFound, ErrResourceNotFound, ErrChunkNotFound,
		ErrCategoryNotFound, ErrQuotaNotFound, ErrProjectNotFound,
		ErrServiceNotFound, ErrRequirementNotFound, ErrCollaboratorNotFound,
		ErrInvitationNotFound, ErrCommentNotFound, ErrUserNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Store aggregates every persistence interface of the core. Both backends
// implement the whole set.
type Store interface {
	ConsortiumStore
	ProjectStore
	ServiceStore
	RequirementStore
	CollaboratorStore
	CommentStore
	UserStore
}

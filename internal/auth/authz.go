// Package auth decides which project actions an actor may invoke. The
// predicates are computed per request from the actor's collaborator row and
// the project's consortium; nothing here is persisted.
package auth

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/models"
)

// ErrPermissionDenied is returned when an actor may not invoke an action.
var ErrPermissionDenied = errors.New("permission denied")

// Permission represents an authorized action on a project.
type Permission string

const (
	PermProjectView                  Permission = "project:view"
	PermProjectSubmitForReview       Permission = "project:submit_for_review"
	PermProjectRequestChanges        Permission = "project:request_changes"
	PermProjectSubmitForProvisioning Permission = "project:submit_for_provisioning"
	PermServicesManage               Permission = "services:manage"
	PermRequirementsManage           Permission = "requirements:manage"
	PermRequirementsReview           Permission = "requirements:review"
	PermCollaboratorsManage          Permission = "collaborators:manage"
	PermInvitationsManage            Permission = "invitations:manage"
	PermCommentsPost                 Permission = "comments:post"
)

// collaboratorPermissions are granted to every project collaborator.
var collaboratorPermissions = []Permission{
	PermProjectView,
	PermServicesManage,
	PermRequirementsManage,
	PermCommentsPost,
}

// ownerPermissions are granted to OWNER collaborators on top of the
// collaborator set.
var ownerPermissions = []Permission{
	PermProjectSubmitForReview,
	PermCollaboratorsManage,
	PermInvitationsManage,
}

// managerPermissions are granted to the manager of the project's consortium.
var managerPermissions = []Permission{
	PermProjectView,
	PermProjectRequestChanges,
	PermProjectSubmitForProvisioning,
	PermRequirementsReview,
	PermCommentsPost,
}

// Actor is an authenticated user's relationship to one project: their
// collaborator role, if any, and whether they manage the project's
// consortium. Both can hold at once.
type Actor struct {
	UserID uuid.UUID
	// Role is the actor's collaborator role on the project, or zero if they
	// are not a collaborator.
	Role models.Role
	// ConsortiumManager is set when the actor manages the project's
	// consortium.
	ConsortiumManager bool
}

// IsCollaborator reports whether the actor collaborates on the project.
func (a Actor) IsCollaborator() bool {
	return a.Role.Valid()
}

// Can reports whether the actor holds the given permission.
func (a Actor) Can(perm Permission) bool {
	if a.IsCollaborator() && slices.Contains(collaboratorPermissions, perm) {
		return true
	}
	if a.Role == models.RoleOwner && slices.Contains(ownerPermissions, perm) {
		return true
	}
	if a.ConsortiumManager && slices.Contains(managerPermissions, perm) {
		return true
	}
	return false
}

// CanModerateComment reports whether the actor may update or delete a
// comment written by author. Project owners moderate every comment; anyone
// else may only touch their own, and only while still a collaborator or the
// consortium manager.
func (a Actor) CanModerateComment(author uuid.UUID) bool {
	if a.Role == models.RoleOwner {
		return true
	}
	if a.UserID != author {
		return false
	}
	return a.IsCollaborator() || a.ConsortiumManager
}

// Require returns ErrPermissionDenied unless the actor holds the permission.
func Require(actor Actor, perm Permission) error {
	if !actor.Can(perm) {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, perm)
	}
	return nil
}

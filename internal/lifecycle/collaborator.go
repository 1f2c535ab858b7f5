package lifecycle

import (
	"github.com/jasminhpc/manage/internal/models"
)

// CheckRoleChange validates changing a collaborator's role. Downgrading the
// project's only owner would leave it without one, which is forbidden.
// otherOwners is the number of OWNER collaborators on the project excluding
// the one being changed, counted in the same transaction as the write.
func CheckRoleChange(collab *models.Collaborator, newRole models.Role, otherOwners int64) error {
	if !newRole.Valid() {
		return NewValidationError("role", "unknown role")
	}
	if collab.Role == models.RoleOwner && newRole != models.RoleOwner && otherOwners == 0 {
		return NewConflict(CodeSoleOwner, "project must have an owner")
	}
	return nil
}

// CheckRemoval validates removing a collaborator from a project, with the
// same sole-owner guard as a role downgrade.
func CheckRemoval(collab *models.Collaborator, otherOwners int64) error {
	if collab.Role == models.RoleOwner && otherOwners == 0 {
		return NewConflict(CodeSoleOwner, "project must have an owner")
	}
	return nil
}

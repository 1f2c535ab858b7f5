package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/models"
)

// RequirementEdit carries the fields of a requirement a collaborator may
// change. Nil fields are left untouched.
type RequirementEdit struct {
	ResourceID *uuid.UUID
	Amount     *int64
	StartDate  *time.Time
	EndDate    *time.Time
}

// Empty reports whether the edit changes nothing.
func (e RequirementEdit) Empty() bool {
	return e.ResourceID == nil && e.Amount == nil && e.StartDate == nil && e.EndDate == nil
}

// CheckEditable returns a conflict unless the requirement may be edited or
// deleted: the project must be editable and the requirement must not have
// been approved yet.
func CheckEditable(req *models.Requirement, project *models.Project) error {
	if project.Status != models.ProjectEditable {
		return NewConflict(CodeInvalidStatus,
			"project with status %s is not editable", project.Status)
	}
	if req.Status >= models.RequirementApproved {
		return NewConflict(CodeInvalidStatus,
			"requirement with status %s cannot be modified", req.Status)
	}
	return nil
}

// ApplyEdit validates an edit against the current requirement and returns the
// updated copy. Editing a rejected requirement resets it to REQUESTED; that
// is how collaborators address review feedback, so the reset is part of the
// same write. The caller is responsible for CheckEditable and for validating
// a resource change against the service's category.
func ApplyEdit(req models.Requirement, edit RequirementEdit, now time.Time) (models.Requirement, models.EventType, error) {
	if edit.ResourceID != nil {
		req.ResourceID = *edit.ResourceID
	}
	if edit.Amount != nil {
		if *edit.Amount <= 0 {
			return req, models.EventNone, NewValidationError("amount", "amount must be positive")
		}
		req.Amount = *edit.Amount
	}
	if edit.StartDate != nil {
		start := dateOnly(*edit.StartDate)
		// A start date that is already in the past is tolerated as long as it
		// is not being changed; historical requirements have already started.
		if !start.Equal(dateOnly(req.StartDate)) && start.Before(dateOnly(now)) {
			return req, models.EventNone, NewValidationError("start_date", "start date cannot be in the past")
		}
		req.StartDate = start
	}
	if edit.EndDate != nil {
		req.EndDate = dateOnly(*edit.EndDate)
	}
	if !req.EndDate.After(req.StartDate) {
		return req, models.EventNone, NewValidationError("end_date", "end date must be after start date")
	}

	event := models.EventNone
	if !edit.Empty() && req.Status == models.RequirementRejected {
		req.Status = models.RequirementRequested
		event = models.EventRequirementRequested
	}
	return req, event, nil
}

// ValidateNew validates the fields of a requirement being created. New
// requirements always start in REQUESTED.
func ValidateNew(amount int64, startDate, endDate, now time.Time) error {
	if amount <= 0 {
		return NewValidationError("amount", "amount must be positive")
	}
	if dateOnly(startDate).Before(dateOnly(now)) {
		return NewValidationError("start_date", "start date cannot be in the past")
	}
	if !dateOnly(endDate).After(dateOnly(startDate)) {
		return NewValidationError("end_date", "end date must be after start date")
	}
	return nil
}

// ValidateResource checks that a requirement's resource is allowed for the
// service's category. On update the requirement's previous resource is also
// allowed, so existing rows keep working if the category's resource set
// changes under them.
func ValidateResource(category *models.Category, resourceID uuid.UUID, previous *uuid.UUID) error {
	if category.HasResource(resourceID) {
		return nil
	}
	if previous != nil && resourceID == *previous {
		return nil
	}
	return NewValidationError("resource", "resource is not valid for the selected service")
}

// CanApprove checks the approval gates for a requirement. allocated is the
// total amount of approved-or-later requirements for the same consortium and
// resource, excluding this requirement; quota is the consortium's ceiling for
// the resource (zero when no quota exists). Re-approving an approved
// requirement is allowed and still re-validates the quota.
func CanApprove(req *models.Requirement, project *models.Project, quota, allocated int64) error {
	if project.Status != models.ProjectUnderReview {
		return NewConflict(CodeInvalidStatus,
			"project with status %s is not under review", project.Status)
	}
	if req.Status > models.RequirementApproved {
		return NewConflict(CodeInvalidStatus,
			"requirement with status %s cannot be approved", req.Status)
	}
	if allocated+req.Amount > quota {
		return NewConflict(CodeQuotaExceeded,
			"approving %d would take the consortium total to %d, exceeding the quota of %d",
			req.Amount, allocated+req.Amount, quota)
	}
	return nil
}

// CanReject checks the rejection gates for a requirement. Rejecting an
// already rejected requirement is a no-op that succeeds.
func CanReject(req *models.Requirement, project *models.Project) error {
	if project.Status != models.ProjectUnderReview {
		return NewConflict(CodeInvalidStatus,
			"project with status %s is not under review", project.Status)
	}
	if req.Status > models.RequirementApproved {
		return NewConflict(CodeInvalidStatus,
			"requirement with status %s cannot be rejected", req.Status)
	}
	return nil
}

// CanProvision checks the transition from AWAITING_PROVISIONING to
// PROVISIONED, triggered by the external provisioning system.
func CanProvision(req *models.Requirement) error {
	if req.Status == models.RequirementProvisioned {
		return nil
	}
	if req.Status != models.RequirementAwaitingProvisioning {
		return NewConflict(CodeInvalidStatus,
			"requirement with status %s is not awaiting provisioning", req.Status)
	}
	return nil
}

// CanDecommission checks the administrative transition from PROVISIONED to
// the terminal DECOMMISSIONED status.
func CanDecommission(req *models.Requirement) error {
	if req.Status == models.RequirementDecommissioned {
		return nil
	}
	if req.Status != models.RequirementProvisioned {
		return NewConflict(CodeInvalidStatus,
			"requirement with status %s cannot be decommissioned", req.Status)
	}
	return nil
}

// dateOnly truncates a timestamp to its UTC date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package lifecycle

import (
	"github.com/jasminhpc/manage/internal/models"
)

// CheckSubmitForReview validates the EDITABLE to UNDER_REVIEW transition.
// The project must have something to review, and any rejected requirements
// must first be edited back to REQUESTED or deleted.
func CheckSubmitForReview(project *models.Project, counts models.RequirementCounts) error {
	if project.Status != models.ProjectEditable {
		return NewConflict(CodeInvalidStatus,
			"cannot submit project with status %s for review", project.Status)
	}
	if counts.Rejected > 0 {
		return NewConflict(CodeRejectedRequirements,
			"cannot submit project with rejected requirements")
	}
	if counts.Requested < 1 {
		return NewConflict(CodeNoRequestedRequirements,
			"project has no requested requirements to review")
	}
	return nil
}

// CheckRequestChanges validates the reviewer sending an UNDER_REVIEW project
// back to EDITABLE for rework. Every requirement must have been decided, and
// at least one must have been rejected, otherwise there is nothing to send
// back for.
func CheckRequestChanges(project *models.Project, counts models.RequirementCounts) error {
	if project.Status != models.ProjectUnderReview {
		return NewConflict(CodeInvalidStatus,
			"cannot request changes for project with status %s", project.Status)
	}
	if counts.Requested > 0 {
		return NewConflict(CodeUnresolvedRequirements,
			"outstanding requirements must be resolved before requesting changes")
	}
	if counts.Rejected < 1 {
		return NewConflict(CodeNoChangesRequired,
			"all requirements have been approved - submit for provisioning instead")
	}
	return nil
}

// CheckSubmitForProvisioning validates the reviewer finishing a review with
// everything approved. The project returns to EDITABLE and, as part of the
// same write, every APPROVED requirement advances to AWAITING_PROVISIONING.
func CheckSubmitForProvisioning(project *models.Project, counts models.RequirementCounts) error {
	if project.Status != models.ProjectUnderReview {
		return NewConflict(CodeInvalidStatus,
			"cannot submit project with status %s for provisioning", project.Status)
	}
	if counts.Requested > 0 || counts.Rejected > 0 {
		return NewConflict(CodeUnapprovedRequirements,
			"all requirements must be approved before submitting for provisioning")
	}
	return nil
}

// CheckComplete validates the administrative transition to COMPLETED. A
// project cannot be closed while any requirement is still live.
func CheckComplete(project *models.Project, counts models.RequirementCounts) error {
	if project.Status == models.ProjectCompleted {
		return nil
	}
	if live := counts.Total() - counts.Decommissioned; live > 0 {
		return NewConflict(CodeIncompleteRequirements,
			"%d requirements must be decommissioned before the project can be completed", live)
	}
	return nil
}

// ClassifyProjectEvent derives the event for a project entering newStatus,
// from the post-transition requirement counts. Becoming EDITABLE with
// rejected requirements is a request for changes; with requirements awaiting
// provisioning it is a submission for provisioning; otherwise no event.
func ClassifyProjectEvent(newStatus models.ProjectStatus, counts models.RequirementCounts) models.EventType {
	switch newStatus {
	case models.ProjectEditable:
		if counts.Rejected > 0 {
			return models.EventProjectChangesRequested
		}
		if counts.AwaitingProvisioning > 0 {
			return models.EventProjectSubmittedForProvisioning
		}
		return models.EventNone
	case models.ProjectUnderReview:
		if counts.Requested > 0 {
			return models.EventProjectSubmittedForReview
		}
		return models.EventNone
	case models.ProjectCompleted:
		return models.EventProjectCompleted
	}
	return models.EventNone
}

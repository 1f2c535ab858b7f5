package models

// EventType classifies a state transition for downstream consumers such as
// the notification service. Transition operations return the event alongside
// the updated entity; nothing in this core dispatches them.
type EventType string

const (
	// Project events
	EventProjectSubmittedForReview       EventType = "project.submitted_for_review"
	EventProjectChangesRequested         EventType = "project.changes_requested"
	EventProjectSubmittedForProvisioning EventType = "project.submitted_for_provisioning"
	EventProjectCompleted                EventType = "project.completed"

	// Requirement events, named after the status the requirement entered
	EventRequirementRequested            EventType = "requirement.requested"
	EventRequirementRejected             EventType = "requirement.rejected"
	EventRequirementApproved             EventType = "requirement.approved"
	EventRequirementAwaitingProvisioning EventType = "requirement.awaiting_provisioning"
	EventRequirementProvisioned          EventType = "requirement.provisioned"
	EventRequirementDecommissioned       EventType = "requirement.decommissioned"

	// EventNone marks a transition with no special classification.
	EventNone EventType = ""
)

// RequirementEvent returns the event for a requirement entering the given
// status.
func RequirementEvent(status RequirementStatus) EventType {
	switch status {
	case RequirementRequested:
		return EventRequirementRequested
	case RequirementRejected:
		return EventRequirementRejected
	case RequirementApproved:
		return EventRequirementApproved
	case RequirementAwaitingProvisioning:
		return EventRequirementAwaitingProvisioning
	case RequirementProvisioned:
		return EventRequirementProvisioned
	case RequirementDecommissioned:
		return EventRequirementDecommissioned
	}
	return EventNone
}

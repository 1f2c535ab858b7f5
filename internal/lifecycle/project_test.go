package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jasminhpc/manage/internal/models"
)

func TestCheckSubmitForReview(t *testing.T) {
	t.Run("allows editable project with requested requirements", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectEditable}
		err := CheckSubmitForReview(project, models.RequirementCounts{Requested: 2})
		require.NoError(t, err)
	})

	t.Run("rejects project that is not editable", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectUnderReview}
		err := CheckSubmitForReview(project, models.RequirementCounts{Requested: 1})
		require.Equal(t, CodeInvalidStatus, ConflictCode(err))
	})

	t.Run("rejects project with no requested requirements", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectEditable}
		err := CheckSubmitForReview(project, models.RequirementCounts{Approved: 3})
		require.Equal(t, CodeNoRequestedRequirements, ConflictCode(err))
	})

	t.Run("rejects project with rejected requirements", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectEditable}
		err := CheckSubmitForReview(project, models.RequirementCounts{Requested: 1, Rejected: 1})
		require.Equal(t, CodeRejectedRequirements, ConflictCode(err))
	})
}

func TestCheckRequestChanges(t *testing.T) {
	t.Run("allows review with rejected requirements", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectUnderReview}
		err := CheckRequestChanges(project, models.RequirementCounts{Rejected: 1, Approved: 2})
		require.NoError(t, err)
	})

	t.Run("rejects project that is not under review", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectEditable}
		err := CheckRequestChanges(project, models.RequirementCounts{Rejected: 1})
		require.Equal(t, CodeInvalidStatus, ConflictCode(err))
	})

	t.Run("rejects review with undecided requirements", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectUnderReview}
		err := CheckRequestChanges(project, models.RequirementCounts{Requested: 1, Rejected: 1})
		require.Equal(t, CodeUnresolvedRequirements, ConflictCode(err))
	})

	t.Run("rejects review where everything was approved", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectUnderReview}
		err := CheckRequestChanges(project, models.RequirementCounts{Approved: 2})
		require.Equal(t, CodeNoChangesRequired, ConflictCode(err))
	})
}

func TestCheckSubmitForProvisioning(t *testing.T) {
	t.Run("allows review where everything was approved", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectUnderReview}
		err := CheckSubmitForProvisioning(project, models.RequirementCounts{Approved: 2})
		require.NoError(t, err)
	})

	t.Run("rejects project that is not under review", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectEditable}
		err := CheckSubmitForProvisioning(project, models.RequirementCounts{Approved: 2})
		require.Equal(t, CodeInvalidStatus, ConflictCode(err))
	})

	t.Run("rejects review with requested requirements", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectUnderReview}
		err := CheckSubmitForProvisioning(project, models.RequirementCounts{Requested: 1, Approved: 1})
		require.Equal(t, CodeUnapprovedRequirements, ConflictCode(err))
	})

	t.Run("rejects review with rejected requirements", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectUnderReview}
		err := CheckSubmitForProvisioning(project, models.RequirementCounts{Rejected: 1, Approved: 1})
		require.Equal(t, CodeUnapprovedRequirements, ConflictCode(err))
	})
}

func TestCheckComplete(t *testing.T) {
	t.Run("allows project with every requirement decommissioned", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectEditable}
		err := CheckComplete(project, models.RequirementCounts{Decommissioned: 3})
		require.NoError(t, err)
	})

	t.Run("allows project with no requirements at all", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectEditable}
		err := CheckComplete(project, models.RequirementCounts{})
		require.NoError(t, err)
	})

	t.Run("rejects project with live requirements", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectEditable}
		err := CheckComplete(project, models.RequirementCounts{Provisioned: 1, Decommissioned: 2})
		require.Equal(t, CodeIncompleteRequirements, ConflictCode(err))
	})

	t.Run("already completed project is a no-op", func(t *testing.T) {
		project := &models.Project{Status: models.ProjectCompleted}
		err := CheckComplete(project, models.RequirementCounts{Provisioned: 1})
		require.NoError(t, err)
	})
}

func TestClassifyProjectEvent(t *testing.T) {
	t.Run("under review with requested requirements is a review submission", func(t *testing.T) {
		event := ClassifyProjectEvent(models.ProjectUnderReview, models.RequirementCounts{Requested: 1})
		require.Equal(t, models.EventProjectSubmittedForReview, event)
	})

	t.Run("editable with rejected requirements is a change request", func(t *testing.T) {
		event := ClassifyProjectEvent(models.ProjectEditable, models.RequirementCounts{Rejected: 1, Approved: 2})
		require.Equal(t, models.EventProjectChangesRequested, event)
	})

	t.Run("editable with awaiting requirements is a provisioning submission", func(t *testing.T) {
		event := ClassifyProjectEvent(models.ProjectEditable, models.RequirementCounts{AwaitingProvisioning: 2})
		require.Equal(t, models.EventProjectSubmittedForProvisioning, event)
	})

	t.Run("completed is always the completion event", func(t *testing.T) {
		event := ClassifyProjectEvent(models.ProjectCompleted, models.RequirementCounts{Decommissioned: 3})
		require.Equal(t, models.EventProjectCompleted, event)
	})

	t.Run("editable with nothing notable is no event", func(t *testing.T) {
		event := ClassifyProjectEvent(models.ProjectEditable, models.RequirementCounts{})
		require.Equal(t, models.EventNone, event)
	})
}

package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jasminhpc/manage/internal/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testRequirement(status models.RequirementStatus) models.Requirement {
	return models.Requirement{
		RequirementID: uuid.Must(uuid.NewV7()),
		ResourceID:    uuid.Must(uuid.NewV7()),
		Status:        status,
		Amount:        100,
		StartDate:     testNow.AddDate(0, 0, 7),
		EndDate:       testNow.AddDate(0, 6, 0),
	}
}

func ptr[T any](v T) *T { return &v }

func TestCheckEditable(t *testing.T) {
	t.Run("requested requirement in editable project", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		err := CheckEditable(&req, &models.Project{Status: models.ProjectEditable})
		require.NoError(t, err)
	})

	t.Run("project under review", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		err := CheckEditable(&req, &models.Project{Status: models.ProjectUnderReview})
		require.Equal(t, CodeInvalidStatus, ConflictCode(err))
	})

	t.Run("approved requirement", func(t *testing.T) {
		req := testRequirement(models.RequirementApproved)
		err := CheckEditable(&req, &models.Project{Status: models.ProjectEditable})
		require.Equal(t, CodeInvalidStatus, ConflictCode(err))
	})
}

func TestApplyEdit(t *testing.T) {
	t.Run("amount change keeps status", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		updated, event, err := ApplyEdit(req, RequirementEdit{Amount: ptr(int64(250))}, testNow)
		require.NoError(t, err)
		require.Equal(t, int64(250), updated.Amount)
		require.Equal(t, models.RequirementRequested, updated.Status)
		require.Equal(t, models.EventNone, event)
	})

	t.Run("editing a rejected requirement resets it to requested", func(t *testing.T) {
		req := testRequirement(models.RequirementRejected)
		updated, event, err := ApplyEdit(req, RequirementEdit{Amount: ptr(int64(50))}, testNow)
		require.NoError(t, err)
		require.Equal(t, models.RequirementRequested, updated.Status)
		require.Equal(t, models.EventRequirementRequested, event)
	})

	t.Run("empty edit leaves a rejected requirement rejected", func(t *testing.T) {
		req := testRequirement(models.RequirementRejected)
		updated, event, err := ApplyEdit(req, RequirementEdit{}, testNow)
		require.NoError(t, err)
		require.Equal(t, models.RequirementRejected, updated.Status)
		require.Equal(t, models.EventNone, event)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		_, _, err := ApplyEdit(req, RequirementEdit{Amount: ptr(int64(0))}, testNow)
		require.True(t, IsValidation(err))
	})

	t.Run("changing start date into the past", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		past := testNow.AddDate(0, 0, -1)
		_, _, err := ApplyEdit(req, RequirementEdit{StartDate: &past}, testNow)
		require.True(t, IsValidation(err))
	})

	t.Run("unchanged past start date is tolerated", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		req.StartDate = testNow.AddDate(0, -1, 0)
		same := req.StartDate
		updated, _, err := ApplyEdit(req, RequirementEdit{StartDate: &same, Amount: ptr(int64(5))}, testNow)
		require.NoError(t, err)
		require.Equal(t, int64(5), updated.Amount)
	})

	t.Run("end date before start date", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		end := req.StartDate.AddDate(0, 0, -1)
		_, _, err := ApplyEdit(req, RequirementEdit{EndDate: &end}, testNow)
		require.True(t, IsValidation(err))
	})
}

func TestValidateNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := ValidateNew(100, testNow.AddDate(0, 0, 1), testNow.AddDate(0, 1, 0), testNow)
		require.NoError(t, err)
	})

	t.Run("start today is valid", func(t *testing.T) {
		err := ValidateNew(100, testNow, testNow.AddDate(0, 1, 0), testNow)
		require.NoError(t, err)
	})

	t.Run("start in the past", func(t *testing.T) {
		err := ValidateNew(100, testNow.AddDate(0, 0, -1), testNow.AddDate(0, 1, 0), testNow)
		require.True(t, IsValidation(err))
	})

	t.Run("end not after start", func(t *testing.T) {
		start := testNow.AddDate(0, 0, 1)
		err := ValidateNew(100, start, start, testNow)
		require.True(t, IsValidation(err))
	})

	t.Run("zero amount", func(t *testing.T) {
		err := ValidateNew(0, testNow.AddDate(0, 0, 1), testNow.AddDate(0, 1, 0), testNow)
		require.True(t, IsValidation(err))
	})
}

func TestValidateResource(t *testing.T) {
	allowed := uuid.Must(uuid.NewV7())
	other := uuid.Must(uuid.NewV7())
	category := &models.Category{ResourceIDs: []uuid.UUID{allowed}}

	t.Run("resource in category", func(t *testing.T) {
		require.NoError(t, ValidateResource(category, allowed, nil))
	})

	t.Run("resource not in category", func(t *testing.T) {
		require.True(t, IsValidation(ValidateResource(category, other, nil)))
	})

	t.Run("previous resource stays valid after category change", func(t *testing.T) {
		require.NoError(t, ValidateResource(category, other, &other))
	})
}

func TestCanApprove(t *testing.T) {
	underReview := &models.Project{Status: models.ProjectUnderReview}

	t.Run("within quota", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		require.NoError(t, CanApprove(&req, underReview, 1000, 900))
	})

	t.Run("exactly filling the quota", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		req.Amount = 100
		require.NoError(t, CanApprove(&req, underReview, 1000, 900))
	})

	t.Run("exceeding the quota", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		req.Amount = 101
		err := CanApprove(&req, underReview, 1000, 900)
		require.Equal(t, CodeQuotaExceeded, ConflictCode(err))
	})

	t.Run("missing quota means a ceiling of zero", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		err := CanApprove(&req, underReview, 0, 0)
		require.Equal(t, CodeQuotaExceeded, ConflictCode(err))
	})

	t.Run("project not under review", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		err := CanApprove(&req, &models.Project{Status: models.ProjectEditable}, 1000, 0)
		require.Equal(t, CodeInvalidStatus, ConflictCode(err))
	})

	t.Run("re-approving still checks the quota", func(t *testing.T) {
		req := testRequirement(models.RequirementApproved)
		require.NoError(t, CanApprove(&req, underReview, 1000, 0))

		err := CanApprove(&req, underReview, 50, 0)
		require.Equal(t, CodeQuotaExceeded, ConflictCode(err))
	})

	t.Run("provisioned requirement cannot be approved", func(t *testing.T) {
		req := testRequirement(models.RequirementProvisioned)
		err := CanApprove(&req, underReview, 1000, 0)
		require.Equal(t, CodeInvalidStatus, ConflictCode(err))
	})
}

func TestCanReject(t *testing.T) {
	underReview := &models.Project{Status: models.ProjectUnderReview}

	t.Run("requested requirement", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		require.NoError(t, CanReject(&req, underReview))
	})

	t.Run("already rejected is idempotent", func(t *testing.T) {
		req := testRequirement(models.RequirementRejected)
		require.NoError(t, CanReject(&req, underReview))
	})

	t.Run("awaiting provisioning cannot be rejected", func(t *testing.T) {
		req := testRequirement(models.RequirementAwaitingProvisioning)
		err := CanReject(&req, underReview)
		require.Equal(t, CodeInvalidStatus, ConflictCode(err))
	})
}

func TestProvisionAndDecommission(t *testing.T) {
	t.Run("awaiting provisioning can be provisioned", func(t *testing.T) {
		req := testRequirement(models.RequirementAwaitingProvisioning)
		require.NoError(t, CanProvision(&req))
	})

	t.Run("provisioning is idempotent", func(t *testing.T) {
		req := testRequirement(models.RequirementProvisioned)
		require.NoError(t, CanProvision(&req))
	})

	t.Run("approved cannot be provisioned directly", func(t *testing.T) {
		req := testRequirement(models.RequirementApproved)
		require.Equal(t, CodeInvalidStatus, ConflictCode(CanProvision(&req)))
	})

	t.Run("provisioned can be decommissioned", func(t *testing.T) {
		req := testRequirement(models.RequirementProvisioned)
		require.NoError(t, CanDecommission(&req))
	})

	t.Run("decommissioning is idempotent", func(t *testing.T) {
		req := testRequirement(models.RequirementDecommissioned)
		require.NoError(t, CanDecommission(&req))
	})

	t.Run("requested cannot be decommissioned", func(t *testing.T) {
		req := testRequirement(models.RequirementRequested)
		require.Equal(t, CodeInvalidStatus, ConflictCode(CanDecommission(&req)))
	})
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fixture wires up the administrative data most tests need: a consortium
// with a manager, one resource with a quota of 1000, a category allowing
// that resource, and a project with one service owned by owner.
type fixture struct {
	st         *Store
	owner      *models.User
	manager    *models.User
	consortium *models.Consortium
	resource   *models.Resource
	category   *models.Category
	project    *models.Project
	service    *models.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st := NewStore()
	st.SetClock(func() time.Time { return testNow })

	manager, err := st.CreateUser(ctx, store.CreateUserParams{Username: "manager", Email: "manager@example.org"})
	require.NoError(t, err)
	owner, err := st.CreateUser(ctx, store.CreateUserParams{Username: "owner", Email: "owner@example.org", FullName: "Project Owner"})
	require.NoError(t, err)

	consortium, err := st.CreateConsortium(ctx, store.CreateConsortiumParams{
		Name:      "atmos",
		ManagerID: manager.UserID,
	})
	require.NoError(t, err)

	resource, err := st.CreateResource(ctx, store.CreateResourceParams{Name: "disk", Units: "GB"})
	require.NoError(t, err)

	_, err = st.SetQuota(ctx, store.SetQuotaParams{
		ConsortiumID: consortium.ConsortiumID,
		ResourceID:   resource.ResourceID,
		Amount:       1000,
	})
	require.NoError(t, err)

	category, err := st.CreateCategory(ctx, store.CreateCategoryParams{
		Name:        "group-workspace",
		ResourceIDs: []uuid.UUID{resource.ResourceID},
	})
	require.NoError(t, err)

	project, err := st.CreateProject(ctx, store.CreateProjectParams{
		Name:         "cloud-modelling",
		ConsortiumID: consortium.ConsortiumID,
		OwnerID:      owner.UserID,
	})
	require.NoError(t, err)

	service, err := st.CreateService(ctx, store.CreateServiceParams{
		ProjectID:  project.ProjectID,
		CategoryID: category.CategoryID,
		Name:       "cloud-ws",
	})
	require.NoError(t, err)

	return &fixture{
		st:         st,
		owner:      owner,
		manager:    manager,
		consortium: consortium,
		resource:   resource,
		category:   category,
		project:    project,
		service:    service,
	}
}

// createRequirement adds a REQUESTED requirement for the fixture service.
func (f *fixture) createRequirement(t *testing.T, amount int64) *models.Requirement {
	t.Helper()
	req, err := f.st.CreateRequirement(context.Background(), store.CreateRequirementParams{
		ServiceID:  f.service.ServiceID,
		ResourceID: f.resource.ResourceID,
		Amount:     amount,
		StartDate:  testNow.AddDate(0, 0, 7),
		EndDate:    testNow.AddDate(0, 6, 0),
	})
	require.NoError(t, err)
	return req
}

// reload refreshes the fixture's view of the project, picking up version
// bumps from transitions.
func (f *fixture) reload(t *testing.T) {
	t.Helper()
	project, err := f.st.GetProject(context.Background(), f.project.ProjectID)
	require.NoError(t, err)
	f.project = project
}

// submitForReview drives the project into UNDER_REVIEW.
func (f *fixture) submitForReview(t *testing.T) {
	t.Helper()
	f.reload(t)
	project, _, err := f.st.SubmitForReview(context.Background(), f.project.ProjectID, f.project.Version)
	require.NoError(t, err)
	f.project = project
}

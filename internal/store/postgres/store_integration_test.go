//go:build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*Store, func()) {
	// Start postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	st, err := NewStore(ctx, &Config{
		ConnString:  connString,
		AutoMigrate: true,
	})
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = container.Terminate(ctx)
	}

	return st, cleanup
}

// seed creates the administrative rows a lifecycle walk needs: manager and
// owner users, a consortium with a 1000 GB disk quota, a category allowing
// the resource, a project and one service.
type seed struct {
	owner      *models.User
	manager    *models.User
	consortium *models.Consortium
	resource   *models.Resource
	category   *models.Category
	project    *models.Project
	service    *models.Service
}

func seedStore(t *testing.T, ctx context.Context, st *Store, suffix string) *seed {
	t.Helper()

	manager, err := st.CreateUser(ctx, store.CreateUserParams{Username: "manager-" + suffix})
	require.NoError(t, err)
	owner, err := st.CreateUser(ctx, store.CreateUserParams{Username: "owner-" + suffix, Email: "owner-" + suffix + "@example.org"})
	require.NoError(t, err)

	consortium, err := st.CreateConsortium(ctx, store.CreateConsortiumParams{
		Name: "consortium-" + suffix, ManagerID: manager.UserID,
	})
	require.NoError(t, err)
	resource, err := st.CreateResource(ctx, store.CreateResourceParams{Name: "disk-" + suffix, Units: "GB"})
	require.NoError(t, err)
	_, err = st.SetQuota(ctx, store.SetQuotaParams{
		ConsortiumID: consortium.ConsortiumID,
		ResourceID:   resource.ResourceID,
		Amount:       1000,
	})
	require.NoError(t, err)
	category, err := st.CreateCategory(ctx, store.CreateCategoryParams{
		Name: "category-" + suffix, ResourceIDs: []uuid.UUID{resource.ResourceID},
	})
	require.NoError(t, err)

	project, err := st.CreateProject(ctx, store.CreateProjectParams{
		Name:         "project-" + suffix,
		ConsortiumID: consortium.ConsortiumID,
		OwnerID:      owner.UserID,
	})
	require.NoError(t, err)
	service, err := st.CreateService(ctx, store.CreateServiceParams{
		ProjectID:  project.ProjectID,
		CategoryID: category.CategoryID,
		Name:       "svc-" + suffix,
	})
	require.NoError(t, err)

	return &seed{
		owner: owner, manager: manager, consortium: consortium,
		resource: resource, category: category, project: project, service: service,
	}
}

func (s *seed) createRequirement(t *testing.T, ctx context.Context, st *Store, amount int64) *models.Requirement {
	t.Helper()
	req, err := st.CreateRequirement(ctx, store.CreateRequirementParams{
		ServiceID:  s.service.ServiceID,
		ResourceID: s.resource.ResourceID,
		Amount:     amount,
		StartDate:  time.Now().AddDate(0, 0, 7),
		EndDate:    time.Now().AddDate(0, 6, 0),
	})
	require.NoError(t, err)
	return req
}

func TestIntegration_ReviewCycle(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	s := seedStore(t, ctx, st, "cycle")
	req1 := s.createRequirement(t, ctx, st, 300)
	req2 := s.createRequirement(t, ctx, st, 200)

	project, event, err := st.SubmitForReview(ctx, s.project.ProjectID, s.project.Version)
	require.NoError(t, err)
	require.Equal(t, models.ProjectUnderReview, project.Status)
	require.Equal(t, models.EventProjectSubmittedForReview, event)

	// Reject one, approve the other, send back for changes.
	rejected, event, err := st.RejectRequirement(ctx, req1.RequirementID, req1.Version)
	require.NoError(t, err)
	require.Equal(t, models.EventRequirementRejected, event)
	_, _, err = st.ApproveRequirement(ctx, req2.RequirementID, req2.Version)
	require.NoError(t, err)

	project, event, err = st.RequestChanges(ctx, project.ProjectID, project.Version)
	require.NoError(t, err)
	require.Equal(t, models.ProjectEditable, project.Status)
	require.Equal(t, models.EventProjectChangesRequested, event)

	// Editing the rejected requirement resets it to REQUESTED.
	amount := int64(100)
	updated, event, err := st.UpdateRequirement(ctx, rejected.RequirementID, rejected.Version,
		lifecycle.RequirementEdit{Amount: &amount})
	require.NoError(t, err)
	require.Equal(t, models.RequirementRequested, updated.Status)
	require.Equal(t, models.EventRequirementRequested, event)

	// Second review pass approves everything and submits for provisioning.
	project, _, err = st.SubmitForReview(ctx, project.ProjectID, project.Version)
	require.NoError(t, err)
	_, _, err = st.ApproveRequirement(ctx, updated.RequirementID, updated.Version)
	require.NoError(t, err)

	project, event, err = st.SubmitForProvisioning(ctx, project.ProjectID, project.Version)
	require.NoError(t, err)
	require.Equal(t, models.ProjectEditable, project.Status)
	require.Equal(t, models.EventProjectSubmittedForProvisioning, event)

	counts, err := st.ProjectRequirementCounts(ctx, project.ProjectID)
	require.NoError(t, err)
	require.Equal(t, int64(2), counts.AwaitingProvisioning)
}

func TestIntegration_QuotaEnforcement(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	s := seedStore(t, ctx, st, "quota")
	big := s.createRequirement(t, ctx, st, 800)
	small := s.createRequirement(t, ctx, st, 300)

	_, _, err := st.SubmitForReview(ctx, s.project.ProjectID, s.project.Version)
	require.NoError(t, err)

	_, _, err = st.ApproveRequirement(ctx, big.RequirementID, big.Version)
	require.NoError(t, err)

	_, _, err = st.ApproveRequirement(ctx, small.RequirementID, small.Version)
	require.Equal(t, lifecycle.CodeQuotaExceeded, lifecycle.ConflictCode(err))

	got, err := st.GetRequirement(ctx, small.RequirementID)
	require.NoError(t, err)
	require.Equal(t, models.RequirementRequested, got.Status)
}

func TestIntegration_ConcurrentApproval(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	s := seedStore(t, ctx, st, "race")
	req1 := s.createRequirement(t, ctx, st, 600)
	req2 := s.createRequirement(t, ctx, st, 600)

	_, _, err := st.SubmitForReview(ctx, s.project.ProjectID, s.project.Version)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _, errs[0] = st.ApproveRequirement(ctx, req1.RequirementID, req1.Version)
	}()
	go func() {
		defer wg.Done()
		_, _, errs[1] = st.ApproveRequirement(ctx, req2.RequirementID, req2.Version)
	}()
	wg.Wait()

	var succeeded, exceeded int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case lifecycle.ConflictCode(err) == lifecycle.CodeQuotaExceeded:
			exceeded++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, exceeded)

	usage, err := st.QuotaUsage(ctx, s.consortium.ConsortiumID, s.resource.ResourceID)
	require.NoError(t, err)
	require.LessOrEqual(t, usage.Allocated(), usage.QuotaAmount)
}

func TestIntegration_SoleOwnerGuard(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	s := seedStore(t, ctx, st, "owner")

	ownerRow, err := st.GetProjectRole(ctx, s.project.ProjectID, s.owner.UserID)
	require.NoError(t, err)

	err = st.DeleteCollaborator(ctx, ownerRow.CollaboratorID)
	require.Equal(t, lifecycle.CodeSoleOwner, lifecycle.ConflictCode(err))

	_, err = st.UpdateCollaboratorRole(ctx, ownerRow.CollaboratorID, models.RoleContributor)
	require.Equal(t, lifecycle.CodeSoleOwner, lifecycle.ConflictCode(err))
}

func TestIntegration_Invitations(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	s := seedStore(t, ctx, st, "invite")

	invitee, err := st.CreateUser(ctx, store.CreateUserParams{Username: "invitee", Email: "invitee@example.org"})
	require.NoError(t, err)

	invitation, err := st.CreateInvitation(ctx, store.CreateInvitationParams{
		ProjectID: s.project.ProjectID,
		Email:     "invitee@example.org",
	})
	require.NoError(t, err)

	// Duplicate invitation for the same address, case-insensitively.
	_, err = st.CreateInvitation(ctx, store.CreateInvitationParams{
		ProjectID: s.project.ProjectID,
		Email:     "Invitee@Example.org",
	})
	require.True(t, lifecycle.IsValidation(err))

	collab, err := st.AcceptInvitation(ctx, invitation.Code, invitee.UserID)
	require.NoError(t, err)
	require.Equal(t, models.RoleContributor, collab.Role)

	// The code is single use.
	_, err = st.AcceptInvitation(ctx, invitation.Code, invitee.UserID)
	require.ErrorIs(t, err, store.ErrInvitationInvalid)
}

func TestIntegration_ServiceConstraints(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	s := seedStore(t, ctx, st, "svc")

	// One service per (project, category).
	_, err := st.CreateService(ctx, store.CreateServiceParams{
		ProjectID:  s.project.ProjectID,
		CategoryID: s.category.CategoryID,
		Name:       "second-svc",
	})
	require.True(t, lifecycle.IsValidation(err))

	// The name is unique within the category even across projects.
	other, err := st.CreateProject(ctx, store.CreateProjectParams{
		Name:         "project-svc-2",
		ConsortiumID: s.consortium.ConsortiumID,
		OwnerID:      s.owner.UserID,
	})
	require.NoError(t, err)
	_, err = st.CreateService(ctx, store.CreateServiceParams{
		ProjectID:  other.ProjectID,
		CategoryID: s.category.CategoryID,
		Name:       s.service.Name,
	})
	require.True(t, lifecycle.IsValidation(err))
}

func TestIntegration_StaleVersion(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	s := seedStore(t, ctx, st, "stale")
	s.createRequirement(t, ctx, st, 100)

	_, _, err := st.SubmitForReview(ctx, s.project.ProjectID, s.project.Version+5)
	require.Equal(t, lifecycle.CodeStaleVersion, lifecycle.ConflictCode(err))

	got, err := st.GetProject(ctx, s.project.ProjectID)
	require.NoError(t, err)
	require.Equal(t, models.ProjectEditable, got.Status)
}

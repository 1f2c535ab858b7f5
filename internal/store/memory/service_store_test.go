package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

func TestCreateService(t *testing.T) {
	ctx := context.Background()

	t.Run("name must match the naming rule", func(t *testing.T) {
		f := newFixture(t)
		for _, name := range []string{"Workspace", "1ws", "ws space", "this-name-is-well-over-thirty-characters"} {
			_, err := f.st.CreateService(ctx, store.CreateServiceParams{
				ProjectID:  f.project.ProjectID,
				CategoryID: f.category.CategoryID,
				Name:       name,
			})
			require.True(t, lifecycle.IsValidation(err), "name %q should be invalid", name)
		}
	})

	t.Run("name is unique within the category", func(t *testing.T) {
		f := newFixture(t)
		other, err := f.st.CreateProject(ctx, store.CreateProjectParams{
			Name:         "aerosols",
			ConsortiumID: f.consortium.ConsortiumID,
			OwnerID:      f.owner.UserID,
		})
		require.NoError(t, err)

		// Same category, different project: the name is still taken.
		_, err = f.st.CreateService(ctx, store.CreateServiceParams{
			ProjectID:  other.ProjectID,
			CategoryID: f.category.CategoryID,
			Name:       "cloud-ws",
		})
		require.True(t, lifecycle.IsValidation(err))
	})

	t.Run("one service per category per project", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.st.CreateService(ctx, store.CreateServiceParams{
			ProjectID:  f.project.ProjectID,
			CategoryID: f.category.CategoryID,
			Name:       "second-ws",
		})
		require.True(t, lifecycle.IsValidation(err))

		// A different category is fine.
		other, err := f.st.CreateCategory(ctx, store.CreateCategoryParams{
			Name:        "object-store",
			ResourceIDs: []uuid.UUID{f.resource.ResourceID},
		})
		require.NoError(t, err)
		_, err = f.st.CreateService(ctx, store.CreateServiceParams{
			ProjectID:  f.project.ProjectID,
			CategoryID: other.CategoryID,
			Name:       "cloud-os",
		})
		require.NoError(t, err)
	})

	t.Run("refused while project is under review", func(t *testing.T) {
		f := newFixture(t)
		f.createRequirement(t, 100)
		f.submitForReview(t)

		_, err := f.st.CreateService(ctx, store.CreateServiceParams{
			ProjectID:  f.project.ProjectID,
			CategoryID: f.category.CategoryID,
			Name:       "another-ws",
		})
		require.Equal(t, lifecycle.CodeInvalidStatus, lifecycle.ConflictCode(err))
	})
}

func TestDeleteService(t *testing.T) {
	ctx := context.Background()

	t.Run("empty service can be deleted", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.st.DeleteService(ctx, f.service.ServiceID, f.service.Version))

		_, err := f.st.GetService(ctx, f.service.ServiceID)
		require.ErrorIs(t, err, store.ErrServiceNotFound)
	})

	t.Run("service with requirements cannot be deleted", func(t *testing.T) {
		f := newFixture(t)
		f.createRequirement(t, 100)

		err := f.st.DeleteService(ctx, f.service.ServiceID, f.service.Version)
		require.Equal(t, lifecycle.CodeHasRequirements, lifecycle.ConflictCode(err))
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		f := newFixture(t)
		err := f.st.DeleteService(ctx, f.service.ServiceID, f.service.Version+1)
		require.Equal(t, lifecycle.CodeStaleVersion, lifecycle.ConflictCode(err))
	})
}

func TestQuotaUsage(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	req := f.createRequirement(t, 300)
	f.createRequirement(t, 200)
	f.submitForReview(t)

	_, _, err := f.st.ApproveRequirement(ctx, req.RequirementID, req.Version)
	require.NoError(t, err)

	usage, err := f.st.QuotaUsage(ctx, f.consortium.ConsortiumID, f.resource.ResourceID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), usage.QuotaAmount)
	require.Equal(t, int64(300), usage.Allocated())
	require.Equal(t, int64(1), usage.Counts[models.RequirementApproved])
	require.Equal(t, int64(1), usage.Counts[models.RequirementRequested])
}

func TestTotalAvailable(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	chunk, err := f.st.AddResourceChunk(ctx, store.AddResourceChunkParams{
		ResourceID: f.resource.ResourceID,
		Name:       "2025 procurement",
		Amount:     5000,
	})
	require.NoError(t, err)
	_, err = f.st.AddResourceChunk(ctx, store.AddResourceChunkParams{
		ResourceID: f.resource.ResourceID,
		Name:       "2026 procurement",
		Amount:     2500,
	})
	require.NoError(t, err)

	total, err := f.st.TotalAvailable(ctx, f.resource.ResourceID)
	require.NoError(t, err)
	require.Equal(t, int64(7500), total)

	require.NoError(t, f.st.RemoveResourceChunk(ctx, chunk.ChunkID, chunk.Version))

	total, err = f.st.TotalAvailable(ctx, f.resource.ResourceID)
	require.NoError(t, err)
	require.Equal(t, int64(2500), total)
}

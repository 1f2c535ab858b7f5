package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/models"
)

// CreateConsortiumParams carries the fields for a new consortium.
type CreateConsortiumParams struct {
	Name        string
	Description string
	IsPublic    bool
	ManagerID   uuid.UUID
}

// CreateResourceParams carries the fields for a new resource.
type CreateResourceParams struct {
	Name      string
	ShortName string
	Units     string
}

// AddResourceChunkParams carries the fields for a new procurement chunk.
type AddResourceChunkParams struct {
	ResourceID uuid.UUID
	Name       string
	Amount     int64
}

// CreateCategoryParams carries the fields for a new service category.
type CreateCategoryParams struct {
	Name        string
	Description string
	ResourceIDs []uuid.UUID
}

// SetQuotaParams sets the ceiling for a (consortium, resource) pair. Setting
// a quota that already exists replaces its amount.
type SetQuotaParams struct {
	ConsortiumID uuid.UUID
	ResourceID   uuid.UUID
	Amount       int64
}

// ConsortiumStore persists the administrative data the lifecycle reads:
// consortia, resources and their procurement chunks, service categories and
// quotas. It also exposes the quota ledger query used by the approval check.
type ConsortiumStore interface {
	CreateConsortium(ctx context.Context, params CreateConsortiumParams) (*models.Consortium, error)
	GetConsortium(ctx context.Context, consortiumID uuid.UUID) (*models.Consortium, error)
	ListConsortia(ctx context.Context) ([]*models.Consortium, error)

	CreateResource(ctx context.Context, params CreateResourceParams) (*models.Resource, error)
	GetResource(ctx context.Context, resourceID uuid.UUID) (*models.Resource, error)

	// AddResourceChunk and RemoveResourceChunk manage procurement units. The
	// resource's total available amount is the sum of its chunk amounts.
	AddResourceChunk(ctx context.Context, params AddResourceChunkParams) (*models.ResourceChunk, error)
	RemoveResourceChunk(ctx context.Context, chunkID uuid.UUID, version int64) error
	TotalAvailable(ctx context.Context, resourceID uuid.UUID) (int64, error)

	CreateCategory(ctx context.Context, params CreateCategoryParams) (*models.Category, error)
	GetCategory(ctx context.Context, categoryID uuid.UUID) (*models.Category, error)

	SetQuota(ctx context.Context, params SetQuotaParams) (*models.Quota, error)
	GetQuota(ctx context.Context, consortiumID, resourceID uuid.UUID) (*models.Quota, error)

	// QuotaUsage reports per-status requirement counts and amount totals for
	// one (consortium, resource) pair, walking requirement -> service ->
	// project -> consortium. The quota amount in the result is zero when no
	// quota row exists.
	QuotaUsage(ctx context.Context, consortiumID, resourceID uuid.UUID) (*models.QuotaUsage, error)
}

package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Resource is something a project can request an amount of, e.g. disk or
// compute time. The total available is derived from procurement chunks.
type Resource struct {
	ResourceID uuid.UUID // UUIDv7
	Name       string    // unique
	ShortName  string
	Units      string // e.g. "GB", omitted for unit-less resources
	CreatedAt  time.Time
}

// FormatAmount renders an amount with the resource units, if any.
func (r *Resource) FormatAmount(amount int64) string {
	if r.Units == "" {
		return strconv.FormatInt(amount, 10)
	}
	return strconv.FormatInt(amount, 10) + " " + r.Units
}

// ResourceChunk is a procurement unit contributing to the total available
// amount of a resource. Chunks are administrative data and carry a version
// counter so concurrent edits are detected.
type ResourceChunk struct {
	ChunkID    uuid.UUID // UUIDv7
	ResourceID uuid.UUID
	Name       string
	Amount     int64
	Version    int64
	CreatedAt  time.Time
}

// Category groups services of one kind and fixes the set of resources a
// service of that category may request.
type Category struct {
	CategoryID  uuid.UUID // UUIDv7
	Name        string    // unique
	Description string
	// ResourceIDs is the set of resources valid for requirements of services
	// in this category.
	ResourceIDs []uuid.UUID
	CreatedAt   time.Time
}

// HasResource reports whether the category permits the given resource.
func (c *Category) HasResource(resourceID uuid.UUID) bool {
	for _, id := range c.ResourceIDs {
		if id == resourceID {
			return true
		}
	}
	return false
}

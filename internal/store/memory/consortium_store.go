package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CreateConsortium adds a consortium with a unique name.
func (s *Store) CreateConsortium(ctx context.Context, params store.CreateConsortiumParams) (*models.Consortium, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.Name == "" {
		return nil, lifecycle.NewValidationError("name", "name is required")
	}
	for _, c := range s.consortia {
		if equalFold(c.Name, params.Name) {
			return nil, lifecycle.NewValidationError("name", "a consortium with this name already exists")
		}
	}
	if _, ok := s.users[params.ManagerID]; !ok {
		return nil, store.ErrUserNotFound
	}

	consortium := &models.Consortium{
		ConsortiumID: newID(),
		Name:         params.Name,
		Description:  params.Description,
		IsPublic:     params.IsPublic,
		ManagerID:    params.ManagerID,
		CreatedAt:    s.now(),
	}
	s.consortia[consortium.ConsortiumID] = consortium

	cp := *consortium
	return &cp, nil
}

// GetConsortium fetches a consortium by id.
func (s *Store) GetConsortium(ctx context.Context, consortiumID uuid.UUID) (*models.Consortium, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	consortium, ok := s.consortia[consortiumID]
	if !ok {
		return nil, store.ErrConsortiumNotFound
	}
	cp := *consortium
	return &cp, nil
}

// ListConsortia returns every consortium.
func (s *Store) ListConsortia(ctx context.Context) ([]*models.Consortium, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*models.Consortium, 0, len(s.consortia))
	for _, consortium := range s.consortia {
		cp := *consortium
		results = append(results, &cp)
	}
	return results, nil
}

// CreateResource adds a resource with a unique name.
func (s *Store) CreateResource(ctx context.Context, params store.CreateResourceParams) (*models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.Name == "" {
		return nil, lifecycle.NewValidationError("name", "name is required")
	}
	for _, r := range s.resources {
		if equalFold(r.Name, params.Name) {
			return nil, lifecycle.NewValidationError("name", "a resource with this name already exists")
		}
	}

	resource := &models.Resource{
		ResourceID: newID(),
		Name:       params.Name,
		ShortName:  params.ShortName,
		Units:      params.Units,
		CreatedAt:  s.now(),
	}
	s.resources[resource.ResourceID] = resource

	cp := *resource
	return &cp, nil
}

// GetResource fetches a resource by id.
func (s *Store) GetResource(ctx context.Context, resourceID uuid.UUID) (*models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resource, ok := s.resources[resourceID]
	if !ok {
		return nil, store.ErrResourceNotFound
	}
	cp := *resource
	return &cp, nil
}

// AddResourceChunk records a procurement unit for a resource.
func (s *Store) AddResourceChunk(ctx context.Context, params store.AddResourceChunkParams) (*models.ResourceChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[params.ResourceID]; !ok {
		return nil, store.ErrResourceNotFound
	}
	if params.Amount <= 0 {
		return nil, lifecycle.NewValidationError("amount", "amount must be positive")
	}

	chunk := &models.ResourceChunk{
		ChunkID:    newID(),
		ResourceID: params.ResourceID,
		Name:       params.Name,
		Amount:     params.Amount,
		Version:    1,
		CreatedAt:  s.now(),
	}
	s.chunks[chunk.ChunkID] = chunk

	cp := *chunk
	return &cp, nil
}

// RemoveResourceChunk deletes a procurement unit, verifying the version.
func (s *Store) RemoveResourceChunk(ctx context.Context, chunkID uuid.UUID, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunk, ok := s.chunks[chunkID]
	if !ok {
		return store.ErrChunkNotFound
	}
	if chunk.Version != version {
		return staleVersion("resource chunk", version, chunk.Version)
	}
	delete(s.chunks, chunkID)
	return nil
}

// TotalAvailable sums the chunk amounts for a resource.
func (s *Store) TotalAvailable(ctx context.Context, resourceID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.resources[resourceID]; !ok {
		return 0, store.ErrResourceNotFound
	}
	var total int64
	for _, chunk := range s.chunks {
		if chunk.ResourceID == resourceID {
			total += chunk.Amount
		}
	}
	return total, nil
}

// CreateCategory adds a service category with its allowed resources.
func (s *Store) CreateCategory(ctx context.Context, params store.CreateCategoryParams) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.Name == "" {
		return nil, lifecycle.NewValidationError("name", "name is required")
	}
	for _, c := range s.categories {
		if equalFold(c.Name, params.Name) {
			return nil, lifecycle.NewValidationError("name", "a category with this name already exists")
		}
	}
	for _, resourceID := range params.ResourceIDs {
		if _, ok := s.resources[resourceID]; !ok {
			return nil, store.ErrResourceNotFound
		}
	}

	category := &models.Category{
		CategoryID:  newID(),
		Name:        params.Name,
		Description: params.Description,
		ResourceIDs: append([]uuid.UUID(nil), params.ResourceIDs...),
		CreatedAt:   s.now(),
	}
	s.categories[category.CategoryID] = category

	cp := *category
	cp.ResourceIDs = append([]uuid.UUID(nil), category.ResourceIDs...)
	return &cp, nil
}

// GetCategory fetches a category by id.
func (s *Store) GetCategory(ctx context.Context, categoryID uuid.UUID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[categoryID]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	cp := *category
	cp.ResourceIDs = append([]uuid.UUID(nil), category.ResourceIDs...)
	return &cp, nil
}

// SetQuota creates or replaces the quota for a (consortium, resource) pair.
func (s *Store) SetQuota(ctx context.Context, params store.SetQuotaParams) (*models.Quota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.consortia[params.ConsortiumID]; !ok {
		return nil, store.ErrConsortiumNotFound
	}
	if _, ok := s.resources[params.ResourceID]; !ok {
		return nil, store.ErrResourceNotFound
	}
	if params.Amount < 0 {
		return nil, lifecycle.NewValidationError("amount", "amount cannot be negative")
	}

	key := quotaKey{params.ConsortiumID, params.ResourceID}
	quota, ok := s.quotas[key]
	if ok {
		quota.Amount = params.Amount
	} else {
		quota = &models.Quota{
			QuotaID:      newID(),
			ConsortiumID: params.ConsortiumID,
			ResourceID:   params.ResourceID,
			Amount:       params.Amount,
			CreatedAt:    s.now(),
		}
		s.quotas[key] = quota
	}

	cp := *quota
	return &cp, nil
}

// GetQuota fetches the quota for a (consortium, resource) pair.
func (s *Store) GetQuota(ctx context.Context, consortiumID, resourceID uuid.UUID) (*models.Quota, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quota, ok := s.quotas[quotaKey{consortiumID, resourceID}]
	if !ok {
		return nil, store.ErrQuotaNotFound
	}
	cp := *quota
	return &cp, nil
}

// QuotaUsage reports per-status counts and totals for a (consortium,
// resource) pair.
func (s *Store) QuotaUsage(ctx context.Context, consortiumID, resourceID uuid.UUID) (*models.QuotaUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.consortia[consortiumID]; !ok {
		return nil, store.ErrConsortiumNotFound
	}
	if _, ok := s.resources[resourceID]; !ok {
		return nil, store.ErrResourceNotFound
	}

	usage := &models.QuotaUsage{
		ConsortiumID: consortiumID,
		ResourceID:   resourceID,
		Counts:       make(map[models.RequirementStatus]int64),
		Totals:       make(map[models.RequirementStatus]int64),
	}
	if quota, ok := s.quotas[quotaKey{consortiumID, resourceID}]; ok {
		usage.QuotaAmount = quota.Amount
	}
	for _, req := range s.requirements {
		if req.ResourceID != resourceID {
			continue
		}
		svc, ok := s.services[req.ServiceID]
		if !ok {
			continue
		}
		project, ok := s.projects[svc.ProjectID]
		if !ok || project.ConsortiumID != consortiumID {
			continue
		}
		usage.Counts[req.Status]++
		usage.Totals[req.Status] += req.Amount
	}
	return usage, nil
}

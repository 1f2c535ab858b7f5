package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CreateRequirement adds a requirement to a service in REQUESTED status. The
// project must be EDITABLE and the resource must be allowed by the service's
// category.
func (s *Store) CreateRequirement(ctx context.Context, params store.CreateRequirementParams) (*models.Requirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	service, ok := s.services[params.ServiceID]
	if !ok {
		return nil, store.ErrServiceNotFound
	}
	project, ok := s.projects[service.ProjectID]
	if !ok {
		return nil, store.ErrProjectNotFound
	}
	if err := lifecycle.CheckProjectEditable(project); err != nil {
		return nil, err
	}
	category, ok := s.categories[service.CategoryID]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	if _, ok := s.resources[params.ResourceID]; !ok {
		return nil, store.ErrResourceNotFound
	}
	if err := lifecycle.ValidateResource(category, params.ResourceID, nil); err != nil {
		return nil, err
	}
	if err := lifecycle.ValidateNew(params.Amount, params.StartDate, params.EndDate, s.now()); err != nil {
		return nil, err
	}

	req := &models.Requirement{
		RequirementID: newID(),
		ServiceID:     params.ServiceID,
		ResourceID:    params.ResourceID,
		Status:        models.RequirementRequested,
		Amount:        params.Amount,
		StartDate:     params.StartDate,
		EndDate:       params.EndDate,
		Version:       1,
		CreatedAt:     s.now(),
	}
	s.requirements[req.RequirementID] = req

	cp := *req
	return &cp, nil
}

// GetRequirement fetches a requirement by id.
func (s *Store) GetRequirement(ctx context.Context, requirementID uuid.UUID) (*models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requirements[requirementID]
	if !ok {
		return nil, store.ErrRequirementNotFound
	}
	cp := *req
	return &cp, nil
}

// ListRequirementsForService returns the requirements of a service.
func (s *Store) ListRequirementsForService(ctx context.Context, serviceID uuid.UUID) ([]*models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.services[serviceID]; !ok {
		return nil, store.ErrServiceNotFound
	}
	var results []*models.Requirement
	for _, req := range s.requirements {
		if req.ServiceID == serviceID {
			cp := *req
			results = append(results, &cp)
		}
	}
	return results, nil
}

// UpdateRequirement applies a collaborator edit under the edit rules:
// project EDITABLE, status below APPROVED, dates and amount valid, resource
// allowed by the category (or unchanged). Editing a REJECTED requirement
// resets it to REQUESTED in the same write.
func (s *Store) UpdateRequirement(ctx context.Context, requirementID uuid.UUID, version int64, edit lifecycle.RequirementEdit) (*models.Requirement, models.EventType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requirements[requirementID]
	if !ok {
		return nil, models.EventNone, store.ErrRequirementNotFound
	}
	if req.Version != version {
		return nil, models.EventNone, staleVersion("requirement", version, req.Version)
	}
	service, project, err := s.requirementContext(req)
	if err != nil {
		return nil, models.EventNone, err
	}
	if err := lifecycle.CheckEditable(req, project); err != nil {
		return nil, models.EventNone, err
	}
	if edit.ResourceID != nil {
		category, ok := s.categories[service.CategoryID]
		if !ok {
			return nil, models.EventNone, store.ErrCategoryNotFound
		}
		if _, ok := s.resources[*edit.ResourceID]; !ok {
			return nil, models.EventNone, store.ErrResourceNotFound
		}
		previous := req.ResourceID
		if err := lifecycle.ValidateResource(category, *edit.ResourceID, &previous); err != nil {
			return nil, models.EventNone, err
		}
	}

	updated, event, err := lifecycle.ApplyEdit(*req, edit, s.now())
	if err != nil {
		return nil, models.EventNone, err
	}
	updated.Version++
	*req = updated

	cp := updated
	return &cp, event, nil
}

// DeleteRequirement removes a requirement, allowed only below APPROVED while
// the project is EDITABLE.
func (s *Store) DeleteRequirement(ctx context.Context, requirementID uuid.UUID, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requirements[requirementID]
	if !ok {
		return store.ErrRequirementNotFound
	}
	if req.Version != version {
		return staleVersion("requirement", version, req.Version)
	}
	_, project, err := s.requirementContext(req)
	if err != nil {
		return err
	}
	if err := lifecycle.CheckEditable(req, project); err != nil {
		return err
	}

	delete(s.requirements, requirementID)
	return nil
}

// ApproveRequirement moves a requirement to APPROVED, checking the quota
// against the allocated total for the (consortium, resource) pair. The check
// and the status write happen under the same lock, so concurrent approvals
// serialize and the quota invariant holds.
func (s *Store) ApproveRequirement(ctx context.Context, requirementID uuid.UUID, version int64) (*models.Requirement, models.EventType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requirements[requirementID]
	if !ok {
		return nil, models.EventNone, store.ErrRequirementNotFound
	}
	if req.Version != version {
		return nil, models.EventNone, staleVersion("requirement", version, req.Version)
	}
	_, project, err := s.requirementContext(req)
	if err != nil {
		return nil, models.EventNone, err
	}

	var quotaAmount int64
	if quota, ok := s.quotas[quotaKey{project.ConsortiumID, req.ResourceID}]; ok {
		quotaAmount = quota.Amount
	}
	allocated := s.allocatedTotal(project.ConsortiumID, req.ResourceID, req.RequirementID)

	if err := lifecycle.CanApprove(req, project, quotaAmount, allocated); err != nil {
		return nil, models.EventNone, err
	}

	event := models.EventNone
	if req.Status != models.RequirementApproved {
		req.Status = models.RequirementApproved
		event = models.EventRequirementApproved
	}
	req.Version++

	log.Info().
		Str("requirement_id", requirementID.String()).
		Int64("amount", req.Amount).
		Int64("allocated", allocated+req.Amount).
		Int64("quota", quotaAmount).
		Msg("Approved requirement")

	cp := *req
	return &cp, event, nil
}

// RejectRequirement moves a requirement to REJECTED. Idempotent for an
// already rejected requirement.
func (s *Store) RejectRequirement(ctx context.Context, requirementID uuid.UUID, version int64) (*models.Requirement, models.EventType, error) {
	return s.transitionRequirement(requirementID, version, models.RequirementRejected,
		func(req *models.Requirement, project *models.Project) error {
			return lifecycle.CanReject(req, project)
		})
}

// ProvisionRequirement records the external provisioning signal.
func (s *Store) ProvisionRequirement(ctx context.Context, requirementID uuid.UUID, version int64) (*models.Requirement, models.EventType, error) {
	return s.transitionRequirement(requirementID, version, models.RequirementProvisioned,
		func(req *models.Requirement, project *models.Project) error {
			return lifecycle.CanProvision(req)
		})
}

// DecommissionRequirement moves a provisioned requirement to the terminal
// DECOMMISSIONED status.
func (s *Store) DecommissionRequirement(ctx context.Context, requirementID uuid.UUID, version int64) (*models.Requirement, models.EventType, error) {
	return s.transitionRequirement(requirementID, version, models.RequirementDecommissioned,
		func(req *models.Requirement, project *models.Project) error {
			return lifecycle.CanDecommission(req)
		})
}

// transitionRequirement runs a simple requirement status transition: version
// check, gate, write, event.
func (s *Store) transitionRequirement(
	requirementID uuid.UUID,
	version int64,
	newStatus models.RequirementStatus,
	check func(*models.Requirement, *models.Project) error,
) (*models.Requirement, models.EventType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requirements[requirementID]
	if !ok {
		return nil, models.EventNone, store.ErrRequirementNotFound
	}
	if req.Version != version {
		return nil, models.EventNone, staleVersion("requirement", version, req.Version)
	}
	_, project, err := s.requirementContext(req)
	if err != nil {
		return nil, models.EventNone, err
	}
	if err := check(req, project); err != nil {
		return nil, models.EventNone, err
	}

	event := models.EventNone
	if req.Status != newStatus {
		req.Status = newStatus
		event = models.RequirementEvent(newStatus)
	}
	req.Version++

	cp := *req
	return &cp, event, nil
}

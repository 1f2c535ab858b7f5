package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// CreateProject adds a project together with its first OWNER collaborator.
// The two writes happen under one lock so a project is never observable
// without an owner.
func (s *Store) CreateProject(ctx context.Context, params store.CreateProjectParams) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.Name == "" {
		return nil, lifecycle.NewValidationError("name", "name is required")
	}
	for _, p := range s.projects {
		if equalFold(p.Name, params.Name) {
			return nil, lifecycle.NewValidationError("name", "a project with this name already exists")
		}
	}
	if _, ok := s.consortia[params.ConsortiumID]; !ok {
		return nil, store.ErrConsortiumNotFound
	}
	if _, ok := s.users[params.OwnerID]; !ok {
		return nil, store.ErrUserNotFound
	}

	project := &models.Project{
		ProjectID:    newID(),
		Name:         params.Name,
		Description:  params.Description,
		Status:       models.ProjectEditable,
		ConsortiumID: params.ConsortiumID,
		Version:      1,
		CreatedAt:    s.now(),
	}
	s.projects[project.ProjectID] = project

	owner := &models.Collaborator{
		CollaboratorID: newID(),
		ProjectID:      project.ProjectID,
		UserID:         params.OwnerID,
		Role:           models.RoleOwner,
		CreatedAt:      project.CreatedAt,
	}
	s.collaborators[owner.CollaboratorID] = owner

	log.Debug().
		Str("project_id", project.ProjectID.String()).
		Str("name", project.Name).
		Msg("Created project")

	cp := *project
	return &cp, nil
}

// GetProject fetches a project by id.
func (s *Store) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[projectID]
	if !ok {
		return nil, store.ErrProjectNotFound
	}
	cp := *project
	return &cp, nil
}

// ListProjectsForUser returns summaries of the projects the user is a
// collaborator on.
func (s *Store) ListProjectsForUser(ctx context.Context, userID uuid.UUID) ([]*models.ProjectSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*models.ProjectSummary
	for _, project := range s.projects {
		var role models.Role
		member := false
		for _, collab := range s.collaborators {
			if collab.ProjectID == project.ProjectID && collab.UserID == userID {
				member = true
				role = collab.Role
				break
			}
		}
		if !member {
			continue
		}

		summary := &models.ProjectSummary{Project: *project, CurrentUserRole: role}
		for _, collab := range s.collaborators {
			if collab.ProjectID == project.ProjectID {
				summary.NumCollaborators++
			}
		}
		for _, svc := range s.services {
			if svc.ProjectID == project.ProjectID {
				summary.NumServices++
			}
		}
		summary.NumRequirements = s.requirementCounts(project.ProjectID).Total()
		results = append(results, summary)
	}
	return results, nil
}

// SubmitForReview moves an EDITABLE project to UNDER_REVIEW.
func (s *Store) SubmitForReview(ctx context.Context, projectID uuid.UUID, version int64) (*models.Project, models.EventType, error) {
	return s.transitionProject(projectID, version, models.ProjectUnderReview, lifecycle.CheckSubmitForReview, nil)
}

// RequestChanges returns an UNDER_REVIEW project to EDITABLE for rework.
func (s *Store) RequestChanges(ctx context.Context, projectID uuid.UUID, version int64) (*models.Project, models.EventType, error) {
	return s.transitionProject(projectID, version, models.ProjectEditable, lifecycle.CheckRequestChanges, nil)
}

// SubmitForProvisioning returns an UNDER_REVIEW project to EDITABLE and
// bulk-advances every APPROVED requirement to AWAITING_PROVISIONING.
func (s *Store) SubmitForProvisioning(ctx context.Context, projectID uuid.UUID, version int64) (*models.Project, models.EventType, error) {
	return s.transitionProject(projectID, version, models.ProjectEditable,
		lifecycle.CheckSubmitForProvisioning,
		func(projectID uuid.UUID) {
			for _, req := range s.requirements {
				svc, ok := s.services[req.ServiceID]
				if !ok || svc.ProjectID != projectID {
					continue
				}
				if req.Status == models.RequirementApproved {
					req.Status = models.RequirementAwaitingProvisioning
					req.Version++
				}
			}
		})
}

// CompleteProject is the administrative transition to COMPLETED.
func (s *Store) CompleteProject(ctx context.Context, projectID uuid.UUID, version int64) (*models.Project, models.EventType, error) {
	return s.transitionProject(projectID, version, models.ProjectCompleted, lifecycle.CheckComplete, nil)
}

// ProjectRequirementCounts snapshots the per-status requirement counts for a
// project.
func (s *Store) ProjectRequirementCounts(ctx context.Context, projectID uuid.UUID) (models.RequirementCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return models.RequirementCounts{}, store.ErrProjectNotFound
	}
	return s.requirementCounts(projectID), nil
}

// transitionProject runs a project status transition: version check, gate
// evaluation against a requirement-count snapshot, optional side effect, then
// the status write and event classification, all under one lock.
func (s *Store) transitionProject(
	projectID uuid.UUID,
	version int64,
	newStatus models.ProjectStatus,
	check func(*models.Project, models.RequirementCounts) error,
	sideEffect func(projectID uuid.UUID),
) (*models.Project, models.EventType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[projectID]
	if !ok {
		return nil, models.EventNone, store.ErrProjectNotFound
	}
	if project.Version != version {
		return nil, models.EventNone, staleVersion("project", version, project.Version)
	}

	counts := s.requirementCounts(projectID)
	if err := check(project, counts); err != nil {
		return nil, models.EventNone, err
	}

	if sideEffect != nil {
		sideEffect(projectID)
	}
	project.Status = newStatus
	project.Version++

	event := lifecycle.ClassifyProjectEvent(newStatus, s.requirementCounts(projectID))

	log.Info().
		Str("project_id", projectID.String()).
		Str("status", newStatus.String()).
		Str("event", string(event)).
		Msg("Project transitioned")

	cp := *project
	return &cp, event, nil
}

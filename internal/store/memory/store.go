// Package memory provides an in-memory implementation of the store
// interfaces. It backs the unit tests and the development mode of the CLI.
// A single write lock held for the duration of each operation gives the same
// atomicity guarantees the postgres backend gets from transactions: every
// check-then-mutate sequence observes a consistent snapshot and either fully
// applies or leaves no trace.
package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// quotaKey identifies the unique (consortium, resource) pair of a quota.
type quotaKey struct {
	consortiumID uuid.UUID
	resourceID   uuid.UUID
}

// Store implements store.Store with maps guarded by a mutex.
type Store struct {
	mu sync.RWMutex

	consortia     map[uuid.UUID]*models.Consortium
	resources     map[uuid.UUID]*models.Resource
	chunks        map[uuid.UUID]*models.ResourceChunk
	categories    map[uuid.UUID]*models.Category
	quotas        map[quotaKey]*models.Quota
	projects      map[uuid.UUID]*models.Project
	services      map[uuid.UUID]*models.Service
	requirements  map[uuid.UUID]*models.Requirement
	collaborators map[uuid.UUID]*models.Collaborator
	invitations   map[uuid.UUID]*models.Invitation
	comments      map[uuid.UUID]*models.Comment
	users         map[uuid.UUID]*models.User

	// now is swappable so tests can control invitation expiry and date
	// validation.
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		consortia:     make(map[uuid.UUID]*models.Consortium),
		resources:     make(map[uuid.UUID]*models.Resource),
		chunks:        make(map[uuid.UUID]*models.ResourceChunk),
		categories:    make(map[uuid.UUID]*models.Category),
		quotas:        make(map[quotaKey]*models.Quota),
		projects:      make(map[uuid.UUID]*models.Project),
		services:      make(map[uuid.UUID]*models.Service),
		requirements:  make(map[uuid.UUID]*models.Requirement),
		collaborators: make(map[uuid.UUID]*models.Collaborator),
		invitations:   make(map[uuid.UUID]*models.Invitation),
		comments:      make(map[uuid.UUID]*models.Comment),
		users:         make(map[uuid.UUID]*models.User),
		now:           time.Now,
	}
}

// SetClock replaces the store's clock. Test helper.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

// staleVersion builds the conflict returned when a supplied version does not
// match the stored one.
func staleVersion(entity string, supplied, current int64) error {
	return lifecycle.NewConflict(lifecycle.CodeStaleVersion,
		"%s version %d is stale, current version is %d", entity, supplied, current)
}

// requirementContext resolves the service, project and consortium a
// requirement belongs to. Caller must hold the lock.
func (s *Store) requirementContext(req *models.Requirement) (*models.Service, *models.Project, error) {
	svc, ok := s.services[req.ServiceID]
	if !ok {
		return nil, nil, store.ErrServiceNotFound
	}
	project, ok := s.projects[svc.ProjectID]
	if !ok {
		return nil, nil, store.ErrProjectNotFound
	}
	return svc, project, nil
}

// allocatedTotal sums the amounts of approved-or-later requirements for one
// (consortium, resource) pair, optionally excluding a requirement. Caller
// must hold the lock.
func (s *Store) allocatedTotal(consortiumID, resourceID uuid.UUID, exclude uuid.UUID) int64 {
	var total int64
	for _, req := range s.requirements {
		if req.RequirementID == exclude || req.ResourceID != resourceID {
			continue
		}
		if req.Status < models.RequirementApproved || req.Status > models.RequirementProvisioned {
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
		total += req.Amount
	}
	return total
}

// requirementCounts snapshots the per-status counts for a project. Caller
// must hold the lock.
func (s *Store) requirementCounts(projectID uuid.UUID) models.RequirementCounts {
	var counts models.RequirementCounts
	for _, req := range s.requirements {
		svc, ok := s.services[req.ServiceID]
		if !ok || svc.ProjectID != projectID {
			continue
		}
		switch req.Status {
		case models.RequirementRequested:
			counts.Requested++
		case models.RequirementRejected:
			counts.Rejected++
		case models.RequirementApproved:
			counts.Approved++
		case models.RequirementAwaitingProvisioning:
			counts.AwaitingProvisioning++
		case models.RequirementProvisioned:
			counts.Provisioned++
		case models.RequirementDecommissioned:
			counts.Decommissioned++
		}
	}
	return counts
}

// ownerCount counts a project's OWNER collaborators, excluding one. Caller
// must hold the lock.
func (s *Store) ownerCount(projectID, exclude uuid.UUID) int64 {
	var owners int64
	for _, collab := range s.collaborators {
		if collab.ProjectID != projectID || collab.CollaboratorID == exclude {
			continue
		}
		if collab.Role == models.RoleOwner {
			owners++
		}
	}
	return owners
}

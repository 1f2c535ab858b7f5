package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// serviceNamePattern mirrors the naming rule for provisioned services: lower
// case, starting with a letter, with numbers, underscores and hyphens.
var serviceNamePattern = regexp.MustCompile(`^[a-z][-a-z0-9_]*$`)

// ValidServiceName reports whether the given name is acceptable for a service.
func ValidServiceName(name string) bool {
	return len(name) <= 30 && serviceNamePattern.MatchString(name)
}

// Service is a named instance of a category requested by a project, e.g. a
// group workspace. Service names are unique within their category. A service
// exists only while its project is editable enough to change, and can only be
// deleted while it has no requirements.
type Service struct {
	ServiceID  uuid.UUID // UUIDv7
	ProjectID  uuid.UUID
	CategoryID uuid.UUID
	Name       string
	Version    int64
	CreatedAt  time.Time
}

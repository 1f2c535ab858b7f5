package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a remark on a project, the channel through which consortium
// managers and collaborators discuss review feedback. The content may
// contain markdown.
type Comment struct {
	CommentID uuid.UUID // UUIDv7
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Content   string
	CreatedAt time.Time
	EditedAt  time.Time
}

// Package server is the action layer invoked by the (external) transport:
// each service resolves the actor's relationship to the project, checks the
// action permission, and delegates to the corresponding atomic store
// operation. State transitions pass the classifying domain event back to the
// caller for downstream notification dispatch.
package server

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jasminhpc/manage/internal/auth"
	"github.com/jasminhpc/manage/internal/models"
	"github.com/jasminhpc/manage/internal/store"
)

// resolveActor computes the actor's relationship to a project: collaborator
// role, if any, and whether they manage the project's consortium.
func resolveActor(ctx context.Context, st store.Store, project *models.Project, userID uuid.UUID) (auth.Actor, error) {
	actor := auth.Actor{UserID: userID}

	collab, err := st.GetProjectRole(ctx, project.ProjectID, userID)
	switch {
	case err == nil:
		actor.Role = collab.Role
	case errors.Is(err, store.ErrCollaboratorNotFound):
		// not a collaborator
	default:
		return actor, err
	}

	consortium, err := st.GetConsortium(ctx, project.ConsortiumID)
	if err != nil {
		return actor, err
	}
	actor.ConsortiumManager = consortium.ManagerID == userID

	return actor, nil
}

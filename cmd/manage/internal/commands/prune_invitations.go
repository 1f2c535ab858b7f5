package commands

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jasminhpc/manage/internal/models"
)

// PruneInvitationsCmd deletes invitations that have passed their TTL.
// Expired invitations are already unredeemable; this sweep keeps the table
// from accumulating dead rows and is intended to run on a schedule.
type PruneInvitationsCmd struct {
	Postgres PostgresFlags `embed:"" prefix:"postgres-"`

	MaxAge time.Duration `help:"prune invitations older than this" default:"168h" env:"MANAGE_INVITATION_MAX_AGE"`
}

func (c *PruneInvitationsCmd) Run(ctx context.Context, globals *Globals) error {
	maxAge := c.MaxAge
	if maxAge < models.InvitationTTL {
		// Never prune invitations that are still redeemable.
		maxAge = models.InvitationTTL
	}

	st, err := c.Postgres.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	pruned, err := st.PruneInvitations(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return err
	}

	log.Info().Int64("pruned", pruned).Msg("pruned expired invitations")
	return nil
}

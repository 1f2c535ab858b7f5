package commands

import (
	"context"

	"github.com/rs/zerolog/log"
)

// MigrateCmd applies pending database migrations and exits.
type MigrateCmd struct {
	Postgres PostgresFlags `embed:"" prefix:"postgres-"`
}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	st, err := c.Postgres.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.AutoMigrate(ctx); err != nil {
		return err
	}

	log.Info().Msg("migrations applied")
	return nil
}

package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/jasminhpc/manage/cmd/manage/internal/commands"
	"github.com/jasminhpc/manage/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Dev     bool `help:"Enable development mode (debug logging)."`
		Version kong.VersionFlag

		Migrate          commands.MigrateCmd          `cmd:"" help:"Apply pending database migrations."`
		PruneInvitations commands.PruneInvitationsCmd `cmd:"" name:"prune-invitations" help:"Delete invitations past their TTL."`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Dev)

	err := cmd.Run(&commands.Globals{Dev: cli.Dev, Version: version})
	cmd.FatalIfErrorf(err)
}

package commands

import (
	"context"
	"errors"

	"github.com/jasminhpc/manage/internal/store/postgres"
)

type Globals struct {
	Dev     bool
	Version string
}

// PostgresFlags configures the PostgreSQL store connection.
type PostgresFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"MANAGE_POSTGRES_CONN_STRING"`

	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"MANAGE_POSTGRES_AUTO_MIGRATE"`
}

func (f *PostgresFlags) Validate() error {
	if f.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or MANAGE_POSTGRES_CONN_STRING)")
	}
	return nil
}

// config builds the store configuration from the flags.
func (f *PostgresFlags) config() *postgres.Config {
	return &postgres.Config{
		ConnString:      f.ConnString,
		MaxConns:        f.MaxConns,
		MinConns:        f.MinConns,
		MaxConnLifetime: f.MaxConnLifetime,
		MaxConnIdleTime: f.MaxConnIdleTime,
		AutoMigrate:     f.AutoMigrate,
	}
}

// openStore connects to PostgreSQL with the configured flags.
func (f *PostgresFlags) openStore(ctx context.Context) (*postgres.Store, error) {
	return postgres.NewStore(ctx, f.config())
}

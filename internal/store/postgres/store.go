// Package postgres provides the PostgreSQL implementation of the store
// interfaces on a pgx connection pool. Every check-then-mutate sequence runs
// in a single transaction with row locks, so the quota check, the project
// transition gates and the sole-owner guard each observe a consistent
// snapshot. Transactions aborted by serialization failures or deadlocks are
// retried with exponential backoff.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/jasminhpc/manage/internal/lifecycle"
	"github.com/jasminhpc/manage/internal/store"
)

// Store implements store.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	cfg  *Config
}

var _ store.Store = (*Store)(nil)

// NewStore creates a store on a fresh connection pool, running pending
// migrations first when cfg.AutoMigrate is set.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &Store{pool: pool, cfg: cfg}, nil
}

// NewStoreWithPool creates a store on an existing pool. The caller retains
// ownership of the pool.
func NewStoreWithPool(pool *pgxpool.Pool, cfg *Config) *Store {
	cfg.ApplyDefaults()
	return &Store{pool: pool, cfg: cfg}
}

// AutoMigrate runs any pending schema migrations.
func (s *Store) AutoMigrate(ctx context.Context) error {
	return runMigrations(ctx, s.pool)
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// querier is the querying surface shared by *pgxpool.Pool and pgx.Tx, so
// read helpers can run either standalone or inside a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// staleVersion builds the conflict returned when a supplied version does not
// match the stored one.
func staleVersion(entity string, supplied, current int64) error {
	return lifecycle.NewConflict(lifecycle.CodeStaleVersion,
		"%s version %d is stale, current version is %d", entity, supplied, current)
}

// withTx runs fn in a transaction, committing on success and rolling back on
// error. Serialization failures and deadlocks retry the whole transaction;
// any other error aborts immediately.
func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	attempt := func() (struct{}, error) {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("failed to begin transaction: %w", err))
		}
		defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

		if err := fn(ctx, tx); err != nil {
			if retryableTxError(err) {
				log.Debug().Err(err).Msg("transaction conflict, retrying")
				return struct{}{}, err
			}
			return struct{}{}, backoff.Permanent(err)
		}

		if err := tx.Commit(ctx); err != nil {
			if retryableTxError(err) {
				return struct{}{}, err
			}
			return struct{}{}, backoff.Permanent(fmt.Errorf("failed to commit transaction: %w", err))
		}
		return struct{}{}, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond

	_, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(s.cfg.MaxTxRetries),
	)
	return err
}

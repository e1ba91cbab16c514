// Package postgres implements store.Store on a pgx connection pool.
package postgres

import (
	"context"
	stderrors "errors"

	"kawanchat/server/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const uniqueViolation = "23505"

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the postgres store backend. Reads go straight to the pool and
// WithTx runs its callback inside one pgx transaction.
type Store struct {
	*querier
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// New returns a Store on pool. The schema must already be migrated.
func New(pool *pgxpool.Pool) *Store {
	return &Store{querier: &querier{db: pool}, pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(q store.Querier) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&querier{db: tx})
	})
}

// translate maps driver errors onto the store sentinels and wraps the rest
// with the failing operation.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrDuplicateKey
	}
	return errors.Wrap(err, op)
}

package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Arielpetit/UDM/internal/common"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock, so every repository
// works against the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a DBTX that can open transactions.
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxRunner runs fn inside one store transaction. fn's error rolls the
// transaction back; otherwise it is committed.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(q DBTX) error) error
}

type txRunner struct {
	pool Pool
}

func NewTxRunner(pool Pool) TxRunner {
	return &txRunner{pool: pool}
}

func (r *txRunner) WithinTx(ctx context.Context, fn func(q DBTX) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// translate maps driver errors onto the domain taxonomy.
func translate(err error, op, resource string, id uuid.UUID) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return common.NewNotFound(resource, id)
	case isUniqueViolation(err):
		return fmt.Errorf("failed to %s: %w", op, common.ErrConflict)
	case isForeignKeyViolation(err):
		return fmt.Errorf("failed to %s: %s is still referenced: %w", op, resource, common.ErrConflict)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/tocos/ledger-service/internal/domain"
)

// txKey is the key type for storing a transaction in context.
type txKey struct{}

// errNoTransaction is returned by mutation methods invoked outside a
// transaction context.
var errNoTransaction = errors.New("operation requires a transaction context")

// TransactionManager implements domain.TransactionManager using
// PostgreSQL. One transaction occupies exactly one pool lease for its
// whole lifetime; the repositories called inside it reuse that
// transaction instead of taking leases of their own, so an operation
// never holds more than one connection.
type TransactionManager struct {
	pool *Pool
}

// NewTransactionManager creates a new TransactionManager.
func NewTransactionManager(pool *Pool) *TransactionManager {
	return &TransactionManager{pool: pool}
}

// WithTransaction executes fn within a database transaction.
// If fn returns an error the transaction is rolled back and no partial
// mutation is visible to any other reader; otherwise it is committed.
// The transaction travels in the context so repositories can pick it up
// via getTx.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	conn, err := tm.pool.Lease(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return domain.NewError(domain.KindDatabaseQueryError, err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", err)
		}
	}()

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		return err // Transaction will be rolled back by defer
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewError(domain.KindDatabaseQueryError, err)
	}
	return nil
}

// getTx retrieves the transaction from context.
// If no transaction is found, returns nil.
func getTx(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

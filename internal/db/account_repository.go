package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tocos/ledger-service/internal/domain"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool *Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// selectAccounts serves both the by-id and the list-all form: a NULL
// parameter collapses the predicate to id = id.
const selectAccounts = `
SELECT id, balance FROM account
WHERE id = COALESCE($1, id)
ORDER BY id DESC
`

const selectBalance = `
SELECT balance FROM account
WHERE id = $1
`

const insertAccount = `CALL insert_account($1, $2)`

// List returns accounts ordered by identifier descending. With a
// non-nil id an empty result maps to KindSenderDoesNotExist; with a nil
// id an empty store simply yields an empty slice.
func (r *AccountRepository) List(ctx context.Context, id *int64) ([]domain.Account, error) {
	conn, err := r.pool.Lease(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, selectAccounts, id)
	if err != nil {
		return nil, domain.NewError(domain.KindDatabaseQueryError, err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(&account.ID, &account.Balance); err != nil {
			return nil, domain.NewError(domain.KindDatabaseQueryError, err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.KindDatabaseQueryError, err)
	}

	if id != nil && len(accounts) == 0 {
		return nil, domain.NewError(domain.KindSenderDoesNotExist, nil)
	}
	return accounts, nil
}

// Create inserts a new account inside one transaction on a single
// lease. A violation of the id uniqueness constraint maps to
// KindAccountExists and leaves the existing row untouched.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	conn, err := r.pool.Lease(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return domain.NewError(domain.KindDatabaseQueryError, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertAccount, account.ID, account.Balance); err != nil {
		if isUniqueViolation(err) {
			return domain.NewError(domain.KindAccountExists, err)
		}
		return domain.NewError(domain.KindDatabaseQueryError, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewError(domain.KindDatabaseQueryError, err)
	}
	return nil
}

// Balance reads the current balance of one account, using the ambient
// transaction when called inside one.
func (r *AccountRepository) Balance(ctx context.Context, id int64) (int64, bool, error) {
	var row pgx.Row
	if tx := getTx(ctx); tx != nil {
		row = tx.QueryRow(ctx, selectBalance, id)
	} else {
		conn, err := r.pool.Lease(ctx)
		if err != nil {
			return 0, false, err
		}
		defer conn.Release()
		row = conn.QueryRow(ctx, selectBalance, id)
	}

	var balance int64
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, domain.NewError(domain.KindDatabaseQueryError, err)
	}
	return balance, true, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

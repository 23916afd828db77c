package db

import (
	"context"

	"github.com/tocos/ledger-service/internal/domain"
)

// LedgerRepository implements domain.LedgerRepository using PostgreSQL.
// Reads take their own lease; the mutation methods expect to run inside
// a transaction started by TransactionManager and fail fast when they
// are not, so a transfer can never mutate balances outside its atomic
// unit.
type LedgerRepository struct {
	pool *Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const selectLatest = `
SELECT from_id, to_id, amount FROM transaction
ORDER BY number DESC
LIMIT $1
`

// conditionalDebit only fires when the remaining balance stays at or
// above the threshold, which makes "zero rows affected" the
// insufficient-balance outcome even under concurrent transfers.
const conditionalDebit = `
UPDATE account
SET balance = balance - $2
WHERE id = $1 AND balance - $2 >= $3
`

const creditAccount = `CALL apply_balance_delta($1, $2)`

const appendEntry = `CALL append_ledger_entry($1, $2, $3)`

// Latest returns the most recent limit ledger entries, newest first by
// sequence number. An empty ledger yields an empty slice.
func (r *LedgerRepository) Latest(ctx context.Context, limit int) ([]domain.Transaction, error) {
	conn, err := r.pool.Lease(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, selectLatest, limit)
	if err != nil {
		return nil, domain.NewError(domain.KindDatabaseQueryError, err)
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.FromID, &tx.ToID, &tx.Amount); err != nil {
			return nil, domain.NewError(domain.KindDatabaseQueryError, err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewError(domain.KindDatabaseQueryError, err)
	}
	return transactions, nil
}

// DebitIfAbove decrements the sender balance by amount only if the
// resulting balance stays at or above min. Must be called within a
// transaction context.
func (r *LedgerRepository) DebitIfAbove(ctx context.Context, id, amount, min int64) (bool, error) {
	tx := getTx(ctx)
	if tx == nil {
		return false, domain.NewError(domain.KindDatabaseQueryError, errNoTransaction)
	}

	tag, err := tx.Exec(ctx, conditionalDebit, id, amount, min)
	if err != nil {
		return false, domain.NewError(domain.KindDatabaseQueryError, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Credit increments the receiver balance by amount through the
// apply_balance_delta procedure. Must be called within a transaction
// context.
func (r *LedgerRepository) Credit(ctx context.Context, id, amount int64) error {
	tx := getTx(ctx)
	if tx == nil {
		return domain.NewError(domain.KindDatabaseQueryError, errNoTransaction)
	}

	if _, err := tx.Exec(ctx, creditAccount, id, amount); err != nil {
		return domain.NewError(domain.KindDatabaseQueryError, err)
	}
	return nil
}

// Append writes one ledger entry through the append_ledger_entry
// procedure. Must be called within a transaction context.
func (r *LedgerRepository) Append(ctx context.Context, fromID, toID, amount int64) error {
	tx := getTx(ctx)
	if tx == nil {
		return domain.NewError(domain.KindDatabaseQueryError, errNoTransaction)
	}

	if _, err := tx.Exec(ctx, appendEntry, fromID, toID, amount); err != nil {
		return domain.NewError(domain.KindDatabaseQueryError, err)
	}
	return nil
}

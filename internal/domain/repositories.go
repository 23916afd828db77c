package domain

import "context"

// AccountRepository defines the data access operations for accounts.
// Implementations map store failures into the service error taxonomy and
// hold at most one pool lease per call.
type AccountRepository interface {
	// List returns accounts ordered by identifier descending.
	// With a non-nil id it returns the single matching account, or
	// fails with KindSenderDoesNotExist if no such account is on
	// record. With a nil id it returns every account; an empty store
	// yields an empty slice, not an error.
	List(ctx context.Context, id *int64) ([]Account, error)

	// Create inserts a new account row. Fails with KindAccountExists
	// when the identifier is already taken; the existing row is left
	// untouched.
	Create(ctx context.Context, account Account) error

	// Balance reads the current balance of one account. found is false
	// when the account is not on record; the caller decides which
	// existence error that maps to.
	Balance(ctx context.Context, id int64) (balance int64, found bool, err error)
}

// LedgerRepository defines the data access operations for the
// append-only transaction ledger and the balance mutations that
// accompany an append. The three mutation methods are meant to run
// inside one transaction started by TransactionManager.
type LedgerRepository interface {
	// Latest returns the most recent limit entries, newest first.
	Latest(ctx context.Context, limit int) ([]Transaction, error)

	// DebitIfAbove decrements the account balance by amount only if the
	// resulting balance stays at or above min. It reports whether a row
	// was changed; false means the condition (or the account) was not met.
	DebitIfAbove(ctx context.Context, id, amount, min int64) (bool, error)

	// Credit increments the account balance by amount.
	Credit(ctx context.Context, id, amount int64) error

	// Append writes one ledger entry. The store assigns the sequence number.
	Append(ctx context.Context, fromID, toID, amount int64) error
}

// TransactionManager runs a function within one all-or-nothing unit
// against the store. If fn returns an error the unit is rolled back and
// no partial mutation is observable to any other reader.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes domain events to external systems.
// Publishing is best-effort: a committed transfer never fails because
// its event could not be delivered.
type EventPublisher interface {
	PublishTransferCompleted(ctx context.Context, event TransferEvent) error
}

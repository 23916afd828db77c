package domain

import (
	"context"
	"log/slog"
)

// Acknowledgement strings returned on success. Clients display these
// verbatim, so they are part of the API surface.
const (
	AccountCreatedAck = "Account created successfully"
	TransferAck       = "Balance transfer completed."
)

// AccountService exposes account creation and balance queries.
type AccountService struct {
	accounts AccountRepository
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts AccountRepository) *AccountService {
	return &AccountService{accounts: accounts}
}

// GetAccounts returns the account with the given id, or every account
// (identifier descending) when id is nil. Reads always reflect the store
// at query time; the service keeps no cache.
func (s *AccountService) GetAccounts(ctx context.Context, id *int64) ([]Account, error) {
	return s.accounts.List(ctx, id)
}

// CreateAccount inserts a new account with a client-assigned identifier
// and returns an acknowledgement. A negative starting balance is a
// request-shape violation and is rejected before any store access.
func (s *AccountService) CreateAccount(ctx context.Context, account Account) (string, error) {
	if account.Balance < 0 {
		return "", NewError(KindSerializationFailure, nil)
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return "", err
	}
	return AccountCreatedAck, nil
}

// TransferService orchestrates peer-to-peer balance transfers and
// ledger queries. One transfer walks a fixed sequence of checks and
// ends in a single atomic debit/credit/append unit; every failure is
// terminal for that request and retry decisions are left to the caller.
type TransferService struct {
	accounts AccountRepository
	ledger   LedgerRepository
	tx       TransactionManager
	// Optional publisher for transfer-completed events. Nil disables publishing.
	events EventPublisher
	logger *slog.Logger
}

// NewTransferService creates a new TransferService.
// Pass nil for events if no events should be emitted.
func NewTransferService(
	accounts AccountRepository,
	ledger LedgerRepository,
	tx TransactionManager,
	events EventPublisher,
	logger *slog.Logger,
) *TransferService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransferService{
		accounts: accounts,
		ledger:   ledger,
		tx:       tx,
		events:   events,
		logger:   logger,
	}
}

// ExecuteTransfer moves amount from one account to another.
//
// The steps run in order, each with its own failure outcome:
//  1. Sender existence + balance read -> KindSenderDoesNotExist.
//  2. Threshold check: the sender must retain MinBalance after the
//     debit -> KindNotEnoughBalance.
//  3. Receiver existence check -> KindRecipientDoesNotExist.
//  4. Atomic unit: conditional debit, credit, ledger append. The debit
//     re-applies the threshold inside the transaction, so concurrent
//     transfers from the same sender cannot drive the balance below
//     MinBalance even though step 2 reads an unlocked balance. Zero
//     rows debited -> KindNotEnoughBalance; any other failure rolls the
//     whole unit back -> KindDatabaseQueryError.
//
// On success the committed transfer is acknowledged and, when a
// publisher is configured, a transfer-completed event is emitted
// best-effort in the background.
func (s *TransferService) ExecuteTransfer(ctx context.Context, fromID, toID, amount int64) (string, error) {
	if amount <= 0 {
		return "", NewError(KindSerializationFailure, nil)
	}

	fromBalance, found, err := s.accounts.Balance(ctx, fromID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", NewError(KindSenderDoesNotExist, nil)
	}

	if fromBalance < amount+MinBalance {
		return "", NewError(KindNotEnoughBalance, nil)
	}

	if _, found, err = s.accounts.Balance(ctx, toID); err != nil {
		return "", err
	} else if !found {
		return "", NewError(KindRecipientDoesNotExist, nil)
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		debited, err := s.ledger.DebitIfAbove(txCtx, fromID, amount, MinBalance)
		if err != nil {
			return err
		}
		if !debited {
			// The balance moved under us since the threshold check.
			return NewError(KindNotEnoughBalance, nil)
		}
		if err := s.ledger.Credit(txCtx, toID, amount); err != nil {
			return err
		}
		return s.ledger.Append(txCtx, fromID, toID, amount)
	})
	if err != nil {
		if KindOf(err) == KindUnknown {
			err = NewError(KindDatabaseQueryError, err)
		}
		return "", err
	}

	if s.events != nil {
		event := NewTransferEvent(fromID, toID, amount)
		go func() {
			if err := s.events.PublishTransferCompleted(context.Background(), event); err != nil {
				s.logger.Warn("failed to publish transfer completed event",
					"operation_id", event.OperationID, "error", err)
			}
		}()
	}

	return TransferAck, nil
}

// ListTransactions returns the most recent limit ledger entries, newest
// first. The limit must be in (0, MaxWindowSize]; the API layer
// validates it first, but the window is re-checked here so a direct
// caller cannot bypass it.
func (s *TransferService) ListTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > MaxWindowSize {
		return nil, NewError(KindWindowLimitExceeded, nil)
	}
	return s.ledger.Latest(ctx, limit)
}

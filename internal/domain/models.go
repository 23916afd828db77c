package domain

import (
	"time"

	"github.com/google/uuid"
)

// MinBalance is the minimum balance an account must retain after acting
// as the sender of a transfer. A transfer that would leave the sender
// below this threshold is rejected.
const MinBalance int64 = 5

// MaxWindowSize is the maximum number of ledger entries that can be
// fetched in a single query. It is also the default window when the
// caller doesn't ask for a specific size.
const MaxWindowSize = 25

// Account represents a ledger account.
// The identifier is assigned by the client at creation time and is
// immutable once set; the balance is a unit-less minor currency amount.
type Account struct {
	ID      int64 `json:"id"`      // Unique identifier, chosen by the client
	Balance int64 `json:"balance"` // Current balance, never below zero
}

// Transaction is one append-only ledger entry recording a completed
// balance transfer. Entries are ordered by a sequence number assigned by
// the store at insert time; the service never mutates or deletes them.
type Transaction struct {
	FromID int64 `json:"from_id"` // Sender account identifier
	ToID   int64 `json:"to_id"`   // Receiver account identifier
	Amount int64 `json:"amount"`  // Positive amount moved from sender to receiver
}

// TransferEvent is the payload published after a transfer commits.
// It exists for downstream consumers (analytics, notifications); the
// transfer itself does not depend on it being delivered.
type TransferEvent struct {
	EventType   string    `json:"eventType"`
	OperationID uuid.UUID `json:"operationId"`
	FromID      int64     `json:"fromId"`
	ToID        int64     `json:"toId"`
	Amount      int64     `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewTransferEvent builds the event for a committed transfer.
func NewTransferEvent(fromID, toID, amount int64) TransferEvent {
	return TransferEvent{
		EventType:   "transfer.completed",
		OperationID: uuid.New(),
		FromID:      fromID,
		ToID:        toID,
		Amount:      amount,
		Timestamp:   time.Now().UTC(),
	}
}

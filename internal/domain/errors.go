package domain

import "errors"

// The service exposes a closed set of error kinds. Every store-facing
// call maps low-level failures into one of these at the data-access
// boundary, so raw driver errors never reach the API layer, and the API
// layer can match the set exhaustively to pick a status code.

// Kind identifies one variant of the service error taxonomy.
type Kind int

const (
	// KindUnknown is the zero value; it is never produced on purpose.
	KindUnknown Kind = iota

	// KindResourceBusy means the connection pool was exhausted or a
	// lease wait timed out. Transient; the caller may retry later.
	KindResourceBusy

	// KindDatabaseQueryError means a store call failed for a reason
	// other than a domain rule.
	KindDatabaseQueryError

	// KindSenderDoesNotExist means the sender account is not on record.
	KindSenderDoesNotExist

	// KindRecipientDoesNotExist means the receiver account is not on record.
	KindRecipientDoesNotExist

	// KindNotEnoughBalance means the transfer would leave the sender
	// below the minimum balance.
	KindNotEnoughBalance

	// KindAccountExists means an account with the requested id already exists.
	KindAccountExists

	// KindWindowLimitExceeded means a ledger query asked for a window
	// outside (0, MaxWindowSize].
	KindWindowLimitExceeded

	// KindSerializationFailure means the request body or parameters
	// could not be decoded into the expected shape.
	KindSerializationFailure
)

// Message returns the client-facing description for the kind.
func (k Kind) Message() string {
	switch k {
	case KindResourceBusy:
		return "Database resources busy. Please contact system administrator."
	case KindSenderDoesNotExist:
		return "Sender id does not exist on record. Please provide correct ID."
	case KindRecipientDoesNotExist:
		return "Receiver id does not exist on record. Please provide correct ID."
	case KindNotEnoughBalance:
		return "Sender does not have enough balance to submit this transaction. Minimum balance needs to be 5."
	case KindAccountExists:
		return "Account exists on DB."
	case KindWindowLimitExceeded:
		return "Current window limit has exceeded. Please adhere to a max limit of 25."
	case KindSerializationFailure:
		return "Serialization failed. Please check request data structure."
	default:
		return "Database query error occurred. Please check query attributes."
	}
}

// Error is a service failure tagged with its Kind. The cause, when
// present, carries the underlying store error for logging; it is never
// shown to clients.
type Error struct {
	Kind  Kind
	cause error
}

// NewError wraps cause into a tagged service error. cause may be nil
// for pure domain-rule violations.
func NewError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Kind.Message() + ": " + e.cause.Error()
	}
	return e.Kind.Message()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf extracts the Kind from err. Errors produced outside the
// taxonomy report KindUnknown; the API layer treats those as database
// query failures.
func KindOf(err error) Kind {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

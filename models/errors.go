package models

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match with errors.Is; the HTTP layer maps each kind
// to a status code.
var (
	// ErrValidation covers bad or missing input, including non-positive
	// amounts and same-account transfers.
	ErrValidation = errors.New("validation error")

	// ErrNotFound covers unresolved customer, account or user ids.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds covers withdrawals and transfers exceeding the
	// source balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConflict covers duplicate usernames or emails at registration.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized covers bad credentials, inactive accounts and
	// operations the caller's role does not allow.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrCorruptData covers an unreadable persisted document.
	ErrCorruptData = errors.New("corrupt data")
)

// Error pairs a kind with a human-readable message so failures surface to
// the caller as structured results rather than bare strings.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// E builds a kinded error with a formatted message.
func E(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

package brokerage

import (
	"errors"
	"fmt"
)

// Error kinds. Operations wrap them in one of the typed errors below, so
// callers match with errors.Is and read the context with errors.As.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")

	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMissingProof        = errors.New("missing proof of payment")
	ErrMissingDestination  = errors.New("missing withdrawal destination")

	ErrNotFound   = errors.New("transaction not found")
	ErrNotPending = errors.New("transaction is not pending")

	ErrUserNotFound = errors.New("user not found")

	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrInvalidPaymentMethod = errors.New("payment method needs a name and details")
	ErrUnknownSymbol        = errors.New("unknown symbol")
	ErrNoQuote              = errors.New("no quote available")

	ErrPersistence = errors.New("persistence failure")
)

// AuthError reports a failed login or registration.
type AuthError struct {
	Email string
	Kind  error
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s: %v", e.Email, e.Kind) }
func (e *AuthError) Unwrap() error { return e.Kind }

// RequestError reports a rejected trade, deposit or withdrawal submission.
type RequestError struct {
	Op     string // "buy", "sell", "deposit", "withdrawal"
	UserID string
	Kind   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s for user %s: %v", e.Op, e.UserID, e.Kind)
}
func (e *RequestError) Unwrap() error { return e.Kind }

// ApprovalError reports a status change that could not be applied.
type ApprovalError struct {
	TxID string
	Kind error
}

func (e *ApprovalError) Error() string { return fmt.Sprintf("transaction %s: %v", e.TxID, e.Kind) }
func (e *ApprovalError) Unwrap() error { return e.Kind }

// AdjustError reports a failed balance override.
type AdjustError struct {
	UserID string
	Kind   error
}

func (e *AdjustError) Error() string { return fmt.Sprintf("adjust user %s: %v", e.UserID, e.Kind) }
func (e *AdjustError) Unwrap() error { return e.Kind }

// PersistenceError reports a store failure. The in-memory state is kept.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrPersistence, e.Err)
}
func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

package ledger

import (
	"context"
	"errors"

	"bank-ledger-go/internal/store"
)

// Kind classifies a failed ledger operation
type Kind string

const (
	KindInvalidAmount      Kind = "InvalidAmount"
	KindAccountNotFound    Kind = "AccountNotFound"
	KindRecipientNotFound  Kind = "RecipientNotFound"
	KindSelfTransferDenied Kind = "SelfTransferDenied"
	KindSameAccountType    Kind = "SameAccountType"
	KindInsufficientFunds  Kind = "InsufficientFunds"
	KindStorageFailure     Kind = "StorageFailure"
)

// Error is returned by every ledger and interest operation. Message is safe
// to show to the account holder.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrInsufficientFunds) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidAmount      = &Error{Kind: KindInvalidAmount}
	ErrAccountNotFound    = &Error{Kind: KindAccountNotFound}
	ErrRecipientNotFound  = &Error{Kind: KindRecipientNotFound}
	ErrSelfTransferDenied = &Error{Kind: KindSelfTransferDenied}
	ErrSameAccountType    = &Error{Kind: KindSameAccountType}
	ErrInsufficientFunds  = &Error{Kind: KindInsufficientFunds}
	ErrStorageFailure     = &Error{Kind: KindStorageFailure}
)

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Classify returns err as an *Error. Anything that is not already one is a
// storage failure, retryable when the store reports transient contention.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ledgerErr *Error
	if errors.As(err, &ledgerErr) {
		return ledgerErr
	}
	message := "Storage failure"
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		message = "Operation cancelled"
	}
	return &Error{
		Kind:      KindStorageFailure,
		Message:   message,
		Retryable: store.IsRetryable(err),
		Err:       err,
	}
}

// KindOf reports the kind of err, or "" for nil
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return Classify(err).Kind
}

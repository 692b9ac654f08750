package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable category of a failure.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindOutOfStock       Kind = "out_of_stock"
	KindEmptyCart        Kind = "empty_cart"
	KindAlreadyPaid      Kind = "already_paid"
	KindTransientStorage Kind = "transient_storage"
	KindInternal         Kind = "internal"
)

// Error carries a Kind together with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error of the same Kind, so the
// sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation       = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "not found"}
	ErrOutOfStock       = &Error{Kind: KindOutOfStock, Message: "out of stock"}
	ErrEmptyCart        = &Error{Kind: KindEmptyCart, Message: "cart is empty"}
	ErrAlreadyPaid      = &Error{Kind: KindAlreadyPaid, Message: "order already paid"}
	ErrTransientStorage = &Error{Kind: KindTransientStorage, Message: "storage unavailable"}
)

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return newf(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newf(KindNotFound, format, args...)
}

func OutOfStock(format string, args ...interface{}) error {
	return newf(KindOutOfStock, format, args...)
}

func EmptyCart(format string, args ...interface{}) error {
	return newf(KindEmptyCart, format, args...)
}

func AlreadyPaid(format string, args ...interface{}) error {
	return newf(KindAlreadyPaid, format, args...)
}

// TransientStorage wraps an infrastructure failure that callers may retry.
func TransientStorage(err error, format string, args ...interface{}) error {
	e := newf(KindTransientStorage, format, args...)
	e.Err = err
	return e
}

// KindOf returns the Kind of the first *Error in err's chain. Context
// deadlines are reported as transient storage failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransientStorage
	}
	return KindInternal
}

// Message returns the human-readable part of err suitable for clients.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if KindOf(err) == KindTransientStorage {
		return "storage temporarily unavailable, retry the request"
	}
	return "internal error"
}

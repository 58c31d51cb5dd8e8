// Package apperr defines the error taxonomy shared by the ledger and pairing services.
//
// Every expected business failure is an *Error carrying a Kind (the broad class a caller
// switches on) and a Code (the precise condition). errors.Is matches on Code, so callers
// can test either a specific sentinel or a kind sentinel:
//
//	errors.Is(err, apperr.ErrInsufficientFunds)
//	apperr.KindOf(err) == apperr.KindConflict
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the broad class of a business error.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindInsufficientFunds     Kind = "insufficient_funds"
	KindInsufficientGoalFunds Kind = "insufficient_goal_funds"
	KindOverPayment           Kind = "over_payment"
	KindNotFound              Kind = "not_found"
	KindForbidden             Kind = "forbidden"
	KindConflict              Kind = "conflict"
	KindInternal              Kind = "internal"
)

// Error is an expected, recoverable failure. No state was mutated when one is returned.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels. Use them with errors.Is, and with New/Newf to attach a message.
var (
	ErrValidation            = &Error{Kind: KindValidation, Code: "validation"}
	ErrInvalidTransfer       = &Error{Kind: KindValidation, Code: "invalid_transfer"}
	ErrSelfPairing           = &Error{Kind: KindValidation, Code: "self_pairing"}
	ErrInsufficientFunds     = &Error{Kind: KindInsufficientFunds, Code: "insufficient_funds"}
	ErrInsufficientGoalFunds = &Error{Kind: KindInsufficientGoalFunds, Code: "insufficient_goal_funds"}
	ErrOverPayment           = &Error{Kind: KindOverPayment, Code: "over_payment"}
	ErrNotFound              = &Error{Kind: KindNotFound, Code: "not_found"}
	ErrTargetNotFound        = &Error{Kind: KindNotFound, Code: "target_not_found"}
	ErrForbidden             = &Error{Kind: KindForbidden, Code: "forbidden"}
	ErrAlreadyPaired         = &Error{Kind: KindConflict, Code: "already_paired"}
	ErrDuplicateRequest      = &Error{Kind: KindConflict, Code: "duplicate_request"}
	ErrAlreadyResolved       = &Error{Kind: KindConflict, Code: "already_resolved"}
	ErrNotPaired             = &Error{Kind: KindConflict, Code: "not_paired"}
)

// New returns a copy of sentinel carrying msg.
func New(sentinel *Error, msg string) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: msg}
}

// Newf is New with formatting.
func Newf(sentinel *Error, format string, args ...any) *Error {
	return New(sentinel, fmt.Sprintf(format, args...))
}

// Validation is shorthand for a ValidationError with a formatted message.
func Validation(format string, args ...any) *Error {
	return Newf(ErrValidation, format, args...)
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

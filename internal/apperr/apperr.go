package apperr

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable classification carried across package
// boundaries and surfaced to clients instead of raw internal errors.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInsufficientStock Kind = "insufficient_stock"
	KindSignatureInvalid  Kind = "signature_invalid"
	KindExternal          Kind = "external_service"
	KindInvariant         Kind = "invariant_violation"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or the empty Kind for plain errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsNotFound(err error) bool          { return IsKind(err, KindNotFound) }
func IsConflict(err error) bool          { return IsKind(err, KindConflict) }
func IsInsufficientStock(err error) bool { return IsKind(err, KindInsufficientStock) }
func IsInvariant(err error) bool         { return IsKind(err, KindInvariant) }

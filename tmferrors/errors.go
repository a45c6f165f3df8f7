// Package tmferrors implements the engine's closed error taxonomy.
//
// The donor's auth/errors.go uses a flat block of sentinel errors
// (errors.New), which works for "is this exactly this error" checks
// but not for a request surface that needs to map a whole *class* of
// failure to a transport status code in one switch. Error here
// generalizes the sentinel idiom into a typed Kind carried alongside
// the message, while still supporting errors.Is/errors.As via Unwrap.
package tmferrors

import "fmt"

// Kind is one of the closed set of error kinds the engine produces.
type Kind string

const (
	NotFoundKind          Kind = "NotFound"
	UnauthorizedKind      Kind = "Unauthorized"
	InvalidStateKind      Kind = "InvalidState"
	InvalidInputKind      Kind = "InvalidInput"
	DuplicateAmendmentKind Kind = "DuplicateAmendment"
	ConflictKind          Kind = "Conflict"
	SignatureFailedKind   Kind = "SignatureFailed"
	StorageFailureKind    Kind = "StorageFailure"
)

// Error is the engine's error type: a Kind, the operation that
// produced it, a human-readable message, and an optional wrapped
// cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error

	// DuplicateOf carries the doc_id of the conflicting in-progress
	// amendment for DuplicateAmendmentKind errors (spec §4.6), so the
	// caller can surface it without a second lookup.
	DuplicateOf string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NotFound(op, format string, args ...any) *Error {
	return newf(NotFoundKind, op, format, args...)
}

func Unauthorized(op, format string, args ...any) *Error {
	return newf(UnauthorizedKind, op, format, args...)
}

func InvalidState(op, format string, args ...any) *Error {
	return newf(InvalidStateKind, op, format, args...)
}

func InvalidInput(op, format string, args ...any) *Error {
	return newf(InvalidInputKind, op, format, args...)
}

// DuplicateAmendment reports that an in-progress amendment of the same
// predecessor already exists; duplicateOf is that amendment's doc_id.
func DuplicateAmendment(op, duplicateOf string) *Error {
	e := newf(DuplicateAmendmentKind, op, "an in-progress amendment already exists: %s", duplicateOf)
	e.DuplicateOf = duplicateOf
	return e
}

func Conflict(op, format string, args ...any) *Error {
	return newf(ConflictKind, op, format, args...)
}

func SignatureFailed(op, format string, args ...any) *Error {
	return newf(SignatureFailedKind, op, format, args...)
}

func StorageFailure(op string, err error) *Error {
	return &Error{Kind: StorageFailureKind, Op: op, Message: "underlying store unavailable", Err: err}
}

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// KindOf extracts the Kind from err, if any, along with whether one
// was found.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return "", false
		}
		err = u.Unwrap()
	}
	return "", false
}

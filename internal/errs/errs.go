// Package errs holds the error kinds shared by repositories, services and the
// HTTP layer. Domain errors are *Error values that match their kind with
// errors.Is, so callers can branch on the kind without knowing every sentinel.
package errs

import "errors"

var (
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("unavailable")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Error is a classified error. Msg is safe to show to API clients.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

// New returns a classified sentinel.
func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}

	return e.Msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// Unavailable marks a storage or dependency failure.
func Unavailable(op string, err error) error {
	return &Error{Kind: ErrUnavailable, Msg: op, Err: err}
}

// KindOf returns the kind of err, or nil when err is not classified.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return nil
}

// Message returns the client-facing message of the outermost *Error in err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}

	return ""
}

package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by Forward. Match them with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrDomainNotAllowed = fmt.Errorf("%w: domain not allowed", ErrValidation)
	ErrTimeout          = errors.New("timeout error")
	ErrNetwork          = errors.New("network error")
)

// Error is a forwarding failure. Msg is safe to show to the caller.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

// Is reports whether target is the error's kind or one it derives from.
func (e *Error) Is(target error) bool { return errors.Is(e.Kind, target) }

func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string) *Error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

// outcome returns the metrics label for a Forward result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "network"
	}
}

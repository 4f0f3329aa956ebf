package inference

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the HTTP layer.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindUnavailable Kind = "unavailable"
	KindSynthesis   Kind = "synthesis"
	KindInternal    Kind = "internal"
	KindNotFound    Kind = "not_found"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("service unavailable")
	ErrSynthesis   = errors.New("speech synthesis failed")
	ErrInternal    = errors.New("internal error")
	ErrNotFound    = errors.New("not found")
)

var sentinels = map[Kind]error{
	KindValidation:  ErrValidation,
	KindUnavailable: ErrUnavailable,
	KindSynthesis:   ErrSynthesis,
	KindInternal:    ErrInternal,
	KindNotFound:    ErrNotFound,
}

// Error is returned by Service methods. Message is safe to show to callers;
// FallbackText is set for internal failures of Generate.
type Error struct {
	Kind         Kind
	Message      string
	FallbackText string
	Err          error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the kind's sentinel and the cause, so errors.Is works
// against either.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func internalError(message string, err error) *Error {
	return &Error{
		Kind:         KindInternal,
		Message:      "Internal server error",
		FallbackText: FallbackForError(message),
		Err:          err,
	}
}

package pipeline

import (
	"errors"
	"fmt"
)

type ErrorType int

const (
	ErrValidation ErrorType = iota
	ErrConfig
	ErrProvider
	ErrTimeout
	ErrIO
	ErrUnknown
)

func (t ErrorType) String() string {
	switch t {
	case ErrValidation:
		return "Validation"
	case ErrConfig:
		return "Config"
	case ErrProvider:
		return "Provider"
	case ErrTimeout:
		return "Timeout"
	case ErrIO:
		return "IO"
	default:
		return "Unknown"
	}
}

// Error is the normalized failure every stage raises. The runner is the
// single catch boundary and records Error() verbatim on the job record.
type Error struct {
	Stage   Stage
	Type    ErrorType
	Message string
	Cause   error
}

func NewError(stage Stage, errorType ErrorType, message string) *Error {
	return &Error{
		Stage:   stage,
		Type:    errorType,
		Message: message,
	}
}

func NewErrorWithCause(stage Stage, errorType ErrorType, message string, cause error) *Error {
	return &Error{
		Stage:   stage,
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s/%s] %s: %v", e.Stage, e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Stage, e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsType reports whether err is a pipeline Error of the given type.
func IsType(err error, errorType ErrorType) bool {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Type == errorType
	}
	return false
}

// StageOf returns the stage a pipeline error was raised in, or "" for
// foreign errors.
func StageOf(err error) Stage {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Stage
	}
	return ""
}

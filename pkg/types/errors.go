package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a goprolog error code.
type ErrorCode string

// Error codes grouped by the stage that raises them.
const (
	// P01xx: Parser/Syntax errors
	ErrQuotedNotClosed  ErrorCode = "P0101"
	ErrCommentNotClosed ErrorCode = "P0102"
	ErrUnexpectedToken  ErrorCode = "P0103"
	ErrUnexpectedEnd    ErrorCode = "P0104"
	ErrPriorityClash    ErrorCode = "P0105"
	ErrInvalidNumber    ErrorCode = "P0106"

	// C01xx: Compile errors
	ErrExpectingFunctor ErrorCode = "C0101"
	ErrInvalidHead      ErrorCode = "C0102"
	ErrRuleInQuestion   ErrorCode = "C0103"
	ErrInvalidToken     ErrorCode = "C0104"

	// D01xx: Database errors
	ErrFunctorNotFound          ErrorCode = "D0101"
	ErrFunctorClauseNotFound    ErrorCode = "D0102"
	ErrFunctorCodeNotFound      ErrorCode = "D0103"
	ErrAttemptToRedefineBuiltin ErrorCode = "D0104"
	ErrInvalidInsert            ErrorCode = "D0105"

	// M01xx: Machine/runtime errors
	ErrInvalidInstruction ErrorCode = "M0101"
	ErrNoMoreInstruction  ErrorCode = "M0102"
	ErrInternal           ErrorCode = "M0103"
	ErrExpectingVariable  ErrorCode = "M0104"
	ErrNotBound           ErrorCode = "M0105"
	ErrAlreadyBound       ErrorCode = "M0106"
	ErrExpectingNumber    ErrorCode = "M0107"
	ErrDivisionByZero     ErrorCode = "M0108"
	ErrNoQuestion         ErrorCode = "M0109"
	ErrStepLimit          ErrorCode = "M0110"
)

// Error represents a structured goprolog error.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates a new error. A negative position means "no source position".
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Errorf creates a new error without source position from a format string.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...), -1)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// IsCode reports whether err, or any error it wraps, is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

package core

import (
	"errors"
	"fmt"
)

// Error codes shared across the module. Codes are stable identifiers;
// messages are for humans and may change.
const (
	CodeDuplicateKey       = "DUPLICATE_KEY"
	CodeKeyNotFound        = "KEY_NOT_FOUND"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeTransactionActive  = "TRANSACTION_ACTIVE"
	CodeNoTransaction      = "NO_TRANSACTION"
	CodeNothingToUndo      = "NOTHING_TO_UNDO"
	CodeNothingToRedo      = "NOTHING_TO_REDO"
	CodeLinkCycle          = "LINK_CYCLE"
	CodeLinkNotFound       = "LINK_NOT_FOUND"
	CodeSnapshotNotFound   = "SNAPSHOT_NOT_FOUND"
	CodeContentUnavailable = "CONTENT_UNAVAILABLE"
)

// EngineError is the single error shape used across the module: a stable
// code, a human message and optional structured details. Every package
// reports failures through it instead of defining per-engine error types.
type EngineError struct {
	Code    string
	Message string
	Details map[string]any
}

// NewError constructs an EngineError with the given code and formatted message.
func NewError(code, format string, args ...any) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns the error with a detail attached. The receiver is
// mutated and returned for chaining during construction.
func (e *EngineError) WithDetail(key string, value any) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches two EngineErrors by code, so callers can compare against a
// bare code sentinel: errors.Is(err, &EngineError{Code: CodeDuplicateKey}).
func (e *EngineError) Is(target error) bool {
	var te *EngineError
	if !errors.As(target, &te) {
		return false
	}
	return e.Code == te.Code
}

// AsEngineError unwraps err into an *EngineError if possible.
func AsEngineError(err error) (*EngineError, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// HasCode reports whether err is (or wraps) an EngineError with the code.
func HasCode(err error, code string) bool {
	ee, ok := AsEngineError(err)
	return ok && ee.Code == code
}

// Result is an {ok, value, error} triple for callers that prefer inspecting
// an outcome value over handling a returned error.
type Result struct {
	OK    bool
	Value any
	Err   error
}

// OKResult wraps a value in a successful Result.
func OKResult(value any) Result {
	return Result{OK: true, Value: value}
}

// ErrResult wraps a failure in a Result.
func ErrResult(err error) Result {
	return Result{OK: false, Err: err}
}

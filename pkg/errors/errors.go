package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("entity not found")
	ErrDuplicateOperation = errors.New("operation already performed")
	ErrConsistency        = errors.New("inconsistent loan state")
	ErrLoanAlreadyExists  = errors.New("loan already exists for application")
	ErrStore              = errors.New("store operation failed")
)

// EngineError is a code-tagged error returned by the lending engine. Codes
// are stable and map onto user-facing behavior: validation and duplicate
// operation errors are correctable inline, consistency errors get an explicit
// retry action, store errors render as generic failures.
type EngineError struct {
	Code    string
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new engine error
func NewEngineError(code, message string, err error) *EngineError {
	return &EngineError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeDuplicateOperation = "DUPLICATE_OPERATION"
	ErrCodeConsistency        = "CONSISTENCY_ERROR"
	ErrCodeLoanAlreadyExists  = "LOAN_ALREADY_EXISTS"
	ErrCodeStore              = "STORE_ERROR"
)

// Wrap common errors with engine context

// WrapValidation names the offending field so the caller can render an
// inline correctable message.
func WrapValidation(field, reason string) *EngineError {
	return NewEngineError(
		ErrCodeValidation,
		fmt.Sprintf("invalid %s: %s", field, reason),
		ErrValidation,
	)
}

func WrapNotFound(entity, id string) *EngineError {
	return NewEngineError(
		ErrCodeNotFound,
		fmt.Sprintf("%s %s not found", entity, id),
		ErrNotFound,
	)
}

func WrapDuplicatePayment(paymentID string) *EngineError {
	return NewEngineError(
		ErrCodeDuplicateOperation,
		fmt.Sprintf("payment %s is already recorded as paid", paymentID),
		ErrDuplicateOperation,
	)
}

// WrapConsistency marks a loan persisted without its payment schedule so the
// caller can offer a retry of materialization instead of creating a
// duplicate loan.
func WrapConsistency(loanID string) *EngineError {
	return NewEngineError(
		ErrCodeConsistency,
		fmt.Sprintf("loan %s exists without a materialized payment schedule", loanID),
		ErrConsistency,
	)
}

func WrapLoanAlreadyExists(applicationID string) *EngineError {
	return NewEngineError(
		ErrCodeLoanAlreadyExists,
		fmt.Sprintf("application %s already has a loan", applicationID),
		ErrLoanAlreadyExists,
	)
}

// WrapStore attaches the attempted operation and entity id to a persistence
// failure; the cause is propagated, never swallowed.
func WrapStore(operation, entityID string, err error) *EngineError {
	return NewEngineError(
		ErrCodeStore,
		fmt.Sprintf("%s failed for %s", operation, entityID),
		fmt.Errorf("%w: %w", ErrStore, err),
	)
}

// CodeOf returns the engine error code for err, or STORE_ERROR when err is
// not an EngineError.
func CodeOf(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ErrCodeStore
}

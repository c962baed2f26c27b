package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the resource is in a state that does not allow the requested change.
var ErrConflict = errors.New("resource state conflict")

// ErrInternal is returned to callers when the failure is not theirs to fix.
var ErrInternal = errors.New("internal error")

// Reconciliation sentinels. The structured errors below unwrap to these.
var (
	ErrDuplicateImport         = errors.New("statement batch already imported")
	ErrAmountMismatch          = errors.New("selected movements do not add up to the statement line amount")
	ErrNotMatched              = errors.New("statement line has no active match")
	ErrAlreadyMatched          = errors.New("statement line or movement is already matched")
	ErrUnresolvedItems         = errors.New("period has unresolved statement lines")
	ErrMissingJustification    = errors.New("forced closing requires difference justifications")
	ErrConcurrentOperation     = errors.New("operation already in progress for this idempotency key")
	ErrInvalidStateTransition  = errors.New("invalid state transition")
	ErrPeriodNotOpen           = errors.New("reconciliation period is not open")
	ErrIdempotencyKeyReuse     = errors.New("idempotency key reused with a different request")
	ErrSuspenseAlreadyResolved = errors.New("suspense item is already resolved")
)

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an AppError. A 500 code without a cause unwraps to ErrInternal.
func NewAppError(code int, message string, err error) *AppError {
	if err == nil && code >= 500 {
		err = ErrInternal
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError returns an AppError that matches ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}

// DuplicateImportError is returned when a batch reference was already imported for a period.
type DuplicateImportError struct {
	PeriodID string
	BatchRef string
}

func (e *DuplicateImportError) Error() string {
	return fmt.Sprintf("batch %q already imported for period %s", e.BatchRef, e.PeriodID)
}

func (e *DuplicateImportError) Unwrap() error { return ErrDuplicateImport }

// AmountMismatchError reports the expected line amount and the sum that was offered.
type AmountMismatchError struct {
	LineID   string
	Expected string
	Actual   string
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("line %s amount %s does not equal selected movements total %s", e.LineID, e.Expected, e.Actual)
}

func (e *AmountMismatchError) Unwrap() error { return ErrAmountMismatch }

// NotMatchedError is returned by unmatch when the line has no active link.
type NotMatchedError struct {
	LineID string
}

func (e *NotMatchedError) Error() string {
	return fmt.Sprintf("statement line %s has no active match", e.LineID)
}

func (e *NotMatchedError) Unwrap() error { return ErrNotMatched }

// PendingCounts is the breakdown reported with every closing failure.
type PendingCounts struct {
	Pending      int `json:"pendingCount"`
	Unmatched    int `json:"unmatchedCount"`
	Suspense     int `json:"suspenseCount"`
	StillPending int `json:"stillPendingCount"`
	WrittenOff   int `json:"writtenOffCount"`
}

// UnresolvedItemsError is returned when closing without forceClose while items are pending.
type UnresolvedItemsError struct {
	PeriodID string
	Counts   PendingCounts
}

func (e *UnresolvedItemsError) Error() string {
	return fmt.Sprintf("period %s has %d pending statement lines", e.PeriodID, e.Counts.Pending)
}

func (e *UnresolvedItemsError) Unwrap() error { return ErrUnresolvedItems }

// MissingJustificationError is returned when a forced close carries no justifications.
type MissingJustificationError struct {
	PeriodID string
	Counts   PendingCounts
}

func (e *MissingJustificationError) Error() string {
	return fmt.Sprintf("period %s: forced closing with %d pending lines requires difference justifications", e.PeriodID, e.Counts.Pending)
}

func (e *MissingJustificationError) Unwrap() error { return ErrMissingJustification }

// ConcurrentOperationError is returned while another request holds the same idempotency key.
type ConcurrentOperationError struct {
	Scope     string
	Operation string
}

func (e *ConcurrentOperationError) Error() string {
	return fmt.Sprintf("%s on %s is already being processed", e.Operation, e.Scope)
}

func (e *ConcurrentOperationError) Unwrap() error { return ErrConcurrentOperation }

// InvalidStateTransitionError names the entity and the rejected transition.
type InvalidStateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

func (e *InvalidStateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// IsClientError returns true if the error is due to invalid client input or state.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAmountMismatch) ||
		errors.Is(err, ErrMissingJustification) ||
		errors.Is(err, ErrUnresolvedItems) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrDuplicateImport) ||
		errors.Is(err, ErrIdempotencyKeyReuse)
}

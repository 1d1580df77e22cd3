/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All sentinel errors in one place for consistency and discoverability.
  Domain packages wrap these with additional context.

ERROR CATEGORIES:
  1. Validation errors - bad ranges, bad ledgers, unknown types
  2. Conflict errors - overlaps, duplicate idempotency keys, stale state
  3. Lookup errors - missing employees or requests

USAGE:
  if errors.Is(err, generic.ErrInvalidRange) {
      // 400
  }

SEE ALSO:
  - leave/errors.go: Structured errors that unwrap to these
  - api/handlers.go: Maps categories to HTTP status codes
*/
package generic

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidRange is returned when a leave request ends before it starts.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrInvalidLedger is returned when an employee ledger cannot anchor an
	// accrual cycle (missing joining date, or joining after the request).
	ErrInvalidLedger = errors.New("invalid ledger")

	// ErrUnknownLeaveType is returned for a leave type the engine doesn't know.
	ErrUnknownLeaveType = errors.New("unknown leave type")

	// ErrDuplicateIdempotencyKey is returned when a request with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrOverlappingRequest is returned when a request covers a day already
	// covered by another active request of the same employee.
	ErrOverlappingRequest = errors.New("overlapping leave request")

	// ErrRequestNotActive is returned when cancelling a request that is
	// already canceled.
	ErrRequestNotActive = errors.New("request is not active")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRequestNotFound is returned when a referenced request doesn't exist.
	ErrRequestNotFound = errors.New("request not found")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidLedger) ||
		errors.Is(err, ErrUnknownLeaveType)
}

// IsConflict returns true if the error reports a clash with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey) ||
		errors.Is(err, ErrOverlappingRequest) ||
		errors.Is(err, ErrRequestNotActive)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrRequestNotFound)
}

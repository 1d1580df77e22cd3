/*
store.go - Persistence interface for the leave workflow

PURPOSE:
  Defines the interface between the request workflow and the database.
  The calculator itself never touches a Store; RequestService loads a
  Ledger from it, distributes, and writes the result back.

KEY INTERFACES:
  Store:   Employees, usage records, requests
  TxStore: Store + atomic multi-write (submit, cancel)

USAGE RECORDS:
  Usage is additive. AddUsage(kind, year, month, +3) after a submit and
  AddUsage(kind, year, month, -3) after a cancel. A record that doesn't
  exist yet starts at zero.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - store/memory/memory.go: In-memory for tests and the CLI

SEE ALSO:
  - request.go: The only writer
*/
package leave

import (
	"context"
	"time"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// EMPLOYEE / REQUEST RECORDS
// =============================================================================

// Employee holds the quotas a ledger is built from.
type Employee struct {
	ID                   generic.EntityID `json:"id"`
	Name                 string           `json:"name"`
	Email                string           `json:"email"`
	JoiningDate          time.Time        `json:"joining_date"`
	AnnualLeavesAllowed  int              `json:"annual_leaves_allowed"`
	MonthlyLeavesAllowed int              `json:"monthly_leaves_allowed"`
	CreatedAt            time.Time        `json:"created_at"`
}

// RequestStatus is the lifecycle state of a recorded request.
type RequestStatus string

const (
	StatusRecorded RequestStatus = "recorded"
	StatusCanceled RequestStatus = "canceled"
)

// Request is a submitted leave request and the allocation it was given.
type Request struct {
	ID             generic.RequestID
	EmployeeID     generic.EntityID
	Type           Type
	Period         generic.Period
	AllowAnnual    bool
	Status         RequestStatus
	Reason         string
	Days           []DayAllocation
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive reports whether the request still holds ledger usage.
func (r *Request) IsActive() bool { return r.Status == StatusRecorded }

// =============================================================================
// STORE
// =============================================================================

// Store persists employees, their usage records and their requests.
type Store interface {
	// GetEmployee returns generic.ErrEmployeeNotFound when missing.
	GetEmployee(ctx context.Context, id generic.EntityID) (*Employee, error)

	// LoadLedger assembles the employee's quotas and usage records.
	// Returns generic.ErrEmployeeNotFound when missing.
	LoadLedger(ctx context.Context, id generic.EntityID) (*Ledger, error)

	// AddUsage adds days (possibly negative) to one usage record.
	AddUsage(ctx context.Context, id generic.EntityID, u Usage) error

	// SaveRequest inserts a new request. Returns
	// generic.ErrDuplicateIdempotencyKey when the key is taken.
	SaveRequest(ctx context.Context, req Request) error

	// GetRequest returns generic.ErrRequestNotFound when missing.
	GetRequest(ctx context.Context, id generic.RequestID) (*Request, error)

	// ListRequests returns the employee's requests, oldest first.
	ListRequests(ctx context.Context, id generic.EntityID) ([]Request, error)

	// UpdateRequestStatus moves a request to a new status.
	UpdateRequestStatus(ctx context.Context, id generic.RequestID, status RequestStatus, at time.Time) error
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, everything fn wrote is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// Ledger builds the employee's ledger from stored usage records.
func (e *Employee) Ledger(annual, monthly []Record) *Ledger {
	return &Ledger{
		JoiningDate:          e.JoiningDate,
		AnnualLeavesAllowed:  e.AnnualLeavesAllowed,
		AnnualRecords:        annual,
		MonthlyLeavesAllowed: e.MonthlyLeavesAllowed,
		MonthlyRecords:       monthly,
	}
}

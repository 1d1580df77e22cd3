/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  leave package's domain types.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

DATES:
  Calendar dates are "YYYY-MM-DD". Leave start/end also accept RFC 3339
  timestamps; the calendar day of the timestamp is what counts.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	JoiningDate          string `json:"joining_date"`
	AnnualLeavesAllowed  int    `json:"annual_leaves_allowed"`
	MonthlyLeavesAllowed int    `json:"monthly_leaves_allowed"`
	CreatedAt            string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
// ID is generated when empty.
type CreateEmployeeRequest struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	JoiningDate          string `json:"joining_date"`
	AnnualLeavesAllowed  int    `json:"annual_leaves_allowed"`
	MonthlyLeavesAllowed int    `json:"monthly_leaves_allowed"`
}

func toEmployeeDTO(e leave.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:                   string(e.ID),
		Name:                 e.Name,
		Email:                e.Email,
		JoiningDate:          generic.DateOf(e.JoiningDate).String(),
		AnnualLeavesAllowed:  e.AnnualLeavesAllowed,
		MonthlyLeavesAllowed: e.MonthlyLeavesAllowed,
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// LEDGER / CYCLE
// =============================================================================

// LedgerDTO is an employee's quotas and usage records.
type LedgerDTO struct {
	EmployeeID           string         `json:"employee_id"`
	JoiningDate          string         `json:"joining_date"`
	AnnualLeavesAllowed  int            `json:"annual_leaves_allowed"`
	MonthlyLeavesAllowed int            `json:"monthly_leaves_allowed"`
	AnnualRecords        []leave.Record `json:"annual_records"`
	MonthlyRecords       []leave.Record `json:"monthly_records"`
}

func toLedgerDTO(id generic.EntityID, l *leave.Ledger) LedgerDTO {
	dto := LedgerDTO{
		EmployeeID:           string(id),
		JoiningDate:          generic.DateOf(l.JoiningDate).String(),
		AnnualLeavesAllowed:  l.AnnualLeavesAllowed,
		MonthlyLeavesAllowed: l.MonthlyLeavesAllowed,
		AnnualRecords:        l.AnnualRecords,
		MonthlyRecords:       l.MonthlyRecords,
	}
	if dto.AnnualRecords == nil {
		dto.AnnualRecords = []leave.Record{}
	}
	if dto.MonthlyRecords == nil {
		dto.MonthlyRecords = []leave.Record{}
	}
	return dto
}

// CycleDTO is the annual cycle and balance as of a date.
type CycleDTO struct {
	AsOf          string `json:"as_of"`
	StartYear     int    `json:"start_year"`
	StartMonth    int    `json:"start_month"`
	PeriodStart   string `json:"period_start"`
	PeriodEnd     string `json:"period_end"`
	MonthsElapsed int    `json:"months_elapsed"`
	Allowed       int    `json:"allowed"`
	Taken         int    `json:"taken"`
	Remaining     int    `json:"remaining"`
}

func toCycleDTO(asOf generic.Date, c leave.Cycle) CycleDTO {
	return CycleDTO{
		AsOf:          asOf.String(),
		StartYear:     c.StartYear,
		StartMonth:    int(c.StartMonth),
		PeriodStart:   c.Period.Start.String(),
		PeriodEnd:     c.Period.End.String(),
		MonthsElapsed: c.MonthsElapsed,
		Allowed:       c.Allowed,
		Taken:         c.Taken,
		Remaining:     c.Remaining(),
	}
}

// UsageAdjustmentRequest is a manual correction to one usage record.
type UsageAdjustmentRequest struct {
	Kind   string `json:"kind"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Days   int    `json:"days"`
	Reason string `json:"reason"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// LeaveRequestDTO is the body of preview and submit calls.
type LeaveRequestDTO struct {
	Type           string `json:"type"`
	Start          string `json:"start"`
	End            string `json:"end"`
	AllowAnnual    *bool  `json:"allow_annual,omitempty"`
	Reason         string `json:"reason,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// CancelRequestDTO is the optional body of a cancel call.
type CancelRequestDTO struct {
	Reason string `json:"reason"`
}

// PreviewResponse is the allocation a request would get, without recording it.
type PreviewResponse struct {
	Days    []leave.DayAllocation `json:"days"`
	Summary leave.Summary         `json:"summary"`
}

// RequestDTO represents a recorded request.
type RequestDTO struct {
	ID             string                `json:"id"`
	EmployeeID     string                `json:"employee_id"`
	Type           string                `json:"type"`
	Start          string                `json:"start"`
	End            string                `json:"end"`
	AllowAnnual    bool                  `json:"allow_annual"`
	Status         string                `json:"status"`
	Reason         string                `json:"reason,omitempty"`
	IdempotencyKey string                `json:"idempotency_key,omitempty"`
	Days           []leave.DayAllocation `json:"days"`
	Summary        leave.Summary         `json:"summary"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
}

func toRequestDTO(r leave.Request) RequestDTO {
	return RequestDTO{
		ID:             string(r.ID),
		EmployeeID:     string(r.EmployeeID),
		Type:           string(r.Type),
		Start:          r.Period.Start.String(),
		End:            r.Period.End.String(),
		AllowAnnual:    r.AllowAnnual,
		Status:         string(r.Status),
		Reason:         r.Reason,
		IdempotencyKey: r.IdempotencyKey,
		Days:           r.Days,
		Summary:        leave.Summarize(r.Days),
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes leave distribution via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to leave.RequestService.

ENDPOINTS:
  Employees:
    GET    /api/employees                       List all employees
    POST   /api/employees                       Create employee
    GET    /api/employees/{id}                  Get employee details
    GET    /api/employees/{id}/ledger           Quotas and usage records
    GET    /api/employees/{id}/cycle?as_of=     Annual cycle and balance
    POST   /api/employees/{id}/usage            Manual usage correction

  Leave:
    POST   /api/employees/{id}/leave/preview    Distribute without recording
    POST   /api/employees/{id}/leave/requests   Distribute and record
    GET    /api/employees/{id}/leave/requests   Request history
    GET    /api/requests/{id}                   One request
    POST   /api/requests/{id}/cancel            Cancel and give usage back
    GET    /api/requests/{id}/export            Allocation as .xlsx

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (overlap, idempotency, already canceled)
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/leave-engine/export"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// EmployeeStore manages the employee directory.
type EmployeeStore interface {
	SaveEmployee(ctx context.Context, e leave.Employee) error
	GetEmployee(ctx context.Context, id generic.EntityID) (*leave.Employee, error)
	ListEmployees(ctx context.Context) ([]leave.Employee, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Employees EmployeeStore
	Leave     *leave.RequestService

	// Today is the default as_of for cycle lookups.
	Today func() generic.Date
}

// NewHandler creates a new handler.
func NewHandler(employees EmployeeStore, svc *leave.RequestService) *Handler {
	return &Handler{
		Employees: employees,
		Leave:     svc,
		Today:     generic.Today,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates a new employee.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	joining, err := generic.ParseDate(req.JoiningDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid joining_date", err)
		return
	}
	if req.AnnualLeavesAllowed < 0 || req.MonthlyLeavesAllowed < 0 {
		writeError(w, http.StatusBadRequest, "Leave quotas cannot be negative", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	emp := leave.Employee{
		ID:                   generic.EntityID(req.ID),
		Name:                 req.Name,
		Email:                req.Email,
		JoiningDate:          joining.Time(),
		AnnualLeavesAllowed:  req.AnnualLeavesAllowed,
		MonthlyLeavesAllowed: req.MonthlyLeavesAllowed,
	}
	if err := h.Employees.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}

	saved, err := h.Employees.GetEmployee(r.Context(), emp.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*saved))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Employees.GetEmployee(r.Context(), employeeID(r))
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// GetLedger returns the employee's quotas and usage records.
// GET /api/employees/{id}/ledger
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	id := employeeID(r)
	ledger, err := h.Leave.Ledger(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerDTO(id, ledger))
}

// GetCycle returns the annual cycle and balance.
// GET /api/employees/{id}/cycle?as_of=2024-03-10
func (h *Handler) GetCycle(w http.ResponseWriter, r *http.Request) {
	asOf := h.Today()
	if s := r.URL.Query().Get("as_of"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of", err)
			return
		}
		asOf = d
	}

	cycle, err := h.Leave.Cycle(r.Context(), employeeID(r), asOf)
	if err != nil {
		writeDomainError(w, "Failed to compute cycle", err)
		return
	}
	writeJSON(w, http.StatusOK, toCycleDTO(asOf, cycle))
}

// AdjustUsage applies a manual correction to one usage record.
// POST /api/employees/{id}/usage
func (h *Handler) AdjustUsage(w http.ResponseWriter, r *http.Request) {
	var req UsageAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Days == 0 {
		writeError(w, http.StatusBadRequest, "days must be non-zero", nil)
		return
	}

	id := employeeID(r)
	u := leave.Usage{
		Kind:  leave.RecordKind(req.Kind),
		Year:  req.Year,
		Month: time.Month(req.Month),
		Days:  req.Days,
	}
	if err := h.Leave.Adjust(r.Context(), id, u, req.Reason); err != nil {
		writeDomainError(w, "Failed to adjust usage", err)
		return
	}

	ledger, err := h.Leave.Ledger(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerDTO(id, ledger))
}

// =============================================================================
// LEAVE REQUEST HANDLERS
// =============================================================================

// PreviewLeave distributes a request without recording it.
// POST /api/employees/{id}/leave/preview
func (h *Handler) PreviewLeave(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in, err := req.previewInput()
	if err != nil {
		writeDomainError(w, "Invalid leave request", err)
		return
	}

	days, err := h.Leave.Preview(r.Context(), employeeID(r), in)
	if err != nil {
		writeDomainError(w, "Failed to distribute leave", err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{Days: days, Summary: leave.Summarize(days)})
}

// SubmitLeave distributes and records a request.
// POST /api/employees/{id}/leave/requests
//
// The idempotency key may come from the body or the Idempotency-Key header.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in, err := req.previewInput()
	if err != nil {
		writeDomainError(w, "Invalid leave request", err)
		return
	}

	key := req.IdempotencyKey
	if key == "" {
		key = r.Header.Get("Idempotency-Key")
	}

	recorded, err := h.Leave.Submit(r.Context(), employeeID(r), leave.SubmitInput{
		PreviewInput:   in,
		Reason:         req.Reason,
		IdempotencyKey: key,
	})
	if err != nil {
		writeDomainError(w, "Failed to record leave", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(*recorded))
}

// ListLeaveRequests returns the employee's requests, oldest first.
func (h *Handler) ListLeaveRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Leave.Requests(r.Context(), employeeID(r))
	if err != nil {
		writeDomainError(w, "Failed to list requests", err)
		return
	}

	dtos := make([]RequestDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = toRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLeaveRequest returns one request.
func (h *Handler) GetLeaveRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Leave.Request(r.Context(), requestID(r))
	if err != nil {
		writeDomainError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// CancelLeaveRequest cancels a request and gives its usage back.
// POST /api/requests/{id}/cancel
func (h *Handler) CancelLeaveRequest(w http.ResponseWriter, r *http.Request) {
	var body CancelRequestDTO
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	req, err := h.Leave.Cancel(r.Context(), requestID(r), body.Reason)
	if err != nil {
		writeDomainError(w, "Failed to cancel request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// ExportLeaveRequest downloads the request's allocation as a spreadsheet.
// GET /api/requests/{id}/export
func (h *Handler) ExportLeaveRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Leave.Request(r.Context(), requestID(r))
	if err != nil {
		writeDomainError(w, "Failed to get request", err)
		return
	}

	// Buffer so a failed render can still produce a JSON error.
	var buf bytes.Buffer
	if err := export.WriteRequest(&buf, req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export request", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leave-%s.xlsx"`, req.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeID(r *http.Request) generic.EntityID {
	return generic.EntityID(chi.URLParam(r, "id"))
}

func requestID(r *http.Request) generic.RequestID {
	return generic.RequestID(chi.URLParam(r, "id"))
}

// previewInput validates the wire fields. Range and ledger rules are left
// to the calculator so every caller gets the same errors.
func (req LeaveRequestDTO) previewInput() (leave.PreviewInput, error) {
	typ, err := leave.ParseType(req.Type)
	if err != nil {
		return leave.PreviewInput{}, err
	}
	start, err := parseInstant("start", req.Start)
	if err != nil {
		return leave.PreviewInput{}, err
	}
	end, err := parseInstant("end", req.End)
	if err != nil {
		return leave.PreviewInput{}, err
	}
	return leave.PreviewInput{Type: typ, Start: start, End: end, AllowAnnual: req.AllowAnnual}, nil
}

// parseInstant accepts YYYY-MM-DD or RFC 3339. Timestamps keep their time of
// day so that identical instants are recognized as a single day.
func parseInstant(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", generic.ErrInvalidRange, field)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", generic.ErrInvalidRange, field, err)
	}
	return d.Time(), nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the generic error categories onto status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// REQUEST SERVICE - Handles request lifecycle with transactional guarantees
// =============================================================================

// RequestService previews, records and cancels leave requests.
type RequestService struct {
	Store      TxStore
	Calculator *Calculator
	Logger     *slog.Logger

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() generic.RequestID
}

// NewRequestService wires a service with the default clock and UUID ids.
func NewRequestService(store TxStore, calc *Calculator, logger *slog.Logger) *RequestService {
	if calc == nil {
		calc = NewCalculator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestService{
		Store:      store,
		Calculator: calc,
		Logger:     logger,
		Now:        func() time.Time { return time.Now().UTC() },
		NewID:      func() generic.RequestID { return generic.RequestID(uuid.NewString()) },
	}
}

// PreviewInput is a request to be distributed but not recorded.
type PreviewInput struct {
	Type        Type
	Start       time.Time
	End         time.Time
	AllowAnnual *bool
}

// SubmitInput is a request to be recorded.
type SubmitInput struct {
	PreviewInput
	Reason         string
	IdempotencyKey string
}

// =============================================================================
// PREVIEW - No side effects
// =============================================================================

// Preview distributes a request against the employee's current ledger.
func (rs *RequestService) Preview(ctx context.Context, employeeID generic.EntityID, in PreviewInput) ([]DayAllocation, error) {
	ledger, err := rs.Store.LoadLedger(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return rs.Calculator.Distribute(in.input(ledger))
}

func (in PreviewInput) input(ledger *Ledger) Input {
	return Input{
		Type:        in.Type,
		Start:       in.Start,
		End:         in.End,
		Ledger:      ledger,
		AllowAnnual: in.AllowAnnual,
	}
}

// =============================================================================
// SUBMIT - The critical transactional operation
// =============================================================================

// Submit records a leave request.
// This is TRANSACTIONAL:
//   - Rejects days already covered by another active request
//   - Distributes against the ledger as it is inside the transaction
//   - Saves the request with its allocation
//   - Adds the allocation's usage to the monthly/annual records
//
// If ANY step fails, ALL changes are rolled back.
func (rs *RequestService) Submit(ctx context.Context, employeeID generic.EntityID, in SubmitInput) (*Request, error) {
	var recorded *Request

	err := rs.Store.WithTx(ctx, func(tx Store) error {
		ledger, err := tx.LoadLedger(ctx, employeeID)
		if err != nil {
			return err
		}

		days, err := rs.Calculator.Distribute(in.input(ledger))
		if err != nil {
			return err
		}
		period := generic.Period{Start: days[0].Date, End: days[len(days)-1].Date}

		if err := checkOverlap(ctx, tx, employeeID, period); err != nil {
			return err
		}

		now := rs.Now()
		req := Request{
			ID:             rs.NewID(),
			EmployeeID:     employeeID,
			Type:           in.Type,
			Period:         period,
			AllowAnnual:    in.allowAnnual(),
			Status:         StatusRecorded,
			Reason:         in.Reason,
			Days:           days,
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.SaveRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to save request: %w", err)
		}

		for _, u := range Summarize(days).Usage {
			if err := tx.AddUsage(ctx, employeeID, u); err != nil {
				return fmt.Errorf("failed to record usage: %w", err)
			}
		}

		recorded = &req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s := Summarize(recorded.Days)
	rs.Logger.InfoContext(ctx, "leave request recorded",
		slog.String("request_id", string(recorded.ID)),
		slog.String("employee_id", string(employeeID)),
		slog.String("type", string(recorded.Type)),
		slog.String("period", recorded.Period.String()),
		slog.Int("paid", s.PaidDays),
		slog.Int("annual", s.AnnualDays),
		slog.Int("unpaid", s.UnpaidDays),
	)
	return recorded, nil
}

func (in SubmitInput) allowAnnual() bool {
	return in.AllowAnnual == nil || *in.AllowAnnual
}

// checkOverlap enforces that an employee is never on leave twice for the
// same day.
func checkOverlap(ctx context.Context, tx Store, employeeID generic.EntityID, period generic.Period) error {
	existing, err := tx.ListRequests(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}
	for _, r := range existing {
		if !r.IsActive() || !r.Period.Overlaps(period) {
			continue
		}
		day := period.Start
		if r.Period.Start.After(day) {
			day = r.Period.Start
		}
		return &OverlapError{EmployeeID: employeeID, Date: day, ExistingID: r.ID}
	}
	return nil
}

// =============================================================================
// CANCEL - Gives the usage back
// =============================================================================

// Cancel cancels a recorded request and subtracts its usage from the ledger.
// The allocation is kept on the request for audit.
func (rs *RequestService) Cancel(ctx context.Context, id generic.RequestID, reason string) (*Request, error) {
	var canceled *Request

	err := rs.Store.WithTx(ctx, func(tx Store) error {
		req, err := tx.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if !req.IsActive() {
			return fmt.Errorf("%w: %s is %s", generic.ErrRequestNotActive, id, req.Status)
		}

		for _, u := range Summarize(req.Days).Usage {
			u.Days = -u.Days
			if err := tx.AddUsage(ctx, req.EmployeeID, u); err != nil {
				return fmt.Errorf("failed to reverse usage: %w", err)
			}
		}

		now := rs.Now()
		if err := tx.UpdateRequestStatus(ctx, id, StatusCanceled, now); err != nil {
			return fmt.Errorf("failed to cancel request: %w", err)
		}
		req.Status = StatusCanceled
		req.UpdatedAt = now
		canceled = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	rs.Logger.InfoContext(ctx, "leave request canceled",
		slog.String("request_id", string(id)),
		slog.String("employee_id", string(canceled.EmployeeID)),
		slog.String("reason", reason),
	)
	return canceled, nil
}

// =============================================================================
// READ MODELS
// =============================================================================

// Ledger returns the employee's ledger as stored.
func (rs *RequestService) Ledger(ctx context.Context, employeeID generic.EntityID) (*Ledger, error) {
	return rs.Store.LoadLedger(ctx, employeeID)
}

// Cycle returns the employee's annual cycle and balance as of asOf.
func (rs *RequestService) Cycle(ctx context.Context, employeeID generic.EntityID, asOf generic.Date) (Cycle, error) {
	ledger, err := rs.Store.LoadLedger(ctx, employeeID)
	if err != nil {
		return Cycle{}, err
	}
	return rs.Calculator.Cycle(ledger, asOf)
}

// Requests lists the employee's requests, oldest first.
func (rs *RequestService) Requests(ctx context.Context, employeeID generic.EntityID) ([]Request, error) {
	if _, err := rs.Store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return rs.Store.ListRequests(ctx, employeeID)
}

// Request returns one request.
func (rs *RequestService) Request(ctx context.Context, id generic.RequestID) (*Request, error) {
	return rs.Store.GetRequest(ctx, id)
}

// Adjust applies a manual usage correction (positive or negative).
func (rs *RequestService) Adjust(ctx context.Context, employeeID generic.EntityID, u Usage, reason string) error {
	if u.Kind != KindMonthly && u.Kind != KindAnnual {
		return fmt.Errorf("%w: unknown record kind %q", generic.ErrInvalidLedger, u.Kind)
	}
	if u.Month < time.January || u.Month > time.December {
		return fmt.Errorf("%w: month %d out of range", generic.ErrInvalidLedger, u.Month)
	}
	err := rs.Store.WithTx(ctx, func(tx Store) error {
		if _, err := tx.GetEmployee(ctx, employeeID); err != nil {
			return err
		}
		return tx.AddUsage(ctx, employeeID, u)
	})
	if err != nil {
		return err
	}
	rs.Logger.InfoContext(ctx, "leave usage adjusted",
		slog.String("employee_id", string(employeeID)),
		slog.String("kind", string(u.Kind)),
		slog.Int("year", u.Year),
		slog.Int("month", int(u.Month)),
		slog.Int("days", u.Days),
		slog.String("reason", reason),
	)
	return nil
}

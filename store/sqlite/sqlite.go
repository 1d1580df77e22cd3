/*
Package sqlite provides a SQLite-backed implementation of leave.TxStore.

PURPOSE:
  Persists employees, their monthly/annual usage records and recorded leave
  requests. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  employees:       Joining date and quotas (the static half of a ledger)
  leave_usage:     Paid usage per (employee, kind, year, month)
  leave_requests:  Recorded requests with their per-day allocation (JSON)

USAGE IS ADDITIVE:
  leave_usage rows are upserted with paid_leaves = paid_leaves + delta.
  Submitting and cancelling the same request leaves the row at its
  original value.

INDEXES:
  - idx_usage_unique: one row per (employee, kind, year, month)
  - idx_requests_employee: request listing (hot path for overlap checks)
  - idx_requests_idempotency: rejects replayed submissions

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole transaction, so overlap checks and usage updates are serialised.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - leave/store.go: The interfaces implemented here
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// Store implements leave.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ leave.TxStore = (*Store)(nil)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		joining_date TEXT NOT NULL,
		annual_leaves_allowed INTEGER NOT NULL DEFAULT 0,
		monthly_leaves_allowed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_usage (
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		kind TEXT NOT NULL CHECK (kind IN ('monthly', 'annual')),
		year INTEGER NOT NULL,
		month INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
		paid_leaves INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_usage_unique
		ON leave_usage(employee_id, kind, year, month);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		allow_annual BOOLEAN NOT NULL DEFAULT TRUE,
		status TEXT NOT NULL,
		reason TEXT,
		allocation_json TEXT NOT NULL,
		idempotency_key TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON leave_requests(employee_id, start_date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_idempotency
		ON leave_requests(idempotency_key) WHERE idempotency_key IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee creates or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, e leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees
		(id, name, email, joining_date, annual_leaves_allowed, monthly_leaves_allowed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			joining_date = excluded.joining_date,
			annual_leaves_allowed = excluded.annual_leaves_allowed,
			monthly_leaves_allowed = excluded.monthly_leaves_allowed
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Name, e.Email,
		e.JoiningDate.Format(generic.DateLayout),
		e.AnnualLeavesAllowed,
		e.MonthlyLeavesAllowed,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id generic.EntityID) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, id)
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, employeeSelect+" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

const employeeSelect = `
	SELECT id, name, email, joining_date, annual_leaves_allowed, monthly_leaves_allowed, created_at
	FROM employees`

func getEmployee(ctx context.Context, db dbtx, id generic.EntityID) (*leave.Employee, error) {
	rows, err := db.QueryContext(ctx, employeeSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, generic.ErrEmployeeNotFound
	}
	return scanEmployee(rows)
}

func scanEmployee(rows *sql.Rows) (*leave.Employee, error) {
	var e leave.Employee
	var email sql.NullString
	var joining, createdAt string
	if err := rows.Scan(&e.ID, &e.Name, &email, &joining,
		&e.AnnualLeavesAllowed, &e.MonthlyLeavesAllowed, &createdAt); err != nil {
		return nil, err
	}
	e.Email = email.String
	e.JoiningDate, _ = time.Parse(generic.DateLayout, joining)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

// =============================================================================
// LEDGER
// =============================================================================

// LoadLedger assembles an employee's ledger.
func (s *Store) LoadLedger(ctx context.Context, id generic.EntityID) (*leave.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadLedger(ctx, s.db, id)
}

func loadLedger(ctx context.Context, db dbtx, id generic.EntityID) (*leave.Ledger, error) {
	emp, err := getEmployee(ctx, db, id)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT kind, year, month, paid_leaves
		FROM leave_usage
		WHERE employee_id = ? AND paid_leaves != 0
		ORDER BY year ASC, month ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}
	defer rows.Close()

	var annual, monthly []leave.Record
	for rows.Next() {
		var kind string
		var r leave.Record
		if err := rows.Scan(&kind, &r.Year, &r.Month, &r.PaidLeaves); err != nil {
			return nil, err
		}
		if leave.RecordKind(kind) == leave.KindAnnual {
			annual = append(annual, r)
		} else {
			monthly = append(monthly, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return emp.Ledger(annual, monthly), nil
}

// AddUsage adds days to one usage record, creating it at zero if needed.
func (s *Store) AddUsage(ctx context.Context, id generic.EntityID, u leave.Usage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addUsage(ctx, s.db, id, u)
}

func addUsage(ctx context.Context, db dbtx, id generic.EntityID, u leave.Usage) error {
	query := `
		INSERT INTO leave_usage (employee_id, kind, year, month, paid_leaves, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, kind, year, month) DO UPDATE SET
			paid_leaves = paid_leaves + excluded.paid_leaves,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query,
		id, string(u.Kind), u.Year, int(u.Month), u.Days,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to add usage: %w", err)
	}
	return nil
}

// =============================================================================
// REQUESTS
// =============================================================================

// SaveRequest inserts a recorded request.
func (s *Store) SaveRequest(ctx context.Context, req leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRequest(ctx, s.db, req)
}

func saveRequest(ctx context.Context, db dbtx, req leave.Request) error {
	allocationJSON, err := json.Marshal(req.Days)
	if err != nil {
		return fmt.Errorf("failed to encode allocation: %w", err)
	}

	query := `
		INSERT INTO leave_requests
		(id, employee_id, leave_type, start_date, end_date, allow_annual, status,
		 reason, allocation_json, idempotency_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.ExecContext(ctx, query,
		req.ID,
		req.EmployeeID,
		string(req.Type),
		req.Period.Start.String(),
		req.Period.End.String(),
		req.AllowAnnual,
		string(req.Status),
		req.Reason,
		string(allocationJSON),
		nullString(req.IdempotencyKey),
		req.CreatedAt.UTC().Format(time.RFC3339Nano),
		req.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

const requestSelect = `
	SELECT id, employee_id, leave_type, start_date, end_date, allow_annual, status,
	       reason, allocation_json, idempotency_key, created_at, updated_at
	FROM leave_requests`

// GetRequest retrieves a request by ID.
func (s *Store) GetRequest(ctx context.Context, id generic.RequestID) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, db dbtx, id generic.RequestID) (*leave.Request, error) {
	reqs, err := queryRequests(ctx, db, requestSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, generic.ErrRequestNotFound
	}
	return &reqs[0], nil
}

// ListRequests returns an employee's requests, oldest first.
func (s *Store) ListRequests(ctx context.Context, id generic.EntityID) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequests(ctx, s.db, id)
}

func listRequests(ctx context.Context, db dbtx, id generic.EntityID) ([]leave.Request, error) {
	return queryRequests(ctx, db,
		requestSelect+" WHERE employee_id = ? ORDER BY created_at ASC, id ASC", id)
}

// UpdateRequestStatus moves a request to a new status.
func (s *Store) UpdateRequestStatus(ctx context.Context, id generic.RequestID, status leave.RequestStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateRequestStatus(ctx, s.db, id, status, at)
}

func updateRequestStatus(ctx context.Context, db dbtx, id generic.RequestID, status leave.RequestStatus, at time.Time) error {
	res, err := db.ExecContext(ctx,
		"UPDATE leave_requests SET status = ?, updated_at = ? WHERE id = ?",
		string(status), at.UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrRequestNotFound
	}
	return nil
}

func queryRequests(ctx context.Context, db dbtx, query string, args ...any) ([]leave.Request, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []leave.Request
	for rows.Next() {
		var r leave.Request
		var leaveType, start, end, status, allocationJSON, createdAt, updatedAt string
		var reason, idempotencyKey sql.NullString

		if err := rows.Scan(&r.ID, &r.EmployeeID, &leaveType, &start, &end, &r.AllowAnnual,
			&status, &reason, &allocationJSON, &idempotencyKey, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		r.Type = leave.Type(leaveType)
		r.Status = leave.RequestStatus(status)
		r.Reason = reason.String
		r.IdempotencyKey = idempotencyKey.String
		r.Period.Start, _ = generic.ParseDate(start)
		r.Period.End, _ = generic.ParseDate(end)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		if err := json.Unmarshal([]byte(allocationJSON), &r.Days); err != nil {
			return nil, fmt.Errorf("failed to decode allocation for %s: %w", r.ID, err)
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (leave.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore implements leave.Store within a transaction. It doesn't take the
// store mutex; WithTx already holds it.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetEmployee(ctx context.Context, id generic.EntityID) (*leave.Employee, error) {
	return getEmployee(ctx, ts.tx, id)
}

func (ts *txStore) LoadLedger(ctx context.Context, id generic.EntityID) (*leave.Ledger, error) {
	return loadLedger(ctx, ts.tx, id)
}

func (ts *txStore) AddUsage(ctx context.Context, id generic.EntityID, u leave.Usage) error {
	return addUsage(ctx, ts.tx, id, u)
}

func (ts *txStore) SaveRequest(ctx context.Context, req leave.Request) error {
	return saveRequest(ctx, ts.tx, req)
}

func (ts *txStore) GetRequest(ctx context.Context, id generic.RequestID) (*leave.Request, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) ListRequests(ctx context.Context, id generic.EntityID) ([]leave.Request, error) {
	return listRequests(ctx, ts.tx, id)
}

func (ts *txStore) UpdateRequestStatus(ctx context.Context, id generic.RequestID, status leave.RequestStatus, at time.Time) error {
	return updateRequestStatus(ctx, ts.tx, id, status, at)
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset removes all data. For demos and tests only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"leave_requests", "leave_usage", "employees"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

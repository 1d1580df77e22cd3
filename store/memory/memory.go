// Package memory provides an in-memory leave.TxStore.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	state state
}

type state struct {
	employees   map[generic.EntityID]leave.Employee
	usage       map[usageKey]int
	requests    map[generic.RequestID]leave.Request
	idempotency map[string]bool
}

type usageKey struct {
	EntityID generic.EntityID
	Kind     leave.RecordKind
	Year     int
	Month    time.Month
}

var _ leave.TxStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{state: state{
		employees:   make(map[generic.EntityID]leave.Employee),
		usage:       make(map[usageKey]int),
		requests:    make(map[generic.RequestID]leave.Request),
		idempotency: make(map[string]bool),
	}}
}

// SaveEmployee creates or replaces an employee.
func (m *Memory) SaveEmployee(_ context.Context, e leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.state.employees[e.ID]; ok {
		e.CreatedAt = existing.CreatedAt
	} else if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.state.employees[e.ID] = e
	return nil
}

// ListEmployees returns all employees ordered by name.
func (m *Memory) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]leave.Employee, 0, len(m.state.employees))
	for _, e := range m.state.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) GetEmployee(_ context.Context, id generic.EntityID) (*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.getEmployee(id)
}

func (m *Memory) LoadLedger(_ context.Context, id generic.EntityID) (*leave.Ledger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.loadLedger(id)
}

func (m *Memory) AddUsage(_ context.Context, id generic.EntityID, u leave.Usage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.addUsage(id, u)
	return nil
}

func (m *Memory) SaveRequest(_ context.Context, req leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.saveRequest(req)
}

func (m *Memory) GetRequest(_ context.Context, id generic.RequestID) (*leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.getRequest(id)
}

func (m *Memory) ListRequests(_ context.Context, id generic.EntityID) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.listRequests(id), nil
}

func (m *Memory) UpdateRequestStatus(_ context.Context, id generic.RequestID, status leave.RequestStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.updateStatus(id, status, at)
}

// WithTx runs fn against a copy of the state and swaps it in on success.
// The store lock is held for the whole call, so transactions are serial.
func (m *Memory) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &txStore{state: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

// =============================================================================
// STATE - Shared by the store and its transactions
// =============================================================================

func (s *state) clone() state {
	c := state{
		employees:   make(map[generic.EntityID]leave.Employee, len(s.employees)),
		usage:       make(map[usageKey]int, len(s.usage)),
		requests:    make(map[generic.RequestID]leave.Request, len(s.requests)),
		idempotency: make(map[string]bool, len(s.idempotency)),
	}
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.usage {
		c.usage[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.idempotency {
		c.idempotency[k] = v
	}
	return c
}

func (s *state) getEmployee(id generic.EntityID) (*leave.Employee, error) {
	e, ok := s.employees[id]
	if !ok {
		return nil, generic.ErrEmployeeNotFound
	}
	return &e, nil
}

func (s *state) loadLedger(id generic.EntityID) (*leave.Ledger, error) {
	e, err := s.getEmployee(id)
	if err != nil {
		return nil, err
	}
	var annual, monthly []leave.Record
	for k, days := range s.usage {
		if k.EntityID != id || days == 0 {
			continue
		}
		r := leave.Record{Year: k.Year, Month: k.Month, PaidLeaves: days}
		if k.Kind == leave.KindAnnual {
			annual = append(annual, r)
		} else {
			monthly = append(monthly, r)
		}
	}
	sortRecords(annual)
	sortRecords(monthly)
	return e.Ledger(annual, monthly), nil
}

func sortRecords(rs []leave.Record) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Year != rs[j].Year {
			return rs[i].Year < rs[j].Year
		}
		return rs[i].Month < rs[j].Month
	})
}

func (s *state) addUsage(id generic.EntityID, u leave.Usage) {
	k := usageKey{EntityID: id, Kind: u.Kind, Year: u.Year, Month: u.Month}
	s.usage[k] += u.Days
}

func (s *state) saveRequest(req leave.Request) error {
	if req.IdempotencyKey != "" && s.idempotency[req.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}
	req.Days = append([]leave.DayAllocation(nil), req.Days...)
	s.requests[req.ID] = req
	if req.IdempotencyKey != "" {
		s.idempotency[req.IdempotencyKey] = true
	}
	return nil
}

func (s *state) getRequest(id generic.RequestID) (*leave.Request, error) {
	r, ok := s.requests[id]
	if !ok {
		return nil, generic.ErrRequestNotFound
	}
	r.Days = append([]leave.DayAllocation(nil), r.Days...)
	return &r, nil
}

func (s *state) listRequests(id generic.EntityID) []leave.Request {
	var out []leave.Request
	for _, r := range s.requests {
		if r.EmployeeID == id {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *state) updateStatus(id generic.RequestID, status leave.RequestStatus, at time.Time) error {
	r, ok := s.requests[id]
	if !ok {
		return generic.ErrRequestNotFound
	}
	r.Status = status
	r.UpdatedAt = at
	s.requests[id] = r
	return nil
}

// =============================================================================
// TX STORE - Store view over a transaction's private state
// =============================================================================

type txStore struct {
	state state
}

func (ts *txStore) GetEmployee(_ context.Context, id generic.EntityID) (*leave.Employee, error) {
	return ts.state.getEmployee(id)
}

func (ts *txStore) LoadLedger(_ context.Context, id generic.EntityID) (*leave.Ledger, error) {
	return ts.state.loadLedger(id)
}

func (ts *txStore) AddUsage(_ context.Context, id generic.EntityID, u leave.Usage) error {
	ts.state.addUsage(id, u)
	return nil
}

func (ts *txStore) SaveRequest(_ context.Context, req leave.Request) error {
	return ts.state.saveRequest(req)
}

func (ts *txStore) GetRequest(_ context.Context, id generic.RequestID) (*leave.Request, error) {
	return ts.state.getRequest(id)
}

func (ts *txStore) ListRequests(_ context.Context, id generic.EntityID) ([]leave.Request, error) {
	return ts.state.listRequests(id), nil
}

func (ts *txStore) UpdateRequestStatus(_ context.Context, id generic.RequestID, status leave.RequestStatus, at time.Time) error {
	return ts.state.updateStatus(id, status, at)
}

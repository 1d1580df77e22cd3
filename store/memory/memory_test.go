package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/memory"
)

func newTestStore(t *testing.T) *memory.Memory {
	t.Helper()
	store := memory.NewMemory()
	require.NoError(t, store.SaveEmployee(context.Background(), leave.Employee{
		ID:          "emp-1",
		Name:        "Alice",
		JoiningDate: time.Date(2023, time.July, 20, 0, 0, 0, 0, time.UTC),
	}))
	return store
}

func TestLoadLedger_SortsAndSkipsZero(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, u := range []leave.Usage{
		{Kind: leave.KindMonthly, Year: 2024, Month: time.March, Days: 1},
		{Kind: leave.KindMonthly, Year: 2023, Month: time.November, Days: 2},
		{Kind: leave.KindAnnual, Year: 2024, Month: time.January, Days: 1},
		{Kind: leave.KindAnnual, Year: 2024, Month: time.January, Days: -1},
	} {
		require.NoError(t, store.AddUsage(ctx, "emp-1", u))
	}

	ledger, err := store.LoadLedger(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, []leave.Record{
		{Year: 2023, Month: time.November, PaidLeaves: 2},
		{Year: 2024, Month: time.March, PaidLeaves: 1},
	}, ledger.MonthlyRecords)
	assert.Empty(t, ledger.AnnualRecords)

	_, err = store.LoadLedger(ctx, "nobody")
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx leave.Store) error {
		require.NoError(t, tx.AddUsage(ctx, "emp-1", leave.Usage{Kind: leave.KindMonthly, Year: 2024, Month: time.March, Days: 1}))
		require.NoError(t, tx.SaveRequest(ctx, leave.Request{ID: "req-1", EmployeeID: "emp-1", IdempotencyKey: "k"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ledger, err := store.LoadLedger(ctx, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, ledger.MonthlyRecords)

	_, err = store.GetRequest(ctx, "req-1")
	assert.ErrorIs(t, err, generic.ErrRequestNotFound)

	// The key was rolled back too
	assert.NoError(t, store.SaveRequest(ctx, leave.Request{ID: "req-2", EmployeeID: "emp-1", IdempotencyKey: "k"}))
}

func TestRequests_OrderAndIsolation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	t0 := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRequest(ctx, leave.Request{ID: "b", EmployeeID: "emp-1", CreatedAt: t0.Add(time.Hour)}))
	require.NoError(t, store.SaveRequest(ctx, leave.Request{ID: "a", EmployeeID: "emp-1", CreatedAt: t0.Add(time.Hour)}))
	require.NoError(t, store.SaveRequest(ctx, leave.Request{ID: "c", EmployeeID: "emp-1", CreatedAt: t0}))
	require.NoError(t, store.SaveRequest(ctx, leave.Request{ID: "x", EmployeeID: "emp-2", CreatedAt: t0}))

	reqs, err := store.ListRequests(ctx, "emp-1")
	require.NoError(t, err)
	ids := make([]generic.RequestID, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}
	assert.Equal(t, []generic.RequestID{"c", "a", "b"}, ids)

	// Returned allocations are copies
	require.NoError(t, store.SaveRequest(ctx, leave.Request{
		ID: "d", EmployeeID: "emp-1",
		Days: []leave.DayAllocation{{Date: generic.NewDate(2024, 3, 4), IsPaid: true}},
	}))
	got, err := store.GetRequest(ctx, "d")
	require.NoError(t, err)
	got.Days[0].IsPaid = false
	again, err := store.GetRequest(ctx, "d")
	require.NoError(t, err)
	assert.True(t, again.Days[0].IsPaid)
}

func TestListEmployees_SortedByName(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveEmployee(ctx, leave.Employee{ID: "emp-0", Name: "Aaron"}))

	all, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Aaron", all[0].Name)
	assert.Equal(t, "Alice", all[1].Name)
}

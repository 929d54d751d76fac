package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/capacity-engine/allocation"
	"github.com/warp/capacity-engine/calendar"
	"github.com/warp/capacity-engine/resources"
	"github.com/warp/capacity-engine/store/sqlite"
	"github.com/warp/capacity-engine/workday"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func march(day int) workday.Date { return workday.NewDate(2025, time.March, day) }

func TestStore_CalendarRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// GIVEN: a standard week with a holiday and a recurring half day
	c := calendar.New("std", "Standard", calendar.StandardWeek(workday.Hours(8)))
	require.NoError(t, c.AddException(calendar.Exception{ID: "h1", Date: march(12), Name: "Holiday"}))
	require.NoError(t, c.AddException(calendar.Exception{
		ID: "x1", Date: workday.NewDate(2024, time.December, 24), Name: "Christmas Eve",
		Capacity: workday.Hours(4), Recurring: true,
	}))

	// WHEN
	require.NoError(t, store.SaveCalendar(ctx, c))
	loaded, err := store.GetCalendar(ctx, "std")

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "Standard", loaded.Name)
	assert.Equal(t, c.Weekly, loaded.Weekly)
	assert.Equal(t, workday.Zero(), loaded.CapacityOn(march(12)))
	assert.Equal(t, workday.Hours(8), loaded.CapacityOn(march(13)))
	assert.Equal(t, workday.Hours(4), loaded.CapacityOn(workday.NewDate(2025, time.December, 24)))
	assert.Len(t, loaded.Exceptions(), 2)
}

func TestStore_SaveCalendarReplacesExceptions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	c := calendar.New("std", "Standard", calendar.StandardWeek(workday.Hours(8)))
	require.NoError(t, c.AddException(calendar.Exception{ID: "h1", Date: march(12)}))
	require.NoError(t, store.SaveCalendar(ctx, c))

	require.True(t, c.RemoveException("h1"))
	c.Name = "Renamed"
	require.NoError(t, store.SaveCalendar(ctx, c))

	loaded, err := store.GetCalendar(ctx, "std")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.Name)
	assert.Empty(t, loaded.Exceptions())

	all, err := store.ListCalendars(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_CalendarNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.GetCalendar(ctx, "nope")
	assert.ErrorIs(t, err, allocation.ErrCalendarNotFound)

	err = store.DeleteCalendar(ctx, "nope")
	assert.ErrorIs(t, err, allocation.ErrCalendarNotFound)
}

func TestStore_AllocationLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveCalendar(ctx, calendar.New("std", "Standard", calendar.StandardWeek(workday.Hours(8)))))

	// GIVEN: a service backed by SQLite
	svc := allocation.NewService(store, store)
	alloc, _, err := svc.Create(ctx, "std", allocation.Request{
		TaskID:          "task-1",
		ResourceID:      "alice",
		Start:           workday.StartOfDay(march(10)),
		Effort:          workday.Hours(20),
		ResourcesPerDay: resources.MustAmount("1"),
	})
	require.NoError(t, err)

	// WHEN
	loaded, err := store.GetAllocation(ctx, alloc.ID)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "task-1", loaded.TaskID)
	assert.Equal(t, "alice", loaded.ResourceID)
	assert.Equal(t, alloc.Start, loaded.Start)
	assert.Nil(t, loaded.End)
	assert.Equal(t, workday.Hours(20), loaded.Effort)
	assert.True(t, loaded.ResourcesPerDay.Equal(resources.MustAmount("1")))
	assert.Equal(t, workday.Create(march(12), workday.Hours(4)), loaded.Finish)
	assert.True(t, loaded.Satisfied)

	assignments, err := store.Assignments(ctx, alloc.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 3)
	assert.Equal(t, march(10), assignments[0].Date)
	assert.Equal(t, workday.Hours(4), assignments[2].Duration)

	forAlice, err := store.AssignmentsForResource(ctx, "alice", march(11), march(31))
	require.NoError(t, err)
	assert.Len(t, forAlice, 2)

	// Delete cascades to assignments
	require.NoError(t, store.DeleteAllocation(ctx, alloc.ID))
	_, err = store.GetAllocation(ctx, alloc.ID)
	assert.ErrorIs(t, err, allocation.ErrAllocationNotFound)
	assignments, err = store.Assignments(ctx, alloc.ID)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestStore_BoundedEndRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	end := workday.Create(march(14), workday.Hours(4))
	a := allocation.Allocation{
		ID:              "a1",
		ResourceID:      "bob",
		CalendarID:      "std",
		Start:           workday.StartOfDay(march(10)),
		End:             &end,
		ResourcesPerDay: resources.MustAmount("0.5"),
		Finish:          end,
	}
	require.NoError(t, store.SaveAllocation(ctx, a, nil))

	loaded, err := store.GetAllocation(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, loaded.End)
	assert.Equal(t, end, *loaded.End)
	assert.Equal(t, "0.50", loaded.ResourcesPerDay.String())

	open, err := store.ListOpenEnded(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestStore_ExtendOpenEnded(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveCalendar(ctx, calendar.New("std", "Standard", calendar.StandardWeek(workday.Hours(8)))))

	svc := allocation.NewService(store, store)
	svc.Allocator.Horizon = 2
	alloc, _, err := svc.Create(ctx, "std", allocation.Request{
		ResourceID: "alice", Start: workday.StartOfDay(march(10)), ResourcesPerDay: resources.MustAmount("1"),
	})
	require.NoError(t, err)

	n, err := svc.ExtendOpenEnded(ctx, march(14))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assignments, err := store.Assignments(ctx, alloc.ID)
	require.NoError(t, err)
	assert.Len(t, assignments, 5)

	loaded, err := store.GetAllocation(ctx, alloc.ID)
	require.NoError(t, err)
	assert.Equal(t, workday.Hours(40), loaded.Assigned)
}

func TestStore_DuplicateDayRejected(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a := allocation.Allocation{
		ID: "a1", ResourceID: "alice", CalendarID: "std",
		Start: workday.StartOfDay(march(10)), Finish: workday.StartOfDay(march(11)),
		ResourcesPerDay: resources.MustAmount("1"),
	}
	day := allocation.DayAssignment{ID: "d1", AllocationID: "a1", ResourceID: "alice", Date: march(10), Duration: workday.Hours(8)}
	require.NoError(t, store.SaveAllocation(ctx, a, []allocation.DayAssignment{day}))

	day.ID = "d2"
	err := store.AppendAssignments(ctx, a, []allocation.DayAssignment{day})
	assert.ErrorIs(t, err, sqlite.ErrDuplicateDay)

	// the failed append left the stored days untouched
	assignments, err := store.Assignments(ctx, "a1")
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
}

package allocation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/capacity-engine/allocation"
	"github.com/warp/capacity-engine/calendar"
	"github.com/warp/capacity-engine/resources"
	"github.com/warp/capacity-engine/workday"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// 2025-03-10 is a Monday.
func march(day int) workday.Date { return workday.NewDate(2025, time.March, day) }

func at(day, hours int) workday.IntraDayDate {
	return workday.Create(march(day), workday.Hours(hours))
}

func startOf(day int) workday.IntraDayDate { return workday.StartOfDay(march(day)) }

func endAt(d workday.IntraDayDate) *workday.IntraDayDate { return &d }

func standardCalendar() *calendar.Calendar {
	return calendar.New("std", "Standard", calendar.StandardWeek(workday.Hours(8)))
}

func rate(s string) resources.ResourcesPerDay { return resources.MustAmount(s) }

func durations(assignments []allocation.DayAssignment) []workday.EffortDuration {
	out := make([]workday.EffortDuration, len(assignments))
	for i, a := range assignments {
		out[i] = a.Duration
	}
	return out
}

func dates(assignments []allocation.DayAssignment) []workday.Date {
	out := make([]workday.Date, len(assignments))
	for i, a := range assignments {
		out[i] = a.Date
	}
	return out
}

// =============================================================================
// ALLOCATE
// =============================================================================

func TestAllocate_EffortTrimsLastDay(t *testing.T) {
	// GIVEN: 20h at one resource per day on an 8h weekday calendar
	req := allocation.Request{
		ResourceID:      "alice",
		Start:           startOf(10),
		Effort:          workday.Hours(20),
		ResourcesPerDay: rate("1"),
	}

	// WHEN
	res, err := allocation.NewAllocator().Allocate(standardCalendar(), req)

	// THEN: 8 + 8 + 4, ending four hours into Wednesday
	require.NoError(t, err)
	assert.Equal(t, []workday.EffortDuration{workday.Hours(8), workday.Hours(8), workday.Hours(4)}, durations(res.Assignments))
	assert.Equal(t, []workday.Date{march(10), march(11), march(12)}, dates(res.Assignments))
	assert.Equal(t, workday.Hours(20), res.Assigned)
	assert.Equal(t, at(12, 4), res.End)
	assert.True(t, res.Satisfied)
	assert.True(t, res.Remaining.IsZero())
	for _, a := range res.Assignments {
		assert.Equal(t, "alice", a.ResourceID)
	}
}

func TestAllocate_ExactFitEndsAtNextDay(t *testing.T) {
	req := allocation.Request{
		Start:           startOf(10),
		Effort:          workday.Hours(8),
		ResourcesPerDay: rate("0.5"),
	}

	res, err := allocation.NewAllocator().Allocate(standardCalendar(), req)

	require.NoError(t, err)
	assert.Equal(t, []workday.EffortDuration{workday.Hours(4), workday.Hours(4)}, durations(res.Assignments))
	assert.Equal(t, startOf(12), res.End)
}

func TestAllocate_WeekendYieldsZeroAssignments(t *testing.T) {
	// GIVEN: start on a Friday
	req := allocation.Request{
		Start:           startOf(14),
		Effort:          workday.Hours(16),
		ResourcesPerDay: rate("1"),
	}

	res, err := allocation.NewAllocator().Allocate(standardCalendar(), req)

	// THEN: the weekend is walked, not skipped
	require.NoError(t, err)
	assert.Equal(t, []workday.Date{march(14), march(15), march(16), march(17)}, dates(res.Assignments))
	assert.Equal(t, []workday.EffortDuration{
		workday.Hours(8), workday.Zero(), workday.Zero(), workday.Hours(8),
	}, durations(res.Assignments))
	assert.Equal(t, startOf(18), res.End)
}

func TestAllocate_StartOffsetLimitsFirstDay(t *testing.T) {
	req := allocation.Request{
		Start:           at(10, 2),
		Effort:          workday.Hours(8),
		ResourcesPerDay: rate("1"),
	}

	res, err := allocation.NewAllocator().Allocate(standardCalendar(), req)

	require.NoError(t, err)
	assert.Equal(t, []workday.EffortDuration{workday.Hours(6), workday.Hours(2)}, durations(res.Assignments))
	assert.Equal(t, at(11, 2), res.End)
}

func TestAllocate_EndCutsLastDay(t *testing.T) {
	// GIVEN: no effort target, ending four hours into Tuesday
	req := allocation.Request{
		Start:           startOf(10),
		End:             endAt(at(11, 4)),
		ResourcesPerDay: rate("1"),
	}

	res, err := allocation.NewAllocator().Allocate(standardCalendar(), req)

	require.NoError(t, err)
	assert.Equal(t, []workday.EffortDuration{workday.Hours(8), workday.Hours(4)}, durations(res.Assignments))
	assert.Equal(t, at(11, 4), res.End)
	assert.True(t, res.Satisfied)
}

func TestAllocate_UnsatisfiedWhenDaysRunOut(t *testing.T) {
	req := allocation.Request{
		Start:           startOf(10),
		End:             endAt(startOf(12)),
		Effort:          workday.Hours(40),
		ResourcesPerDay: rate("1"),
	}

	res, err := allocation.NewAllocator().Allocate(standardCalendar(), req)

	require.NoError(t, err)
	assert.False(t, res.Satisfied)
	assert.Equal(t, workday.Hours(16), res.Assigned)
	assert.Equal(t, workday.Hours(24), res.Remaining)
	assert.Equal(t, startOf(12), res.End)
}

func TestAllocate_OnlyNonWorkingDays(t *testing.T) {
	req := allocation.Request{
		Start:           startOf(15),
		End:             endAt(startOf(17)),
		Effort:          workday.Hours(8),
		ResourcesPerDay: rate("1"),
	}

	res, err := allocation.NewAllocator().Allocate(standardCalendar(), req)

	require.NoError(t, err)
	assert.Len(t, res.Assignments, 2)
	assert.True(t, res.Assigned.IsZero())
	assert.False(t, res.Satisfied)
	assert.Equal(t, workday.Hours(8), res.Remaining)
}

func TestAllocate_SmallRateNeverRoundsToZero(t *testing.T) {
	// 0.01 of a one-minute day is 0.6s, which must still count
	cal := calendar.Fixed(workday.Minutes(1))
	req := allocation.Request{
		Start:           startOf(10),
		End:             endAt(startOf(11)),
		ResourcesPerDay: rate("0.01"),
	}

	res, err := allocation.NewAllocator().Allocate(cal, req)

	require.NoError(t, err)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, workday.Seconds(1), res.Assignments[0].Duration)
}

func TestAllocate_OpenEndedStopsAtHorizon(t *testing.T) {
	a := &allocation.Allocator{Horizon: 7}
	req := allocation.Request{
		Start:           startOf(10),
		ResourcesPerDay: rate("1"),
	}
	require.True(t, req.IsOpenEnded())

	res, err := a.Allocate(standardCalendar(), req)

	require.NoError(t, err)
	assert.Len(t, res.Assignments, 7)
	assert.Equal(t, workday.Hours(40), res.Assigned)
	assert.Equal(t, startOf(17), res.End)
	assert.True(t, res.Satisfied)
}

func TestAllocate_StartConstraintMovesStart(t *testing.T) {
	req := allocation.Request{
		Start:           startOf(10),
		Effort:          workday.Hours(8),
		ResourcesPerDay: rate("1"),
		StartConstraints: []workday.Constraint[workday.IntraDayDate]{
			workday.NotBefore(startOf(12)),
		},
	}

	res, err := allocation.NewAllocator().Allocate(standardCalendar(), req)

	require.NoError(t, err)
	assert.Equal(t, startOf(12), res.Start)
	assert.Equal(t, []workday.Date{march(12)}, dates(res.Assignments))
}

func TestAllocate_HolidayException(t *testing.T) {
	cal := standardCalendar()
	require.NoError(t, cal.AddException(calendar.Exception{
		ID: "h1", Date: march(11), Name: "Holiday", Capacity: workday.Zero(),
	}))
	req := allocation.Request{
		Start:           startOf(10),
		Effort:          workday.Hours(16),
		ResourcesPerDay: rate("1"),
	}

	res, err := allocation.NewAllocator().Allocate(cal, req)

	require.NoError(t, err)
	assert.Equal(t, []workday.EffortDuration{workday.Hours(8), workday.Zero(), workday.Hours(8)}, durations(res.Assignments))
}

func TestAllocate_Errors(t *testing.T) {
	a := allocation.NewAllocator()
	cal := standardCalendar()

	t.Run("zero rate without end never completes", func(t *testing.T) {
		_, err := a.Allocate(cal, allocation.Request{Start: startOf(10), Effort: workday.Hours(8), ResourcesPerDay: rate("0")})
		assert.ErrorIs(t, err, allocation.ErrUnboundedAllocation)
		assert.True(t, allocation.IsClientError(err))
	})

	t.Run("missing start", func(t *testing.T) {
		_, err := a.Allocate(cal, allocation.Request{Effort: workday.Hours(8), ResourcesPerDay: rate("1")})
		assert.ErrorIs(t, err, workday.ErrInvalidArgument)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := a.Allocate(cal, allocation.Request{Start: startOf(12), End: endAt(startOf(10)), ResourcesPerDay: rate("1")})
		assert.ErrorIs(t, err, workday.ErrInvalidArgument)
		assert.True(t, allocation.IsClientError(err))
	})

	t.Run("no shares", func(t *testing.T) {
		_, err := a.AllocateShares(allocation.Request{Start: startOf(10), ResourcesPerDay: rate("1")}, nil)
		assert.ErrorIs(t, err, allocation.ErrNoShares)
	})

	t.Run("share without calendar", func(t *testing.T) {
		_, err := a.AllocateShares(
			allocation.Request{Start: startOf(10), End: endAt(startOf(11)), ResourcesPerDay: rate("1")},
			[]allocation.Share{{ResourceID: "x", Ratio: rate("1")}},
		)
		assert.ErrorIs(t, err, workday.ErrInvalidArgument)
	})
}

// =============================================================================
// SHARES
// =============================================================================

func TestAllocateShares_SplitsByRatio(t *testing.T) {
	// GIVEN: one resource per day split 3:1
	cal := standardCalendar()
	shares := []allocation.Share{
		{ResourceID: "alice", Ratio: rate("3"), Calendar: cal},
		{ResourceID: "bob", Ratio: rate("1"), Calendar: cal},
	}
	req := allocation.Request{Start: startOf(10), Effort: workday.Hours(16), ResourcesPerDay: rate("1")}

	// WHEN
	res, err := allocation.NewAllocator().AllocateShares(req, shares)

	// THEN: 6h + 2h per day for two days
	require.NoError(t, err)
	byResource := res.ByResource()
	assert.Equal(t, workday.Hours(12), byResource["alice"])
	assert.Equal(t, workday.Hours(4), byResource["bob"])
	assert.Len(t, res.Assignments, 4)
	assert.Equal(t, startOf(12), res.End)
}

func TestAllocateShares_StopsMidDayOnceEffortIsReached(t *testing.T) {
	cal := standardCalendar()
	shares := []allocation.Share{
		{ResourceID: "alice", Ratio: rate("1"), Calendar: cal},
		{ResourceID: "bob", Ratio: rate("1"), Calendar: cal},
	}
	req := allocation.Request{Start: startOf(10), Effort: workday.Hours(24), ResourcesPerDay: rate("2")}

	res, err := allocation.NewAllocator().AllocateShares(req, shares)

	require.NoError(t, err)
	require.Len(t, res.Assignments, 3)
	assert.Equal(t, "alice", res.Assignments[2].ResourceID)
	assert.Equal(t, workday.Hours(16), res.ByResource()["alice"])
	assert.Equal(t, workday.Hours(8), res.ByResource()["bob"])
	assert.True(t, res.Satisfied)
}

func TestAllocateShares_OwnCalendars(t *testing.T) {
	partTime := calendar.New("pt", "Part time", calendar.StandardWeek(workday.Hours(4)))
	shares := []allocation.Share{
		{ResourceID: "alice", Ratio: rate("1"), Calendar: standardCalendar()},
		{ResourceID: "bob", Ratio: rate("1"), Calendar: partTime},
	}
	req := allocation.Request{Start: startOf(10), End: endAt(startOf(11)), ResourcesPerDay: rate("2")}

	res, err := allocation.NewAllocator().AllocateShares(req, shares)

	require.NoError(t, err)
	assert.Equal(t, workday.Hours(8), res.ByResource()["alice"])
	assert.Equal(t, workday.Hours(4), res.ByResource()["bob"])
}

// =============================================================================
// REALLOCATE
// =============================================================================

func TestReallocate_KeepsPastAndRecomputesRest(t *testing.T) {
	// GIVEN: 24h allocated Mon-Wed, then Tuesday becomes a half day
	a := allocation.NewAllocator()
	cal := standardCalendar()
	req := allocation.Request{Start: startOf(10), Effort: workday.Hours(24), ResourcesPerDay: rate("1")}
	original, err := a.Allocate(cal, req)
	require.NoError(t, err)

	require.NoError(t, cal.AddException(calendar.Exception{
		ID: "half", Date: march(11), Name: "Half day", Capacity: workday.Hours(4),
	}))

	// WHEN
	res, err := a.Reallocate(cal, req, original.Assignments, startOf(11))

	// THEN: Monday kept, the rest spills into Thursday
	require.NoError(t, err)
	assert.Equal(t, []workday.Date{march(10), march(11), march(12), march(13)}, dates(res.Assignments))
	assert.Equal(t, []workday.EffortDuration{
		workday.Hours(8), workday.Hours(4), workday.Hours(8), workday.Hours(4),
	}, durations(res.Assignments))
	assert.Equal(t, workday.Hours(24), res.Assigned)
	assert.Equal(t, startOf(10), res.Start)
	assert.Equal(t, at(13, 4), res.End)
}

func TestReallocate_AlreadyConsumed(t *testing.T) {
	a := allocation.NewAllocator()
	req := allocation.Request{Start: startOf(10), Effort: workday.Hours(8), ResourcesPerDay: rate("1")}
	existing := []allocation.DayAssignment{
		{Date: march(10), Duration: workday.Hours(8)},
		{Date: march(11), Duration: workday.Hours(8)},
	}

	res, err := a.Reallocate(standardCalendar(), req, existing, startOf(12))

	require.NoError(t, err)
	assert.Len(t, res.Assignments, 2)
	assert.True(t, res.Satisfied)
	assert.Equal(t, startOf(12), res.End)
}

func TestReallocate_RequiresFrom(t *testing.T) {
	req := allocation.Request{Start: startOf(10), Effort: workday.Hours(8), ResourcesPerDay: rate("1")}
	_, err := allocation.NewAllocator().Reallocate(standardCalendar(), req, nil, workday.IntraDayDate{})
	assert.ErrorIs(t, err, workday.ErrInvalidArgument)
}

// =============================================================================
// EXTEND
// =============================================================================

func TestExtend_ContinuesAfterLastAssignment(t *testing.T) {
	a := allocation.NewAllocator()
	alloc := allocation.Allocation{ID: "a1", ResourceID: "alice", Start: startOf(10), ResourcesPerDay: rate("1")}
	existing := []allocation.DayAssignment{
		{Date: march(10), Duration: workday.Hours(8)},
		{Date: march(11), Duration: workday.Hours(8)},
	}

	res, err := a.Extend(standardCalendar(), alloc, existing, march(14))

	require.NoError(t, err)
	assert.Equal(t, []workday.Date{march(12), march(13), march(14)}, dates(res.Assignments))
	assert.Equal(t, workday.Hours(24), res.Assigned)
	assert.Equal(t, startOf(15), res.End)
}

func TestExtend_NothingToDo(t *testing.T) {
	alloc := allocation.Allocation{Start: startOf(10), ResourcesPerDay: rate("1")}
	existing := []allocation.DayAssignment{{Date: march(11), Duration: workday.Hours(8)}}

	res, err := allocation.NewAllocator().Extend(standardCalendar(), alloc, existing, march(11))

	require.NoError(t, err)
	assert.Empty(t, res.Assignments)
}

func TestExtend_RejectsBoundedAllocation(t *testing.T) {
	alloc := allocation.Allocation{Start: startOf(10), Effort: workday.Hours(8), ResourcesPerDay: rate("1")}

	_, err := allocation.NewAllocator().Extend(standardCalendar(), alloc, nil, march(14))

	assert.ErrorIs(t, err, allocation.ErrNotOpenEnded)
	assert.True(t, allocation.IsClientError(err))
}

// =============================================================================
// RATE CALCULATION
// =============================================================================

func TestResourcesPerDayFor(t *testing.T) {
	// 20h over a 40h week
	r, err := allocation.ResourcesPerDayFor(standardCalendar(), workday.Hours(20), startOf(10), startOf(17))
	require.NoError(t, err)
	assert.Equal(t, "0.50", r.String())

	// a weekend has no capacity
	_, err = allocation.ResourcesPerDayFor(standardCalendar(), workday.Hours(20), startOf(15), startOf(17))
	assert.Error(t, err)
}

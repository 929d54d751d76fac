/*
Package allocation distributes a task's effort over calendar days.

PURPOSE:
  Given a task that needs N hours of effort, a rate of resources per day
  and a calendar, produce the day assignments: how many hours each
  resource works on each date. This is the question the scheduler asks
  when it places a task on the timeline.

KEY CONCEPTS:
  - Request: what to allocate (effort, rate, start, optional end)
  - Share: one resource taking part in a multi-resource allocation
  - DayAssignment: output record, (resource, date, effort)
  - Result: assignments plus totals and the point where the work ends
  - Allocation: the persisted form of a Request and its outcome

ALGORITHM (Allocator.Allocate):
  For each PartialDay in start.DaysUntil(end):
    1. capacity := calendar.CapacityOn(day)
    2. wanted   := rate applied to capacity (never rounds positive to zero)
    3. hours    := day.LimitDuration(wanted)
    4. trim hours to the effort still missing, emit a DayAssignment
  Stop once the effort is reached or the days run out. Zero-capacity days
  (weekends, holidays) yield zero-hour assignments and do not stop the walk.

SEE ALSO:
  - workday/: IntraDayDate, PartialDay, DaySequence
  - resources/: ResourcesPerDay and the Distributor
  - calendar/: CapacityCalendar
*/
package allocation

import (
	"time"

	"github.com/warp/capacity-engine/calendar"
	"github.com/warp/capacity-engine/resources"
	"github.com/warp/capacity-engine/workday"
)

// =============================================================================
// DAY ASSIGNMENT - Output record
// =============================================================================

// DayAssignment records that a resource works Duration on Date for an
// allocation.
type DayAssignment struct {
	ID           string
	AllocationID string
	ResourceID   string
	Date         workday.Date
	Duration     workday.EffortDuration
}

// =============================================================================
// REQUEST
// =============================================================================

// Request describes one resource allocation.
//
// Bounds:
//   - Effort > 0: stop once Effort is assigned
//   - End != nil: never go past End
//   - neither: open-ended, walked up to the allocator horizon
type Request struct {
	TaskID          string
	ResourceID      string
	Start           workday.IntraDayDate
	End             *workday.IntraDayDate
	Effort          workday.EffortDuration
	ResourcesPerDay resources.ResourcesPerDay

	// Applied to Start before walking, e.g. "not before the task's
	// earliest start".
	StartConstraints []workday.Constraint[workday.IntraDayDate]
}

// IsOpenEnded reports whether nothing but the horizon bounds the request.
func (r Request) IsOpenEnded() bool {
	return r.Effort.IsZero() && r.End == nil
}

// Share is one resource in a multi-resource allocation. Ratio is relative
// to the other shares.
type Share struct {
	ResourceID string
	Ratio      resources.ResourcesPerDay
	Calendar   calendar.CapacityCalendar
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of an allocation.
type Result struct {
	Assignments []DayAssignment
	Assigned    workday.EffortDuration

	// Remaining is the effort still missing; zero for requests without an
	// effort target.
	Remaining workday.EffortDuration

	Start workday.IntraDayDate
	// End is where the allocated work stops.
	End workday.IntraDayDate

	// Satisfied is false when the days ran out before the effort did.
	Satisfied bool
}

// ByResource totals the assigned effort per resource.
func (r *Result) ByResource() map[string]workday.EffortDuration {
	out := make(map[string]workday.EffortDuration)
	for _, a := range r.Assignments {
		out[a.ResourceID] = out[a.ResourceID].Plus(a.Duration)
	}
	return out
}

// =============================================================================
// ALLOCATION - Persisted request
// =============================================================================

// Allocation is what the Store keeps for a request: its parameters and
// where the computed work ends.
type Allocation struct {
	ID              string
	TaskID          string
	ResourceID      string
	CalendarID      string
	Start           workday.IntraDayDate
	End             *workday.IntraDayDate
	Effort          workday.EffortDuration
	ResourcesPerDay resources.ResourcesPerDay

	// Computed
	Finish    workday.IntraDayDate
	Assigned  workday.EffortDuration
	Satisfied bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Request rebuilds the Request the allocation was made from.
func (a Allocation) Request() Request {
	return Request{
		TaskID:          a.TaskID,
		ResourceID:      a.ResourceID,
		Start:           a.Start,
		End:             a.End,
		Effort:          a.Effort,
		ResourcesPerDay: a.ResourcesPerDay,
	}
}

func (a Allocation) IsOpenEnded() bool {
	return a.Request().IsOpenEnded()
}

// TotalDuration sums a slice of assignments.
func TotalDuration(assignments []DayAssignment) workday.EffortDuration {
	total := workday.Zero()
	for _, a := range assignments {
		total = total.Plus(a.Duration)
	}
	return total
}

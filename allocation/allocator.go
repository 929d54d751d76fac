package allocation

import (
	"github.com/warp/capacity-engine/calendar"
	"github.com/warp/capacity-engine/resources"
	"github.com/warp/capacity-engine/workday"
)

// DefaultHorizon is how many days an open-ended request is walked.
const DefaultHorizon = 365

// =============================================================================
// ALLOCATOR
// =============================================================================

// Allocator turns Requests into day assignments. It holds no state between
// calls and is safe for concurrent use.
type Allocator struct {
	// Horizon bounds requests that have no End, in days from the start.
	// DefaultHorizon is used when zero.
	Horizon int
}

func NewAllocator() *Allocator {
	return &Allocator{Horizon: DefaultHorizon}
}

// Allocate walks the request's days for a single resource.
func (a *Allocator) Allocate(cal calendar.CapacityCalendar, req Request) (*Result, error) {
	return a.AllocateShares(req, []Share{{
		ResourceID: req.ResourceID,
		Ratio:      req.ResourcesPerDay,
		Calendar:   cal,
	}})
}

// AllocateShares splits req.ResourcesPerDay between shares proportionally
// to their ratios, then walks the days once, giving every share its own
// capacity-limited assignment per day. The effort target applies to the
// combined total; shares are served in order on the day it is reached.
func (a *Allocator) AllocateShares(req Request, shares []Share) (*Result, error) {
	if len(shares) == 0 {
		return nil, ErrNoShares
	}
	ratios := make([]resources.ResourcesPerDay, len(shares))
	for i, s := range shares {
		if s.Calendar == nil {
			return nil, workday.NewArgumentError("AllocateShares", "share %q has no calendar", s.ResourceID)
		}
		ratios[i] = s.Ratio
	}
	if !req.Effort.IsZero() && req.End == nil && req.ResourcesPerDay.IsZero() {
		return nil, ErrUnboundedAllocation
	}

	start, end, err := a.bounds(req)
	if err != nil {
		return nil, err
	}
	seq, err := start.DaysUntil(end)
	if err != nil {
		return nil, err
	}
	distributor, err := resources.NewDistributor(ratios...)
	if err != nil {
		return nil, err
	}
	rates := distributor.Distribute(req.ResourcesPerDay)

	res := &Result{Start: start, End: start}
	target := req.Effort
	for day := range seq.All() {
		if !target.IsZero() && !res.Assigned.LessThan(target) {
			break
		}

		trimmed := false
		dayMax := workday.Zero()
		for i, s := range shares {
			if !target.IsZero() && !res.Assigned.LessThan(target) {
				break
			}
			wanted := rates[i].AsDurationGivenWorkingDayOf(s.Calendar.CapacityOn(day.Date()))
			hours := day.LimitDuration(wanted)
			if !target.IsZero() {
				if missing := target.Minus(res.Assigned); hours.GreaterThan(missing) {
					hours = missing
					trimmed = true
				}
			}
			res.Assignments = append(res.Assignments, DayAssignment{
				ResourceID: s.ResourceID,
				Date:       day.Date(),
				Duration:   hours,
			})
			res.Assigned = res.Assigned.Plus(hours)
			dayMax = workday.MaxDuration(dayMax, hours)
			if trimmed {
				break
			}
		}

		if trimmed {
			res.End = workday.Create(day.Date(), day.Start().EffortDuration().Plus(dayMax))
		} else {
			res.End = day.End()
		}
	}

	res.Satisfied = target.IsZero() || !res.Assigned.LessThan(target)
	if !res.Satisfied {
		res.Remaining = target.Minus(res.Assigned)
	}
	return res, nil
}

// bounds applies the start constraints and resolves the end of the walk.
func (a *Allocator) bounds(req Request) (workday.IntraDayDate, workday.IntraDayDate, error) {
	if req.Start.IsZero() {
		return workday.IntraDayDate{}, workday.IntraDayDate{}, workday.NewArgumentError("Allocate", "start is required")
	}
	start := workday.ApplyConstraints(req.Start, req.StartConstraints...)

	if req.End != nil {
		if req.End.Before(start) {
			return workday.IntraDayDate{}, workday.IntraDayDate{}, workday.NewArgumentError("Allocate",
				"end %s is before start %s", *req.End, start)
		}
		return start, *req.End, nil
	}

	horizon := a.Horizon
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return start, workday.StartOfDay(start.Date().AddDays(horizon)), nil
}

// =============================================================================
// INCREMENTAL RECOMPUTATION
// =============================================================================

// Reallocate keeps the existing assignments dated before from and
// allocates the rest of the effort starting at from. The assignment on
// from's own date is recomputed.
func (a *Allocator) Reallocate(cal calendar.CapacityCalendar, req Request, existing []DayAssignment, from workday.IntraDayDate) (*Result, error) {
	if from.IsZero() {
		return nil, workday.NewArgumentError("Reallocate", "from is required")
	}
	if req.Start.IsZero() {
		return nil, workday.NewArgumentError("Reallocate", "start is required")
	}

	var kept []DayAssignment
	for _, as := range existing {
		if as.Date.Before(from.RoundDown()) {
			kept = append(kept, as)
		}
	}
	consumed := TotalDuration(kept)

	if !req.Effort.IsZero() && !consumed.LessThan(req.Effort) {
		end := req.Start
		for _, as := range kept {
			end = workday.MaxIntraDay(end, workday.StartOfDay(as.Date.Next()))
		}
		return &Result{
			Assignments: kept,
			Assigned:    consumed,
			Start:       req.Start,
			End:         end,
			Satisfied:   true,
		}, nil
	}

	next := req
	next.Start = workday.MaxIntraDay(from, req.Start)
	if !req.Effort.IsZero() {
		next.Effort = req.Effort.Minus(consumed)
	}
	res, err := a.Allocate(cal, next)
	if err != nil {
		return nil, err
	}

	res.Assignments = append(kept, res.Assignments...)
	res.Assigned = res.Assigned.Plus(consumed)
	res.Start = req.Start
	return res, nil
}

// Extend continues an open-ended allocation from the day after its last
// assignment up to and including until. It returns an empty Result when
// the allocation already reaches until.
func (a *Allocator) Extend(cal calendar.CapacityCalendar, alloc Allocation, existing []DayAssignment, until workday.Date) (*Result, error) {
	if !alloc.IsOpenEnded() {
		return nil, ErrNotOpenEnded
	}
	from := alloc.Start
	for _, as := range existing {
		from = workday.MaxIntraDay(from, workday.StartOfDay(as.Date.Next()))
	}
	end := workday.StartOfDay(until.Next())
	if !from.Before(end) {
		return &Result{Start: from, End: from, Satisfied: true}, nil
	}

	req := alloc.Request()
	req.Start = from
	req.End = &end
	return a.Allocate(cal, req)
}

// =============================================================================
// RATE CALCULATION
// =============================================================================

// ResourcesPerDayFor returns the rate needed to fit effort into the
// capacity cal offers in [start, end).
func ResourcesPerDayFor(cal calendar.CapacityCalendar, effort workday.EffortDuration, start, end workday.IntraDayDate) (resources.ResourcesPerDay, error) {
	workable, err := calendar.CapacityBetween(cal, start, end)
	if err != nil {
		return resources.ResourcesPerDay{}, err
	}
	return resources.CalculateFrom(effort, workable)
}

package workday

import "fmt"

// =============================================================================
// PARTIAL DAY - The [start, end) slice of one calendar day
// =============================================================================

// PartialDay is the part of a single day available for allocation.
//
// INVARIANTS:
//   - start <= end
//   - start and end are on the same date, or end is the start of the
//     next date (the slice runs to the end of start's day)
type PartialDay struct {
	start IntraDayDate
	end   IntraDayDate
}

// NewPartialDay rejects intervals that run backwards or cross more than
// the boundary of start's day.
func NewPartialDay(start, end IntraDayDate) (PartialDay, error) {
	if start.IsZero() || end.IsZero() {
		return PartialDay{}, NewArgumentError("NewPartialDay", "start and end are required")
	}
	if end.Before(start) {
		return PartialDay{}, NewArgumentError("NewPartialDay", "end %s is before start %s", end, start)
	}
	sameDay := start.date.Equal(end.date)
	endsAtNextDay := end.date.Equal(start.date.Next()) && end.IsStartOfDay()
	if !sameDay && !endsAtNextDay {
		return PartialDay{}, NewArgumentError("NewPartialDay",
			"%s to %s spans more than one day", start, end)
	}
	return PartialDay{start: start, end: end}, nil
}

// WholeDay is [start of date, start of the next date).
func WholeDay(date Date) PartialDay {
	return PartialDay{start: StartOfDay(date), end: StartOfDay(date.Next())}
}

func (p PartialDay) Start() IntraDayDate { return p.start }
func (p PartialDay) End() IntraDayDate { return p.end }
func (p PartialDay) Date() Date { return p.start.date }

// IsWholeDay reports whether neither bound carries an offset.
func (p PartialDay) IsWholeDay() bool {
	return p.start.IsStartOfDay() && p.end.IsStartOfDay()
}

// LimitDuration returns how much of requested can be placed in this slice.
//
// Effort already elapsed at start is taken off the front. When end carries
// an offset it caps the day:
//
//	start 2h, end 6h, requested 8h  ->  6h - 2h = 4h
//	start 2h, no end, requested 8h  ->  8h - 2h = 6h
//	start 9h, no end, requested 8h  ->  0
func (p PartialDay) LimitDuration(requested EffortDuration) EffortDuration {
	if p.IsWholeDay() {
		return requested
	}
	elapsed := p.start.effort
	if !elapsed.LessThan(requested) {
		return Zero()
	}
	capped := requested
	if !p.end.effort.IsZero() {
		capped = MinDuration(p.end.effort, requested)
	}
	return capped.Minus(elapsed)
}

func (p PartialDay) String() string {
	return fmt.Sprintf("[%s, %s)", p.start, p.end)
}

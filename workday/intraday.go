package workday

import (
	"fmt"
	"strings"
)

// =============================================================================
// INTRA-DAY DATE - A point in time at effort granularity
// =============================================================================

// IntraDayDate is a calendar date plus the effort already consumed on that
// date. Ordering is lexicographic on (date, effort).
//
// The offset is measured in effort, not wall-clock time: "4h into Monday"
// means four hours of Monday's working capacity are behind this point.
// Keeping the offset below the day's capacity is the caller's job.
type IntraDayDate struct {
	date   Date
	effort EffortDuration
}

// StartOfDay returns the point before any effort of date is consumed.
func StartOfDay(date Date) IntraDayDate {
	return IntraDayDate{date: date}
}

// NewIntraDayDate fails if date is the zero Date.
func NewIntraDayDate(date Date, effort EffortDuration) (IntraDayDate, error) {
	if date.IsZero() {
		return IntraDayDate{}, NewArgumentError("NewIntraDayDate", "date is required")
	}
	return IntraDayDate{date: date, effort: effort}, nil
}

// Create is NewIntraDayDate for arguments known to be valid.
func Create(date Date, effort EffortDuration) IntraDayDate {
	d, err := NewIntraDayDate(date, effort)
	if err != nil {
		panic(err)
	}
	return d
}

func (d IntraDayDate) Date() Date { return d.date }
func (d IntraDayDate) EffortDuration() EffortDuration { return d.effort }
func (d IntraDayDate) IsZero() bool { return d.date.IsZero() }

func (d IntraDayDate) IsStartOfDay() bool {
	return d.effort.IsZero()
}

// NextDayAtStart returns the start of the following calendar day.
func (d IntraDayDate) NextDayAtStart() IntraDayDate {
	return StartOfDay(d.date.Next())
}

// AsExclusiveEnd returns the first date not touched by this point: the
// date itself at start of day, otherwise the next one.
func (d IntraDayDate) AsExclusiveEnd() Date {
	if d.IsStartOfDay() {
		return d.date
	}
	return d.date.Next()
}

// RoundUp is an alias of AsExclusiveEnd.
func (d IntraDayDate) RoundUp() Date { return d.AsExclusiveEnd() }

// RoundDown drops the intra-day offset.
func (d IntraDayDate) RoundDown() Date { return d.date }

// -----------------------------------------------------------------------------
// Comparison
// -----------------------------------------------------------------------------

func (d IntraDayDate) Compare(other IntraDayDate) int {
	if c := d.date.Compare(other.date); c != 0 {
		return c
	}
	return d.effort.Compare(other.effort)
}

// CompareToDate orders d against the start of date. Any positive offset on
// the same date orders d after it.
func (d IntraDayDate) CompareToDate(date Date) int {
	return d.Compare(StartOfDay(date))
}

func (d IntraDayDate) Before(other IntraDayDate) bool { return d.Compare(other) < 0 }
func (d IntraDayDate) After(other IntraDayDate) bool { return d.Compare(other) > 0 }
func (d IntraDayDate) Equal(other IntraDayDate) bool { return d.Compare(other) == 0 }

// AreSameDay ignores the offset.
func (d IntraDayDate) AreSameDay(date Date) bool {
	return d.date.Equal(date)
}

// MinIntraDay returns the earliest argument. It panics if called without
// arguments or with a zero IntraDayDate.
func MinIntraDay(dates ...IntraDayDate) IntraDayDate {
	return pick("MinIntraDay", dates, func(c int) bool { return c < 0 })
}

// MaxIntraDay returns the latest argument, with the same panics as
// MinIntraDay.
func MaxIntraDay(dates ...IntraDayDate) IntraDayDate {
	return pick("MaxIntraDay", dates, func(c int) bool { return c > 0 })
}

func pick(op string, dates []IntraDayDate, better func(int) bool) IntraDayDate {
	if len(dates) == 0 {
		panic(NewArgumentError(op, "no dates given"))
	}
	var result IntraDayDate
	for i, d := range dates {
		if d.IsZero() {
			panic(NewArgumentError(op, "argument %d is a zero date", i))
		}
		if i == 0 || better(d.Compare(result)) {
			result = d
		}
	}
	return result
}

// NumberOfDaysUntil counts the calendar days touched going from d to end.
func (d IntraDayDate) NumberOfDaysUntil(end IntraDayDate) int {
	return DaysBetween(d.date, end.AsExclusiveEnd())
}

func (d IntraDayDate) String() string {
	return fmt.Sprintf("%s+%s", d.date, d.effort)
}

// ParseIntraDayDate reads the String form "2025-03-10+4:00". A bare date
// means the start of that day.
func ParseIntraDayDate(s string) (IntraDayDate, error) {
	datePart, effortPart, hasEffort := strings.Cut(strings.TrimSpace(s), "+")
	date, err := ParseDate(datePart)
	if err != nil {
		return IntraDayDate{}, err
	}
	if !hasEffort {
		return StartOfDay(date), nil
	}
	effort, err := Parse(effortPart)
	if err != nil {
		return IntraDayDate{}, err
	}
	return IntraDayDate{date: date, effort: effort}, nil
}

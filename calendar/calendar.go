/*
Package calendar answers "how much working capacity does day D have?".

PURPOSE:
  The allocation engine never decides on its own whether a day is worked.
  It asks a CapacityCalendar. This package provides the standard
  implementation: a weekly pattern of capacities plus dated exceptions
  (holidays, half days, overtime days).

LOOKUP ORDER (CapacityOn):
  1. An exception on exactly that date
  2. A recurring exception on the same month/day (e.g. Dec 25)
  3. The weekly capacity for the weekday

A holiday is simply an exception with zero capacity.

SEE ALSO:
  - factory/calendar.go: JSON/YAML definitions of calendars
  - allocation/allocator.go: the consumer of CapacityOn
*/
package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/warp/capacity-engine/workday"
)

// =============================================================================
// CAPACITY CALENDAR - What the allocation engine consumes
// =============================================================================

// CapacityCalendar returns the nominal working capacity of a date.
// Implementations must be pure: same date, same answer.
type CapacityCalendar interface {
	CapacityOn(date workday.Date) workday.EffortDuration
}

// Func adapts a plain function to CapacityCalendar.
type Func func(date workday.Date) workday.EffortDuration

func (f Func) CapacityOn(date workday.Date) workday.EffortDuration { return f(date) }

// Fixed gives every date the same capacity, weekends included.
func Fixed(capacity workday.EffortDuration) Func {
	return func(workday.Date) workday.EffortDuration { return capacity }
}

// CapacityBetween sums the capacity usable in [from, to), trimming the
// first and last day with PartialDay.LimitDuration.
func CapacityBetween(c CapacityCalendar, from, to workday.IntraDayDate) (workday.EffortDuration, error) {
	seq, err := from.DaysUntil(to)
	if err != nil {
		return workday.Zero(), err
	}
	total := workday.Zero()
	for day := range seq.All() {
		total = total.Plus(day.LimitDuration(c.CapacityOn(day.Date())))
	}
	return total, nil
}

// =============================================================================
// EXCEPTIONS
// =============================================================================

// Exception overrides the weekly capacity on one date.
type Exception struct {
	ID        string
	Date      workday.Date
	Name      string // e.g. "Christmas Day", "Inventory half day"
	Capacity  workday.EffortDuration
	Recurring bool // same month/day every year
}

type monthDay struct {
	month time.Month
	day   int
}

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar is a weekly capacity pattern with exceptions. It is not safe for
// concurrent mutation; load one per request.
type Calendar struct {
	ID     string
	Name   string
	Weekly [7]workday.EffortDuration // indexed by time.Weekday

	exact     map[workday.Date]Exception
	recurring map[monthDay]Exception
}

// New returns a calendar with the given weekly pattern and no exceptions.
func New(id, name string, weekly [7]workday.EffortDuration) *Calendar {
	return &Calendar{
		ID:        id,
		Name:      name,
		Weekly:    weekly,
		exact:     make(map[workday.Date]Exception),
		recurring: make(map[monthDay]Exception),
	}
}

// StandardWeek is Monday to Friday at the given daily capacity.
func StandardWeek(daily workday.EffortDuration) [7]workday.EffortDuration {
	var w [7]workday.EffortDuration
	for d := time.Monday; d <= time.Friday; d++ {
		w[d] = daily
	}
	return w
}

func (c *Calendar) CapacityOn(date workday.Date) workday.EffortDuration {
	if e, ok := c.ExceptionOn(date); ok {
		return e.Capacity
	}
	return c.Weekly[date.Weekday()]
}

// IsWorkday reports whether date has any capacity.
func (c *Calendar) IsWorkday(date workday.Date) bool {
	return !c.CapacityOn(date).IsZero()
}

// ExceptionOn finds the exception that applies to date, if any.
func (c *Calendar) ExceptionOn(date workday.Date) (Exception, bool) {
	if e, ok := c.exact[date]; ok {
		return e, true
	}
	e, ok := c.recurring[monthDay{date.Month(), date.Day()}]
	return e, ok
}

// AddException replaces any exception already on the same date (or, for a
// recurring one, the same month/day).
func (c *Calendar) AddException(e Exception) error {
	if e.Date.IsZero() {
		return workday.NewArgumentError("AddException", "exception %q has no date", e.Name)
	}
	if c.exact == nil {
		c.exact = make(map[workday.Date]Exception)
		c.recurring = make(map[monthDay]Exception)
	}
	if e.Recurring {
		c.recurring[monthDay{e.Date.Month(), e.Date.Day()}] = e
		return nil
	}
	c.exact[e.Date] = e
	return nil
}

// RemoveException drops the exception with the given ID. It reports
// whether one was found.
func (c *Calendar) RemoveException(id string) bool {
	for k, e := range c.exact {
		if e.ID == id {
			delete(c.exact, k)
			return true
		}
	}
	for k, e := range c.recurring {
		if e.ID == id {
			delete(c.recurring, k)
			return true
		}
	}
	return false
}

// Exceptions lists every exception ordered by date.
func (c *Calendar) Exceptions() []Exception {
	out := make([]Exception, 0, len(c.exact)+len(c.recurring))
	for _, e := range c.exact {
		out = append(out, e)
	}
	for _, e := range c.recurring {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// =============================================================================
// WEEKDAY NAMES
// =============================================================================

// ParseWeekday accepts full English names or three-letter abbreviations,
// case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return time.Sunday, workday.NewArgumentError("ParseWeekday", "unknown weekday %q", s)
}

/*
Package workday provides the value objects used to slice work across
calendar days.

PURPOSE:
  Scheduling work means answering "how much effort fits into this piece of
  this day?". This package holds the immutable building blocks for that
  question; the allocation package combines them with calendars.

KEY CONCEPTS:
  - EffortDuration: a length of work-time with second precision
  - Date: a calendar day
  - IntraDayDate: a day plus how much of its effort has already elapsed
  - PartialDay: the [start, end) slice of a single day
  - DaySequence: the PartialDays between two IntraDayDates, one per day

DESIGN PRINCIPLES:
  1. Immutability: every operation returns a new value
  2. Precision: integer seconds, decimal.Decimal for hour conversions
  3. Fail fast: invalid arguments are rejected where they enter

SEE ALSO:
  - resources/: ResourcesPerDay, the rate applied to a day's capacity
  - allocation/: walks DaySequences to produce day assignments
*/
package workday

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EFFORT DURATION - Fixed-point work-time
// =============================================================================

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
)

var secondsPerHourDecimal = decimal.NewFromInt(secondsPerHour)

// EffortDuration is a non-negative amount of work-time in seconds.
// The zero value is a valid zero duration.
type EffortDuration struct {
	seconds int
}

// Zero returns the additive identity.
func Zero() EffortDuration { return EffortDuration{} }

// Hours, Minutes and Seconds build a duration from a single unit.
// They panic with an *ArgumentError on negative input.
func Hours(n int) EffortDuration { return elapsing("Hours", n, secondsPerHour) }
func Minutes(n int) EffortDuration { return elapsing("Minutes", n, secondsPerMinute) }
func Seconds(n int) EffortDuration { return elapsing("Seconds", n, 1) }

// HoursMinutesSeconds combines several units into one duration.
func HoursMinutesSeconds(h, m, s int) EffortDuration {
	return Hours(h).Plus(Minutes(m)).Plus(Seconds(s))
}

// MinutesAndSeconds combines minutes and seconds into one duration.
func MinutesAndSeconds(m, s int) EffortDuration {
	return Minutes(m).Plus(Seconds(s))
}

func elapsing(op string, n, unit int) EffortDuration {
	if n < 0 {
		panic(NewArgumentError(op, "negative amount %d", n))
	}
	return EffortDuration{seconds: n * unit}
}

// FromHours converts decimal hours, rounding half-up to the second.
func FromHours(hours decimal.Decimal) (EffortDuration, error) {
	if hours.IsNegative() {
		return Zero(), NewArgumentError("FromHours", "negative hours %s", hours)
	}
	return EffortDuration{seconds: int(hours.Mul(secondsPerHourDecimal).Round(0).IntPart())}, nil
}

// Parse reads "8", "7:30" or "7:30:15" (hours[:minutes[:seconds]]).
// A decimal hour amount such as "7.5" is accepted too.
func Parse(s string) (EffortDuration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero(), NewArgumentError("Parse", "empty duration")
	}
	if strings.Contains(s, ".") && !strings.Contains(s, ":") {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Zero(), NewArgumentError("Parse", "%q is not a duration", s)
		}
		return FromHours(d)
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return Zero(), NewArgumentError("Parse", "%q is not a duration", s)
	}
	units := []int{secondsPerHour, secondsPerMinute, 1}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Zero(), NewArgumentError("Parse", "%q is not a duration", s)
		}
		if i > 0 && n >= 60 {
			return Zero(), NewArgumentError("Parse", "%q has a field out of range", s)
		}
		total += n * units[i]
	}
	return EffortDuration{seconds: total}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) EffortDuration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// -----------------------------------------------------------------------------
// Arithmetic
// -----------------------------------------------------------------------------

func (d EffortDuration) Plus(other EffortDuration) EffortDuration {
	return EffortDuration{seconds: d.seconds + other.seconds}
}

// Minus panics if other is longer than d. Callers that may go below zero
// should compare first.
func (d EffortDuration) Minus(other EffortDuration) EffortDuration {
	if other.seconds > d.seconds {
		panic(NewArgumentError("Minus", "%s minus %s is negative", d, other))
	}
	return EffortDuration{seconds: d.seconds - other.seconds}
}

func (d EffortDuration) MultiplyBy(factor int) EffortDuration {
	if factor < 0 {
		panic(NewArgumentError("MultiplyBy", "negative factor %d", factor))
	}
	return EffortDuration{seconds: d.seconds * factor}
}

// DivideBy truncates to the second.
func (d EffortDuration) DivideBy(divisor int) EffortDuration {
	if divisor <= 0 {
		panic(NewArgumentError("DivideBy", "divisor must be positive, got %d", divisor))
	}
	return EffortDuration{seconds: d.seconds / divisor}
}

// DivideByDuration returns how many whole times other fits into d.
func (d EffortDuration) DivideByDuration(other EffortDuration) int {
	if other.IsZero() {
		panic(NewArgumentError("DivideByDuration", "division by zero duration"))
	}
	return d.seconds / other.seconds
}

// Sum adds all durations.
func Sum(durations ...EffortDuration) EffortDuration {
	total := Zero()
	for _, d := range durations {
		total = total.Plus(d)
	}
	return total
}

// -----------------------------------------------------------------------------
// Comparison
// -----------------------------------------------------------------------------

func (d EffortDuration) Compare(other EffortDuration) int {
	switch {
	case d.seconds < other.seconds:
		return -1
	case d.seconds > other.seconds:
		return 1
	default:
		return 0
	}
}

func (d EffortDuration) LessThan(other EffortDuration) bool { return d.seconds < other.seconds }
func (d EffortDuration) GreaterThan(other EffortDuration) bool { return d.seconds > other.seconds }
func (d EffortDuration) IsZero() bool { return d.seconds == 0 }

// MinDuration returns the shortest argument. It panics when called without
// arguments.
func MinDuration(durations ...EffortDuration) EffortDuration {
	if len(durations) == 0 {
		panic(NewArgumentError("MinDuration", "no durations given"))
	}
	m := durations[0]
	for _, d := range durations[1:] {
		if d.LessThan(m) {
			m = d
		}
	}
	return m
}

// MaxDuration returns the longest argument. It panics when called without
// arguments.
func MaxDuration(durations ...EffortDuration) EffortDuration {
	if len(durations) == 0 {
		panic(NewArgumentError("MaxDuration", "no durations given"))
	}
	m := durations[0]
	for _, d := range durations[1:] {
		if d.GreaterThan(m) {
			m = d
		}
	}
	return m
}

// -----------------------------------------------------------------------------
// Conversion
// -----------------------------------------------------------------------------

func (d EffortDuration) Seconds() int { return d.seconds }

// ToHours returns decimal hours rounded half-up to two places.
func (d EffortDuration) ToHours() decimal.Decimal {
	return d.ToHoursWithScale(2)
}

func (d EffortDuration) ToHoursWithScale(scale int32) decimal.Decimal {
	return decimal.NewFromInt(int64(d.seconds)).DivRound(secondsPerHourDecimal, scale)
}

// ToHoursAsInt truncates to whole hours.
func (d EffortDuration) ToHoursAsInt() int {
	return d.seconds / secondsPerHour
}

// String formats as h:mm, or h:mm:ss when there are leftover seconds.
func (d EffortDuration) String() string {
	h := d.seconds / secondsPerHour
	m := (d.seconds % secondsPerHour) / secondsPerMinute
	s := d.seconds % secondsPerMinute
	if s != 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", h, m)
}

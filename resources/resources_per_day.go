/*
Package resources holds ResourcesPerDay, the rate at which resource units
are applied to a task on each working day.

PURPOSE:
  A task staffed by "1.5 resources per day" consumes one and a half
  working days of capacity every calendar day. The amount is a fixed-point
  decimal with exactly two fractional digits, rounded half-up whenever one
  is built, so values that round alike are interchangeable.

ROUNDING:
  amount(2.236)  -> 2.24
  amount(2.2449) -> 2.24
  amount(2.005)  -> 2.01

SEE ALSO:
  - distributor.go: splitting one amount by fixed ratios
  - allocation/: applies ResourcesPerDay to calendar capacity
*/
package resources

import (
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/workday"
)

// Scale is the number of fractional digits kept by every ResourcesPerDay.
const Scale = 2

// =============================================================================
// RESOURCES PER DAY
// =============================================================================

// ResourcesPerDay is a non-negative amount with Scale fractional digits.
// Compare with Equal; use Key for map keys.
type ResourcesPerDay struct {
	amount decimal.Decimal
}

// Amount normalizes value to Scale digits. Negative values are rejected.
func Amount(value decimal.Decimal) (ResourcesPerDay, error) {
	if value.IsNegative() {
		return ResourcesPerDay{}, workday.NewArgumentError("resources.Amount", "negative amount %s", value)
	}
	return ResourcesPerDay{amount: value.Round(Scale)}, nil
}

// AmountInt is Amount for whole units.
func AmountInt(n int) (ResourcesPerDay, error) {
	return Amount(decimal.NewFromInt(int64(n)))
}

// MustAmount parses a literal such as "0.8" and panics on failure.
func MustAmount(s string) ResourcesPerDay {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(workday.NewArgumentError("resources.MustAmount", "%q is not a decimal", s))
	}
	r, err := Amount(d)
	if err != nil {
		panic(err)
	}
	return r
}

// Parse reads a decimal amount from caller input.
func Parse(s string) (ResourcesPerDay, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ResourcesPerDay{}, workday.NewArgumentError("resources.Parse", "%q is not a decimal", s)
	}
	return Amount(d)
}

// CalculateFrom returns worked/workable rounded half-up: the rate needed to
// get worked effort done within workable capacity.
func CalculateFrom(worked, workable workday.EffortDuration) (ResourcesPerDay, error) {
	if workable.IsZero() {
		return ResourcesPerDay{}, workday.NewArgumentError("resources.CalculateFrom", "workable effort is zero")
	}
	num := decimal.NewFromInt(int64(worked.Seconds()))
	den := decimal.NewFromInt(int64(workable.Seconds()))
	return Amount(num.DivRound(den, Scale))
}

func (r ResourcesPerDay) Decimal() decimal.Decimal { return r.amount }
func (r ResourcesPerDay) IsZero() bool { return r.amount.IsZero() }

func (r ResourcesPerDay) Equal(other ResourcesPerDay) bool {
	return r.amount.Equal(other.amount)
}

func (r ResourcesPerDay) Compare(other ResourcesPerDay) int {
	return r.amount.Cmp(other.amount)
}

func (r ResourcesPerDay) Add(other ResourcesPerDay) ResourcesPerDay {
	return ResourcesPerDay{amount: r.amount.Add(other.amount)}
}

// Key is equal for equal amounts.
func (r ResourcesPerDay) Key() string { return r.String() }

// String always shows Scale digits, e.g. "8.00".
func (r ResourcesPerDay) String() string {
	return r.amount.StringFixed(Scale)
}

// -----------------------------------------------------------------------------
// Conversion to effort
// -----------------------------------------------------------------------------

// AsHoursGivenResourceWorkingDayOf converts to whole hours for a resource
// whose working day lasts nominalDailyHours. Rounding is half-up, but a
// positive result never drops below one hour: non-zero work is never
// silently lost.
func (r ResourcesPerDay) AsHoursGivenResourceWorkingDayOf(nominalDailyHours int) int {
	return int(atLeastOne(r.amount.Mul(decimal.NewFromInt(int64(nominalDailyHours)))))
}

// AsDurationGivenWorkingDayOf applies the same rule at second granularity.
func (r ResourcesPerDay) AsDurationGivenWorkingDayOf(workingDay workday.EffortDuration) workday.EffortDuration {
	seconds := atLeastOne(r.amount.Mul(decimal.NewFromInt(int64(workingDay.Seconds()))))
	return workday.Seconds(int(seconds))
}

func atLeastOne(product decimal.Decimal) int64 {
	if !product.IsPositive() {
		return 0
	}
	return max(1, product.Round(0).IntPart())
}

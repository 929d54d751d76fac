package workday

import "fmt"

// =============================================================================
// CONSTRAINTS ON COMPARABLE VALUES
// =============================================================================

// Comparable is satisfied by IntraDayDate, EffortDuration and Date.
type Comparable[T any] interface {
	Compare(other T) int
}

type ComparisonType int

const (
	LessOrEqualThan ComparisonType = iota
	BiggerOrEqualThan
	EqualTo
)

func (c ComparisonType) String() string {
	switch c {
	case LessOrEqualThan:
		return "less_or_equal_than"
	case BiggerOrEqualThan:
		return "bigger_or_equal_than"
	case EqualTo:
		return "equal_to"
	default:
		return fmt.Sprintf("comparison(%d)", int(c))
	}
}

// Constraint bounds a value, e.g. "start not before 2025-03-10".
type Constraint[T Comparable[T]] struct {
	Type  ComparisonType
	Value T
}

func NotBefore[T Comparable[T]](v T) Constraint[T] { return Constraint[T]{Type: BiggerOrEqualThan, Value: v} }
func NotAfter[T Comparable[T]](v T) Constraint[T] { return Constraint[T]{Type: LessOrEqualThan, Value: v} }
func Exactly[T Comparable[T]](v T) Constraint[T] { return Constraint[T]{Type: EqualTo, Value: v} }

// IsSatisfiedBy panics with ErrUnreachable for an unknown Type.
func (c Constraint[T]) IsSatisfiedBy(v T) bool {
	cmp := v.Compare(c.Value)
	switch c.Type {
	case LessOrEqualThan:
		return cmp <= 0
	case BiggerOrEqualThan:
		return cmp >= 0
	case EqualTo:
		return cmp == 0
	default:
		panic(fmt.Errorf("%w: %s", ErrUnreachable, c.Type))
	}
}

// ApplyTo moves v to the nearest value that satisfies the constraint.
func (c Constraint[T]) ApplyTo(v T) T {
	switch c.Type {
	case LessOrEqualThan:
		if v.Compare(c.Value) > 0 {
			return c.Value
		}
		return v
	case BiggerOrEqualThan:
		if v.Compare(c.Value) < 0 {
			return c.Value
		}
		return v
	case EqualTo:
		return c.Value
	default:
		panic(fmt.Errorf("%w: %s", ErrUnreachable, c.Type))
	}
}

// ApplyConstraints applies each constraint in order; later ones win.
func ApplyConstraints[T Comparable[T]](v T, constraints ...Constraint[T]) T {
	for _, c := range constraints {
		v = c.ApplyTo(v)
	}
	return v
}

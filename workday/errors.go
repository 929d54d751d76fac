/*
errors.go - Error types for the workday value objects

ERROR CATEGORIES:
  1. Invalid argument - negative durations, zero dates, malformed intervals
  2. Exhausted iteration - Next() past the end of a day sequence
  3. Unreachable - a switch over a closed set hit an unknown value

All of them are contract violations raised at construction or call time.
Nothing here is retryable.
*/
package workday

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidArgument is returned (or raised through panic) when a value
	// object is built or combined with arguments that break its invariants.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoMoreElements is returned by DayIterator.Next once the sequence is
	// exhausted.
	ErrNoMoreElements = errors.New("no more elements")

	// ErrUnreachable signals a programming error, e.g. an unknown
	// ComparisonType.
	ErrUnreachable = errors.New("unreachable")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ArgumentError names the operation that rejected its arguments.
type ArgumentError struct {
	Op  string
	Msg string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// NewArgumentError builds an *ArgumentError with a formatted message.
func NewArgumentError(op, format string, args ...any) *ArgumentError {
	return &ArgumentError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

package allocation

import (
	"errors"
	"fmt"

	"github.com/warp/capacity-engine/workday"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnboundedAllocation is returned when an effort target can never be
	// reached, e.g. a zero rate without an end date.
	ErrUnboundedAllocation = errors.New("allocation can never complete")

	// ErrNoShares is returned by AllocateShares without shares.
	ErrNoShares = errors.New("no resource shares given")

	// ErrAllocationNotFound is returned by Store lookups.
	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrCalendarNotFound is returned when an allocation names an unknown
	// calendar.
	ErrCalendarNotFound = errors.New("calendar not found")

	// ErrNotOpenEnded is returned when extending a bounded allocation.
	ErrNotOpenEnded = errors.New("allocation is not open-ended")
)

// NotFoundError carries the missing ID.
type NotFoundError struct {
	Kind string // "allocation" or "calendar"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	if e.Kind == "calendar" {
		return ErrCalendarNotFound
	}
	return ErrAllocationNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid input.
func IsClientError(err error) bool {
	return errors.Is(err, workday.ErrInvalidArgument) ||
		errors.Is(err, ErrUnboundedAllocation) ||
		errors.Is(err, ErrNoShares) ||
		errors.Is(err, ErrNotOpenEnded)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAllocationNotFound) ||
		errors.Is(err, ErrCalendarNotFound)
}

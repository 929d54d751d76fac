/*
store.go - Persistence interface for allocations and day assignments

PURPOSE:
  The allocation engine computes; the Store keeps. An allocation and its
  day assignments are always written together so readers never see an
  allocation with half of its days.

IMPLEMENTATIONS:
  - allocation/store/memory.go: in-memory, for tests and previews
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - service.go: the only writer
*/
package allocation

import (
	"context"

	"github.com/warp/capacity-engine/calendar"
	"github.com/warp/capacity-engine/workday"
)

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	// SaveAllocation upserts the allocation and replaces all of its
	// assignments atomically.
	SaveAllocation(ctx context.Context, a Allocation, assignments []DayAssignment) error

	// AppendAssignments adds assignments to an existing allocation and
	// updates its computed fields. Used to extend open-ended allocations.
	AppendAssignments(ctx context.Context, a Allocation, assignments []DayAssignment) error

	// GetAllocation returns ErrAllocationNotFound for unknown IDs.
	GetAllocation(ctx context.Context, id string) (Allocation, error)

	ListAllocations(ctx context.Context) ([]Allocation, error)

	// ListOpenEnded returns allocations with neither effort nor end.
	ListOpenEnded(ctx context.Context) ([]Allocation, error)

	// Assignments returns the allocation's assignments ordered by date.
	Assignments(ctx context.Context, allocationID string) ([]DayAssignment, error)

	// AssignmentsForResource returns a resource's assignments in [from, to].
	AssignmentsForResource(ctx context.Context, resourceID string, from, to workday.Date) ([]DayAssignment, error)

	DeleteAllocation(ctx context.Context, id string) error
}

// CalendarSource resolves calendar IDs for the Service.
type CalendarSource interface {
	// GetCalendar returns ErrCalendarNotFound for unknown IDs.
	GetCalendar(ctx context.Context, id string) (*calendar.Calendar, error)
}

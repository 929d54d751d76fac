/*
service.go - Allocation lifecycle

PURPOSE:
  Ties the pure Allocator to persistence: resolve the calendar, compute,
  stamp IDs, save. The API and the horizon scheduler only talk to this.

FLOW:
  Preview    -> calendar lookup -> Allocate                  (nothing saved)
  Create     -> calendar lookup -> Allocate -> SaveAllocation
  Reallocate -> load allocation + assignments -> Reallocate -> SaveAllocation
  Extend     -> for each open-ended allocation -> Extend -> AppendAssignments
*/
package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warp/capacity-engine/workday"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Store     Store
	Calendars CalendarSource
	Allocator *Allocator

	// Now is overridable in tests.
	Now func() time.Time
}

func NewService(store Store, calendars CalendarSource) *Service {
	return &Service{
		Store:     store,
		Calendars: calendars,
		Allocator: NewAllocator(),
		Now:       time.Now,
	}
}

// Preview computes without saving.
func (s *Service) Preview(ctx context.Context, calendarID string, req Request) (*Result, error) {
	cal, err := s.Calendars.GetCalendar(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	return s.Allocator.Allocate(cal, req)
}

// Create computes and saves a new allocation.
func (s *Service) Create(ctx context.Context, calendarID string, req Request) (Allocation, *Result, error) {
	res, err := s.Preview(ctx, calendarID, req)
	if err != nil {
		return Allocation{}, nil, err
	}

	now := s.Now().UTC()
	alloc := Allocation{
		ID:              uuid.New().String(),
		TaskID:          req.TaskID,
		ResourceID:      req.ResourceID,
		CalendarID:      calendarID,
		Start:           res.Start,
		End:             req.End,
		Effort:          req.Effort,
		ResourcesPerDay: req.ResourcesPerDay,
		CreatedAt:       now,
	}
	alloc = withResult(alloc, res, now)
	stampIDs(alloc.ID, res.Assignments)

	if err := s.Store.SaveAllocation(ctx, alloc, res.Assignments); err != nil {
		return Allocation{}, nil, fmt.Errorf("save allocation %s: %w", alloc.ID, err)
	}
	return alloc, res, nil
}

// Reallocate recomputes an allocation from the given point on, keeping the
// days before it.
func (s *Service) Reallocate(ctx context.Context, id string, from workday.IntraDayDate) (Allocation, *Result, error) {
	alloc, err := s.Store.GetAllocation(ctx, id)
	if err != nil {
		return Allocation{}, nil, err
	}
	existing, err := s.Store.Assignments(ctx, id)
	if err != nil {
		return Allocation{}, nil, err
	}
	cal, err := s.Calendars.GetCalendar(ctx, alloc.CalendarID)
	if err != nil {
		return Allocation{}, nil, err
	}

	res, err := s.Allocator.Reallocate(cal, alloc.Request(), existing, from)
	if err != nil {
		return Allocation{}, nil, err
	}

	alloc = withResult(alloc, res, s.Now().UTC())
	for i := range res.Assignments {
		if res.Assignments[i].ID == "" {
			res.Assignments[i].ID = uuid.New().String()
		}
		res.Assignments[i].AllocationID = alloc.ID
	}
	if err := s.Store.SaveAllocation(ctx, alloc, res.Assignments); err != nil {
		return Allocation{}, nil, fmt.Errorf("save allocation %s: %w", alloc.ID, err)
	}
	return alloc, res, nil
}

// ExtendOpenEnded pushes every open-ended allocation forward to until.
// It returns how many allocations received new days.
func (s *Service) ExtendOpenEnded(ctx context.Context, until workday.Date) (int, error) {
	open, err := s.Store.ListOpenEnded(ctx)
	if err != nil {
		return 0, err
	}

	extended := 0
	for _, alloc := range open {
		existing, err := s.Store.Assignments(ctx, alloc.ID)
		if err != nil {
			return extended, err
		}
		cal, err := s.Calendars.GetCalendar(ctx, alloc.CalendarID)
		if err != nil {
			return extended, fmt.Errorf("extend %s: %w", alloc.ID, err)
		}
		res, err := s.Allocator.Extend(cal, alloc, existing, until)
		if err != nil {
			return extended, fmt.Errorf("extend %s: %w", alloc.ID, err)
		}
		if len(res.Assignments) == 0 {
			continue
		}

		stampIDs(alloc.ID, res.Assignments)
		alloc.Finish = res.End
		alloc.Assigned = alloc.Assigned.Plus(res.Assigned)
		alloc.UpdatedAt = s.Now().UTC()
		if err := s.Store.AppendAssignments(ctx, alloc, res.Assignments); err != nil {
			return extended, fmt.Errorf("extend %s: %w", alloc.ID, err)
		}
		extended++
	}
	return extended, nil
}

func withResult(a Allocation, res *Result, now time.Time) Allocation {
	a.Finish = res.End
	a.Assigned = res.Assigned
	a.Satisfied = res.Satisfied
	a.UpdatedAt = now
	return a
}

func stampIDs(allocationID string, assignments []DayAssignment) {
	for i := range assignments {
		assignments[i].ID = uuid.New().String()
		assignments[i].AllocationID = allocationID
	}
}

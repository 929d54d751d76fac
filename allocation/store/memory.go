// Package store provides in-memory implementations of the allocation
// storage interfaces.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/capacity-engine/allocation"
	"github.com/warp/capacity-engine/calendar"
	"github.com/warp/capacity-engine/workday"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements allocation.Store and allocation.CalendarSource.
type Memory struct {
	mu          sync.RWMutex
	allocations map[string]allocation.Allocation
	assignments map[string][]allocation.DayAssignment // by allocation ID, sorted by date
	calendars   map[string]*calendar.Calendar
}

func NewMemory() *Memory {
	return &Memory{
		allocations: make(map[string]allocation.Allocation),
		assignments: make(map[string][]allocation.DayAssignment),
		calendars:   make(map[string]*calendar.Calendar),
	}
}

// SaveCalendar stores c under its ID.
func (m *Memory) SaveCalendar(c *calendar.Calendar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendars[c.ID] = c
}

func (m *Memory) GetCalendar(_ context.Context, id string) (*calendar.Calendar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.calendars[id]
	if !ok {
		return nil, &allocation.NotFoundError{Kind: "calendar", ID: id}
	}
	return c, nil
}

func (m *Memory) SaveAllocation(_ context.Context, a allocation.Allocation, assignments []allocation.DayAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocations[a.ID] = a
	m.assignments[a.ID] = nil
	for _, as := range assignments {
		m.insertLocked(a.ID, as)
	}
	return nil
}

func (m *Memory) AppendAssignments(_ context.Context, a allocation.Allocation, assignments []allocation.DayAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.allocations[a.ID]; !ok {
		return &allocation.NotFoundError{Kind: "allocation", ID: a.ID}
	}
	m.allocations[a.ID] = a
	for _, as := range assignments {
		m.insertLocked(a.ID, as)
	}
	return nil
}

// insertLocked keeps the slice ordered by date with a binary search.
func (m *Memory) insertLocked(id string, as allocation.DayAssignment) {
	list := m.assignments[id]
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Date.After(as.Date)
	})
	list = append(list, allocation.DayAssignment{})
	copy(list[i+1:], list[i:])
	list[i] = as
	m.assignments[id] = list
}

func (m *Memory) GetAllocation(_ context.Context, id string) (allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.allocations[id]
	if !ok {
		return allocation.Allocation{}, &allocation.NotFoundError{Kind: "allocation", ID: id}
	}
	return a, nil
}

func (m *Memory) ListAllocations(_ context.Context) ([]allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedLocked(func(allocation.Allocation) bool { return true }), nil
}

func (m *Memory) ListOpenEnded(_ context.Context) ([]allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedLocked(allocation.Allocation.IsOpenEnded), nil
}

func (m *Memory) sortedLocked(keep func(allocation.Allocation) bool) []allocation.Allocation {
	var out []allocation.Allocation
	for _, a := range m.allocations {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Memory) Assignments(_ context.Context, allocationID string) ([]allocation.DayAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]allocation.DayAssignment, len(m.assignments[allocationID]))
	copy(result, m.assignments[allocationID])
	return result, nil
}

func (m *Memory) AssignmentsForResource(_ context.Context, resourceID string, from, to workday.Date) ([]allocation.DayAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []allocation.DayAssignment
	for _, list := range m.assignments {
		for _, as := range list {
			if as.ResourceID == resourceID && from.BeforeOrEqual(as.Date) && as.Date.BeforeOrEqual(to) {
				result = append(result, as)
			}
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (m *Memory) DeleteAllocation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.allocations[id]; !ok {
		return &allocation.NotFoundError{Kind: "allocation", ID: id}
	}
	delete(m.allocations, id)
	delete(m.assignments, id)
	return nil
}

/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates calendars and
	allocations that demonstrate specific features.

AVAILABLE SCENARIOS:

	standard-week:  One 8h Mon-Fri calendar, two resources, fixed effort
	holidays:       Recurring and one-off exceptions pushing work out
	part-time-team: Full-time and part-time calendars, open-ended allocation

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create calendars via factory
 3. Create allocations through the allocation service

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "holidays"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add a scenarioData entry with calendars and allocations

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - factory/plan.go: PlanJSON, the shape of a scenario
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/capacity-engine/allocation"
	"github.com/warp/capacity-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "standard-week",
		Name:        "Standard Week",
		Description: "Two resources on an 8h Monday-Friday calendar with fixed effort",
	},
	{
		ID:          "holidays",
		Name:        "Holidays",
		Description: "Christmas and a half day push the work further out",
	},
	{
		ID:          "part-time-team",
		Name:        "Part-Time Team",
		Description: "Full-time and part-time calendars plus an open-ended allocation",
	},
}

var standardWeek = map[string]string{
	"monday": "8", "tuesday": "8", "wednesday": "8", "thursday": "8", "friday": "8",
}

var scenarioData = map[string]factory.PlanJSON{
	"standard-week": {
		Calendars: []factory.CalendarJSON{
			{ID: "standard", Name: "Standard week", Weekly: standardWeek},
		},
		Allocations: []factory.AllocationJSON{
			{TaskID: "design", ResourceID: "alice", CalendarID: "standard", Start: "2025-03-10", Effort: "20", ResourcesPerDay: "1"},
			{TaskID: "review", ResourceID: "bob", CalendarID: "standard", Start: "2025-03-10+4:00", Effort: "6", ResourcesPerDay: "0.5"},
		},
	},
	"holidays": {
		Calendars: []factory.CalendarJSON{
			{
				ID: "standard", Name: "Standard week with holidays", Weekly: standardWeek,
				Exceptions: []factory.ExceptionJSON{
					{ID: "christmas", Date: "2025-12-25", Name: "Christmas", Capacity: "0", Recurring: true},
					{ID: "boxing-day", Date: "2025-12-26", Name: "Boxing Day", Capacity: "0", Recurring: true},
					{ID: "eve", Date: "2025-12-24", Name: "Christmas Eve", Capacity: "4"},
				},
			},
		},
		Allocations: []factory.AllocationJSON{
			{TaskID: "year-end-report", ResourceID: "alice", CalendarID: "standard", Start: "2025-12-22", Effort: "40", ResourcesPerDay: "1"},
		},
	},
	"part-time-team": {
		Calendars: []factory.CalendarJSON{
			{ID: "full-time", Name: "Full time", Weekly: standardWeek},
			{ID: "part-time", Name: "Part time", Weekly: map[string]string{
				"monday": "4", "tuesday": "4", "wednesday": "4", "thursday": "4",
			}},
		},
		Allocations: []factory.AllocationJSON{
			{TaskID: "migration", ResourceID: "alice", CalendarID: "full-time", Start: "2025-03-10", Effort: "30", ResourcesPerDay: "1"},
			{TaskID: "migration", ResourceID: "carol", CalendarID: "part-time", Start: "2025-03-10", Effort: "30", ResourcesPerDay: "1"},
			{TaskID: "support", ResourceID: "dave", CalendarID: "full-time", Start: "2025-03-10", ResourcesPerDay: "0.25"},
		},
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	data, ok := scenarioData[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := h.loadPlan(ctx, data); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// loadPlan saves the plan's calendars and creates its allocations.
func (h *Handler) loadPlan(ctx context.Context, data factory.PlanJSON) error {
	plan, err := h.Factory.PlanFromJSON(data)
	if err != nil {
		return err
	}
	for _, cj := range data.Calendars {
		if err := h.Store.SaveCalendar(ctx, plan.Calendars[cj.ID]); err != nil {
			return fmt.Errorf("calendar %s: %w", cj.ID, err)
		}
	}
	for _, item := range plan.Items {
		if _, _, err := h.Service.Create(ctx, item.CalendarID, item.Request); err != nil {
			return fmt.Errorf("allocation %s/%s: %w", item.Request.TaskID, item.Request.ResourceID, err)
		}
	}
	return nil
}

// SeedCalendar saves cal's definition when no calendar with its ID exists.
// It reports whether the calendar was created.
func (h *Handler) SeedCalendar(ctx context.Context, cj factory.CalendarJSON) (bool, error) {
	_, err := h.Store.GetCalendar(ctx, cj.ID)
	if err == nil {
		return false, nil
	}
	if !allocation.IsNotFound(err) {
		return false, err
	}
	cal, err := h.Factory.CalendarFromJSON(cj)
	if err != nil {
		return false, err
	}
	if err := h.Store.SaveCalendar(ctx, cal); err != nil {
		return false, err
	}
	return true, nil
}

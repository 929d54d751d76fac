/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

FORMATS:
  Dates:          "2006-01-02"
  Intra-day:      "2025-03-10+4:00" (date plus effort already consumed)
  Durations:      "7:30" plus a decimal "hours" companion field
  Rates:          "1.50" resources per day

TYPES:
  Calendar:
    factory.CalendarJSON, factory.ExceptionJSON, CapacityDTO

  Allocation:
    factory.AllocationJSON (request body), AllocationDTO, ResultDTO,
    DayAssignmentDTO, ReallocateRequest, ExtendRequest

  Rates:
    CalculateRequest/Response, DistributeRequest/Response

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the factory, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/: CalendarJSON and AllocationJSON
*/
package api

import (
	"time"

	"github.com/warp/capacity-engine/allocation"
	"github.com/warp/capacity-engine/workday"
)

// =============================================================================
// CALENDAR TYPES
// =============================================================================

// CapacityDTO is the capacity a calendar offers between two dates.
type CapacityDTO struct {
	CalendarID string           `json:"calendar_id"`
	From       string           `json:"from"`
	To         string           `json:"to"`
	Days       []DayCapacityDTO `json:"days"`
	Total      string           `json:"total"`
	TotalHours string           `json:"total_hours"`
}

// DayCapacityDTO is one day of a CapacityDTO.
type DayCapacityDTO struct {
	Date      string `json:"date"`
	Capacity  string `json:"capacity"`
	Hours     string `json:"hours"`
	Exception string `json:"exception,omitempty"`
}

// =============================================================================
// ALLOCATION TYPES
// =============================================================================

// DayAssignmentDTO represents one day of work for a resource.
type DayAssignmentDTO struct {
	ID           string `json:"id,omitempty"`
	AllocationID string `json:"allocation_id,omitempty"`
	ResourceID   string `json:"resource_id"`
	Date         string `json:"date"`
	Duration     string `json:"duration"`
	Hours        string `json:"hours"`
}

// ResultDTO is a computed allocation, saved or not.
type ResultDTO struct {
	Start       string             `json:"start"`
	End         string             `json:"end"`
	Assigned    string             `json:"assigned"`
	Remaining   string             `json:"remaining"`
	Satisfied   bool               `json:"satisfied"`
	ByResource  map[string]string  `json:"by_resource"`
	Assignments []DayAssignmentDTO `json:"assignments"`
}

// AllocationDTO represents a saved allocation in API responses.
type AllocationDTO struct {
	ID              string             `json:"id"`
	TaskID          string             `json:"task_id,omitempty"`
	ResourceID      string             `json:"resource_id"`
	CalendarID      string             `json:"calendar_id"`
	Start           string             `json:"start"`
	End             string             `json:"end,omitempty"`
	Effort          string             `json:"effort,omitempty"`
	ResourcesPerDay string             `json:"resources_per_day"`
	OpenEnded       bool               `json:"open_ended"`
	Finish          string             `json:"finish"`
	Assigned        string             `json:"assigned"`
	AssignedHours   string             `json:"assigned_hours"`
	Satisfied       bool               `json:"satisfied"`
	CreatedAt       string             `json:"created_at,omitempty"`
	UpdatedAt       string             `json:"updated_at,omitempty"`
	Assignments     []DayAssignmentDTO `json:"assignments,omitempty"`
}

// ReallocateRequest recomputes an allocation from a point on.
type ReallocateRequest struct {
	From string `json:"from"` // intra-day date
}

// ExtendRequest extends open-ended allocations up to a date.
type ExtendRequest struct {
	Until string `json:"until"`
}

// ExtendResponse reports how many allocations grew.
type ExtendResponse struct {
	Until    string `json:"until"`
	Extended int    `json:"extended"`
}

// =============================================================================
// RATE TYPES
// =============================================================================

// CalculateRequest asks for the rate that fits Effort into [Start, End).
type CalculateRequest struct {
	CalendarID string `json:"calendar_id"`
	Effort     string `json:"effort"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

type CalculateResponse struct {
	ResourcesPerDay string `json:"resources_per_day"`
	Workable        string `json:"workable"`
	WorkableHours   string `json:"workable_hours"`
}

// DistributeRequest splits Total between Ratios.
type DistributeRequest struct {
	Total  string   `json:"total"`
	Ratios []string `json:"ratios"`
}

type DistributeResponse struct {
	Shares []string `json:"shares"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toDayAssignmentDTOs(assignments []allocation.DayAssignment) []DayAssignmentDTO {
	dtos := make([]DayAssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = DayAssignmentDTO{
			ID:           a.ID,
			AllocationID: a.AllocationID,
			ResourceID:   a.ResourceID,
			Date:         a.Date.String(),
			Duration:     a.Duration.String(),
			Hours:        a.Duration.ToHours().StringFixed(2),
		}
	}
	return dtos
}

func toResultDTO(res *allocation.Result) ResultDTO {
	byResource := make(map[string]string)
	for id, d := range res.ByResource() {
		byResource[id] = d.String()
	}
	return ResultDTO{
		Start:       res.Start.String(),
		End:         res.End.String(),
		Assigned:    res.Assigned.String(),
		Remaining:   res.Remaining.String(),
		Satisfied:   res.Satisfied,
		ByResource:  byResource,
		Assignments: toDayAssignmentDTOs(res.Assignments),
	}
}

func toAllocationDTO(a allocation.Allocation, assignments []allocation.DayAssignment) AllocationDTO {
	dto := AllocationDTO{
		ID:              a.ID,
		TaskID:          a.TaskID,
		ResourceID:      a.ResourceID,
		CalendarID:      a.CalendarID,
		Start:           a.Start.String(),
		ResourcesPerDay: a.ResourcesPerDay.String(),
		OpenEnded:       a.IsOpenEnded(),
		Finish:          a.Finish.String(),
		Assigned:        a.Assigned.String(),
		AssignedHours:   a.Assigned.ToHours().StringFixed(2),
		Satisfied:       a.Satisfied,
		CreatedAt:       formatTimestamp(a.CreatedAt),
		UpdatedAt:       formatTimestamp(a.UpdatedAt),
	}
	if a.End != nil {
		dto.End = a.End.String()
	}
	if !a.Effort.IsZero() {
		dto.Effort = a.Effort.String()
	}
	if assignments != nil {
		dto.Assignments = toDayAssignmentDTOs(assignments)
	}
	return dto
}

func toCapacityDTO(calendarID string, from, to workday.Date, days []DayCapacityDTO, total workday.EffortDuration) CapacityDTO {
	return CapacityDTO{
		CalendarID: calendarID,
		From:       from.String(),
		To:         to.String(),
		Days:       days,
		Total:      total.String(),
		TotalHours: total.ToHours().StringFixed(2),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

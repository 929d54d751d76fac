/*
handlers.go - HTTP API handlers for the capacity engine

PURPOSE:
  Exposes calendars and the allocation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Calendars:
    GET    /api/calendars                          List all calendars
    POST   /api/calendars                          Create or replace a calendar
    GET    /api/calendars/{id}                     Get calendar details
    DELETE /api/calendars/{id}                     Delete calendar
    POST   /api/calendars/{id}/exceptions          Add a holiday/half day
    DELETE /api/calendars/{id}/exceptions/{exID}   Remove an exception
    GET    /api/calendars/{id}/capacity?from=&to=  Capacity per day

  Allocations:
    POST   /api/allocations/preview                Compute without saving
    POST   /api/allocations                        Compute and save
    GET    /api/allocations                        List allocations
    GET    /api/allocations/{id}                   Allocation with its days
    DELETE /api/allocations/{id}                   Delete allocation
    POST   /api/allocations/{id}/reallocate        Recompute from a point on

  Resources:
    GET    /api/resources/{id}/assignments?from=&to=  Load of one resource

  Rates:
    POST   /api/resources-per-day/calculate        Rate to fit effort in a window
    POST   /api/resources-per-day/distribute       Split a rate by ratios

  Admin:
    POST   /api/admin/extend                       Extend open-ended allocations

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Service: allocation lifecycle (compute + persist)
  - Factory: JSON to calendar/request conversion

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (factory)
  3. Call domain logic (allocation.Service / Allocator)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Calendar or allocation not found
  - 409: Conflict (day already assigned)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/capacity-engine/allocation"
	"github.com/warp/capacity-engine/calendar"
	"github.com/warp/capacity-engine/factory"
	"github.com/warp/capacity-engine/resources"
	"github.com/warp/capacity-engine/store/sqlite"
	"github.com/warp/capacity-engine/workday"
)

// maxCapacityDays bounds /capacity queries.
const maxCapacityDays = 731

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Service *allocation.Service
	Factory *factory.Factory

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:   store,
		Service: allocation.NewService(store, store),
		Factory: factory.New(),
	}
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListCalendars returns all calendars.
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := h.Store.ListCalendars(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calendars", err)
		return
	}

	dtos := make([]factory.CalendarJSON, len(calendars))
	for i, c := range calendars {
		dtos[i] = h.Factory.CalendarToJSON(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCalendar creates or replaces a calendar.
// POST /api/calendars
func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var req factory.CalendarJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cal, err := h.Factory.CalendarFromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid calendar", err)
		return
	}
	if err := h.Store.SaveCalendar(r.Context(), cal); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save calendar", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.Factory.CalendarToJSON(cal))
}

// GetCalendar returns a calendar with its exceptions.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.Store.GetCalendar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Factory.CalendarToJSON(cal))
}

// DeleteCalendar removes a calendar.
func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCalendar(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete calendar", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddCalendarException adds a capacity override to a calendar.
// POST /api/calendars/{id}/exceptions
func (h *Handler) AddCalendarException(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cal, err := h.Store.GetCalendar(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get calendar", err)
		return
	}

	var req factory.ExceptionJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	exception, err := h.Factory.ExceptionFromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid exception", err)
		return
	}
	if err := cal.AddException(exception); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid exception", err)
		return
	}
	if err := h.Store.SaveCalendar(ctx, cal); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save calendar", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.Factory.CalendarToJSON(cal))
}

// RemoveCalendarException deletes an exception by ID.
func (h *Handler) RemoveCalendarException(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cal, err := h.Store.GetCalendar(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get calendar", err)
		return
	}

	exceptionID := chi.URLParam(r, "exceptionID")
	if !cal.RemoveException(exceptionID) {
		writeError(w, http.StatusNotFound, "Exception not found", fmt.Errorf("no exception %s", exceptionID))
		return
	}
	if err := h.Store.SaveCalendar(ctx, cal); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save calendar", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCapacity lists the capacity of each day in [from, to].
// GET /api/calendars/{id}/capacity?from=2025-03-10&to=2025-03-16
func (h *Handler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	cal, err := h.Store.GetCalendar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get calendar", err)
		return
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	var days []DayCapacityDTO
	for d := from; !d.After(to); d = d.Next() {
		capacity := cal.CapacityOn(d)
		day := DayCapacityDTO{
			Date:     d.String(),
			Capacity: capacity.String(),
			Hours:    capacity.ToHours().StringFixed(2),
		}
		if e, ok := cal.ExceptionOn(d); ok {
			day.Exception = e.Name
		}
		days = append(days, day)
	}

	total, err := calendar.CapacityBetween(cal, workday.StartOfDay(from), workday.StartOfDay(to.Next()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	writeJSON(w, http.StatusOK, toCapacityDTO(cal.ID, from, to, days, total))
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

// PreviewAllocation computes an allocation without saving it. Shares are
// supported here since nothing is persisted.
// POST /api/allocations/preview
func (h *Handler) PreviewAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req factory.AllocationJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	request, err := h.Factory.RequestFromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid allocation", err)
		return
	}

	var res *allocation.Result
	if len(req.Shares) > 0 {
		shares, err := h.Factory.SharesFromJSON(req, func(id string) (*calendar.Calendar, error) {
			return h.Store.GetCalendar(ctx, id)
		})
		if err != nil {
			writeDomainError(w, "Invalid shares", err)
			return
		}
		res, err = h.Service.Allocator.AllocateShares(request, shares)
		if err != nil {
			writeDomainError(w, "Failed to compute allocation", err)
			return
		}
	} else {
		res, err = h.Service.Preview(ctx, req.CalendarID, request)
		if err != nil {
			writeDomainError(w, "Failed to compute allocation", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, toResultDTO(res))
}

// CreateAllocation computes and saves an allocation.
// POST /api/allocations
func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req factory.AllocationJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Shares) > 0 {
		writeError(w, http.StatusBadRequest, "Shares are only supported by preview; save one allocation per resource", nil)
		return
	}
	if req.ResourceID == "" {
		writeError(w, http.StatusBadRequest, "resource_id is required", nil)
		return
	}
	request, err := h.Factory.RequestFromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid allocation", err)
		return
	}

	alloc, res, err := h.Service.Create(r.Context(), req.CalendarID, request)
	if err != nil {
		writeDomainError(w, "Failed to create allocation", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAllocationDTO(alloc, res.Assignments))
}

// ListAllocations returns all allocations without their days.
func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	allocations, err := h.Store.ListAllocations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list allocations", err)
		return
	}

	dtos := make([]AllocationDTO, len(allocations))
	for i, a := range allocations {
		dtos[i] = toAllocationDTO(a, nil)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAllocation returns an allocation with its day assignments.
func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	alloc, err := h.Store.GetAllocation(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get allocation", err)
		return
	}
	assignments, err := h.Store.Assignments(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get assignments", err)
		return
	}
	if assignments == nil {
		assignments = []allocation.DayAssignment{}
	}

	writeJSON(w, http.StatusOK, toAllocationDTO(alloc, assignments))
}

// DeleteAllocation removes an allocation and its days.
func (h *Handler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteAllocation(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete allocation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReallocateAllocation keeps the days before "from" and recomputes the rest
// against the current calendar.
// POST /api/allocations/{id}/reallocate
func (h *Handler) ReallocateAllocation(w http.ResponseWriter, r *http.Request) {
	var req ReallocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	from, err := workday.ParseIntraDayDate(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from", err)
		return
	}

	alloc, res, err := h.Service.Reallocate(r.Context(), chi.URLParam(r, "id"), from)
	if err != nil {
		writeDomainError(w, "Failed to reallocate", err)
		return
	}

	writeJSON(w, http.StatusOK, toAllocationDTO(alloc, res.Assignments))
}

// GetResourceAssignments returns a resource's days across all allocations.
// GET /api/resources/{id}/assignments?from=&to=
func (h *Handler) GetResourceAssignments(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	assignments, err := h.Store.AssignmentsForResource(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get assignments", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayAssignmentDTOs(assignments))
}

// =============================================================================
// RATE HANDLERS
// =============================================================================

// CalculateResourcesPerDay returns the rate that fits the effort into the
// calendar's capacity between start and end.
// POST /api/resources-per-day/calculate
func (h *Handler) CalculateResourcesPerDay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	effort, err := workday.Parse(req.Effort)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effort", err)
		return
	}
	start, err := workday.ParseIntraDayDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start", err)
		return
	}
	end, err := workday.ParseIntraDayDate(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end", err)
		return
	}

	cal, err := h.Store.GetCalendar(ctx, req.CalendarID)
	if err != nil {
		writeDomainError(w, "Failed to get calendar", err)
		return
	}
	workable, err := calendar.CapacityBetween(cal, start, end)
	if err != nil {
		writeDomainError(w, "Invalid window", err)
		return
	}
	rate, err := allocation.ResourcesPerDayFor(cal, effort, start, end)
	if err != nil {
		writeDomainError(w, "No capacity in window", err)
		return
	}

	writeJSON(w, http.StatusOK, CalculateResponse{
		ResourcesPerDay: rate.String(),
		Workable:        workable.String(),
		WorkableHours:   workable.ToHours().StringFixed(2),
	})
}

// DistributeResourcesPerDay splits a total rate proportionally to ratios.
// POST /api/resources-per-day/distribute
func (h *Handler) DistributeResourcesPerDay(w http.ResponseWriter, r *http.Request) {
	var req DistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	total, err := resources.Parse(req.Total)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid total", err)
		return
	}
	ratios := make([]resources.ResourcesPerDay, len(req.Ratios))
	for i, s := range req.Ratios {
		if ratios[i], err = resources.Parse(s); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid ratio #%d", i+1), err)
			return
		}
	}
	distributor, err := resources.NewDistributor(ratios...)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ratios", err)
		return
	}

	shares := distributor.Distribute(total)
	resp := DistributeResponse{Shares: make([]string, len(shares))}
	for i, s := range shares {
		resp.Shares[i] = s.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ExtendOpenEnded extends every open-ended allocation up to "until".
// POST /api/admin/extend
func (h *Handler) ExtendOpenEnded(w http.ResponseWriter, r *http.Request) {
	var req ExtendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	until, err := workday.ParseDate(req.Until)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid until", err)
		return
	}

	n, err := h.Service.ExtendOpenEnded(r.Context(), until)
	if err != nil {
		writeDomainError(w, "Failed to extend allocations", err)
		return
	}
	writeJSON(w, http.StatusOK, ExtendResponse{Until: until.String(), Extended: n})
}

// =============================================================================
// HELPERS
// =============================================================================

// parseDateRange reads the inclusive ?from=&to= query parameters.
func parseDateRange(r *http.Request) (workday.Date, workday.Date, error) {
	from, err := workday.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		return workday.Date{}, workday.Date{}, fmt.Errorf("from: %w", err)
	}
	to, err := workday.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		return workday.Date{}, workday.Date{}, fmt.Errorf("to: %w", err)
	}
	if to.Before(from) {
		return workday.Date{}, workday.Date{}, fmt.Errorf("to %s is before from %s", to, from)
	}
	if workday.DaysBetween(from, to) > maxCapacityDays {
		return workday.Date{}, workday.Date{}, fmt.Errorf("range exceeds %d days", maxCapacityDays)
	}
	return from, to, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error's kind.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case allocation.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case allocation.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, sqlite.ErrDuplicateDay):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

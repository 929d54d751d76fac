/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/calendars/*         Calendars, exceptions and capacity
  /api/allocations/*       Allocation lifecycle
  /api/resources/*         Per-resource load
  /api/resources-per-day/* Rate calculations
  /api/admin/*             Admin operations
  /api/scenarios/*         Demo scenarios
  /health                  Liveness probe

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Calendar routes
		r.Route("/calendars", func(r chi.Router) {
			r.Get("/", h.ListCalendars)
			r.Post("/", h.CreateCalendar)
			r.Get("/{id}", h.GetCalendar)
			r.Delete("/{id}", h.DeleteCalendar)
			r.Post("/{id}/exceptions", h.AddCalendarException)
			r.Delete("/{id}/exceptions/{exceptionID}", h.RemoveCalendarException)
			r.Get("/{id}/capacity", h.GetCapacity)
		})

		// Allocation routes
		r.Route("/allocations", func(r chi.Router) {
			r.Get("/", h.ListAllocations)
			r.Post("/", h.CreateAllocation)
			r.Post("/preview", h.PreviewAllocation)
			r.Get("/{id}", h.GetAllocation)
			r.Delete("/{id}", h.DeleteAllocation)
			r.Post("/{id}/reallocate", h.ReallocateAllocation)
		})

		// Resource routes
		r.Get("/resources/{id}/assignments", h.GetResourceAssignments)

		// Rate routes
		r.Route("/resources-per-day", func(r chi.Router) {
			r.Post("/calculate", h.CalculateResourcesPerDay)
			r.Post("/distribute", h.DistributeResourcesPerDay)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/extend", h.ExtendOpenEnded)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client IP from X-Forwarded-For (used by login rate limit)
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/calc/*           Calculator (public)
  /api/shift-requests   Staff submissions (public)
  /api/employees/*      Staff hour views (public)
  /api/schedule         Final schedule (public)
  /api/admin/*          Manager operations (basic auth)

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Manager authentication
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	Auth           *ManagerAuth
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Calculator routes
		r.Route("/calc", func(r chi.Router) {
			r.Post("/worked", h.CalcWorked)
			r.Post("/allocate", h.CalcAllocate)
		})

		// Staff routes
		r.Post("/shift-requests", h.SubmitShiftRequests)
		r.Put("/shift-requests", h.EditShiftRequests)
		r.Get("/employees/{number}/shift-requests", h.ListPendingShiftRequests)
		r.Get("/employees/{number}/hours", h.GetEmployeeHours)
		r.Get("/schedule", h.GetSchedule)

		// Manager routes
		r.Route("/admin", func(r chi.Router) {
			if opts.Auth != nil {
				r.Use(opts.Auth.Middleware)
			}

			r.Get("/employees", h.ListEmployees)
			r.Post("/employees", h.CreateEmployee)
			r.Delete("/employees/{number}", h.DeleteEmployee)

			r.Get("/shift-requests", h.ListShiftRequests)
			r.Put("/schedule", h.FinalizeSchedule)

			r.Get("/attendance", h.GetAttendanceSheet)
			r.Put("/attendance", h.RecordAttendance)

			r.Get("/bands", h.GetBands)
			r.Put("/bands", h.SaveBands)
			r.Get("/summary", h.GetSummary)

			r.Post("/purge", h.Purge)
		})
	})

	return r
}

/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request, also the event correlation id
  2. RequestLogger: One zerolog line per request
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for the frontend
  5. Auth:          Bearer JWT on everything under /api
  6. RequireAdmin:  Role check on /api/admin

ROUTE GROUPS:
  /health               Liveness (no auth)
  /api/*                Employee routes
  /api/admin/*          Admin operations

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token verification
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterOptions carries the cross-cutting settings of the router.
type RouterOptions struct {
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, auth *Auth, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/me", h.Me)
		r.Put("/me", h.UpdateMe)
		r.Get("/projects", h.ListProjects)

		// Timesheet routes ({week} is any date in the week, or "current")
		r.Route("/timesheets/{week}", func(r chi.Router) {
			r.Get("/", h.GetTimesheet)
			r.Delete("/", h.DiscardTimesheet)
			r.Put("/hours", h.SetHours)
			r.Put("/leave", h.SetLeave)
			r.Put("/comment", h.SetComment)
			r.Post("/save", h.SaveTimesheet)
			r.Post("/submit", h.SubmitTimesheet)
		})

		r.Get("/reports/summary", h.Summary)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/holidays", h.ListHolidays)
		r.Get("/policy", h.GetPolicy)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Post("/", h.CreateEmployee)
				r.Get("/{id}/timesheets/{week}", h.InspectTimesheet)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", h.CreateProject)
				r.Get("/usage", h.ProjectUsage)
				r.Put("/{id}/status", h.SetProjectStatus)
			})

			r.Route("/timesheets", func(r chi.Router) {
				r.Get("/pending", h.ListPendingTimesheets)
				r.Post("/{user}/{week}/approve", h.ApproveTimesheet)
				r.Post("/{user}/{week}/reject", h.RejectTimesheet)
			})

			r.Route("/holidays", func(r chi.Router) {
				r.Post("/", h.CreateHoliday)
				r.Delete("/{id}", h.DeleteHoliday)
			})

			r.Put("/policy", h.UpdatePolicy)

			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
			})
		})
	})

	return r
}

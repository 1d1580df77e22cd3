/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (httplog, ECS schema)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/employees/*      Employees, ledgers, cycles, leave requests
  /api/requests/*       Single-request lookup, cancel and export
  /health               Liveness probe

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger *slog.Logger, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/ledger", h.GetLedger)
			r.Get("/{id}/cycle", h.GetCycle)
			r.Post("/{id}/usage", h.AdjustUsage)

			r.Post("/{id}/leave/preview", h.PreviewLeave)
			r.Post("/{id}/leave/requests", h.SubmitLeave)
			r.Get("/{id}/leave/requests", h.ListLeaveRequests)
		})

		// Request routes
		r.Route("/requests", func(r chi.Router) {
			r.Get("/{id}", h.GetLeaveRequest)
			r.Post("/{id}/cancel", h.CancelLeaveRequest)
			r.Get("/{id}/export", h.ExportLeaveRequest)
		})
	})

	return r
}

// NewLogger builds the JSON logger used by the server and its request log.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	format := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: format.ReplaceAttr,
	})).With(slog.String("app", "leave-engine"))
}

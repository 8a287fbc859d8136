/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in the request log
  2. Logger:     slog request log + request counter (middleware.go)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests from browser front ends

ROUTE GROUPS:
  /healthz                  Liveness
  /metrics                  Prometheus scrape endpoint
  /api/worksheets/*         Worksheet lifecycle, events, settlement
  /api/scenarios/*          Demo scenarios

SECURITY NOTE:
  No authentication. Every endpoint is public.

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

// NewRouter creates a new router with all routes configured. An empty
// allowedOrigins list allows every origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger(), h.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Worksheet routes
		r.Route("/worksheets", func(r chi.Router) {
			r.Get("/", h.ListWorksheets)
			r.Post("/", h.CreateWorksheet)
			r.Post("/import", h.ImportWorksheet)
			r.Get("/{id}", h.GetWorksheet)
			r.Delete("/{id}", h.DeleteWorksheet)
			r.Get("/{id}/export", h.ExportWorksheet)
			r.Post("/{id}/rebuild", h.RebuildWorksheet)
			r.Post("/{id}/events", h.ApplyEvent)
			r.Get("/{id}/settlement", h.GetSettlement)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

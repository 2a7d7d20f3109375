package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/schema-cache/internal/delivery/http/handler"
	"github.com/user/schema-cache/internal/delivery/http/middleware"
)

// FunctionsPrefix is where the public endpoints live, matching the paths already embedded
// in customer pages.
const FunctionsPrefix = "/functions/v1"

func New(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)

	r.NotFound(h.HandleNotFound)
	r.MethodNotAllowed(h.HandleMethodNotAllowed)

	r.Get("/api/health", h.HandleHealthCheck)

	// Prometheus metrics endpoint
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Handlers check their own methods so each endpoint answers with its own 405.
	r.Route(FunctionsPrefix, func(r chi.Router) {
		r.With(middleware.CORS([]string{"GET", "OPTIONS"}, []string{"Content-Type"})).
			HandleFunc("/get-schema", h.HandleGetSchema)
		r.With(middleware.CORS([]string{"POST", "OPTIONS"}, []string{"Content-Type"})).
			HandleFunc("/collect-signal", h.HandleCollectSignal)
		r.With(middleware.CORS([]string{"GET", "OPTIONS"}, []string{"Content-Type"})).
			HandleFunc("/schema-loader", h.HandleSchemaLoader)
		r.HandleFunc("/update-schema", h.HandleUpdateSchema)
		r.HandleFunc("/get-drift", h.HandleGetDrift)
	})

	return r
}

package edge

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the shared cache is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewAdminHandler serves /healthz and /metrics on the edge's private listener, keeping
// them off the proxied surface.
func NewAdminHandler(cache Pinger) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		if err := cache.Ping(ctx); err != nil {
			slog.Error("Health check failed for redis", "error", err)
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"redis": status})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

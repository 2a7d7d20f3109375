package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/schema-cache/internal/delivery/http/response"
	"github.com/user/schema-cache/internal/usecase"
)

const (
	apiKeyHeader = "X-API-Key"
	maxBodyBytes = 1 << 20
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the public responses.
type Options struct {
	// PublicBaseURL is embedded in the loader script; empty derives it from the request host.
	PublicBaseURL       string
	SchemaMaxAge        int
	MissingSchemaMaxAge int
}

type Handler struct {
	schemas usecase.SchemaManager
	drift   usecase.DriftManager
	db      Pinger
	opts    Options
}

// NewHandler wires the use cases into HTTP handlers. db may be nil when the service runs
// on the in-memory store.
func NewHandler(schemas usecase.SchemaManager, drift usecase.DriftManager, db Pinger, opts Options) *Handler {
	return &Handler{
		schemas: schemas,
		drift:   drift,
		db:      db,
		opts:    opts,
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Error("Health check failed for postgres", "error", err)
		h.writeJSON(w, http.StatusServiceUnavailable, response.HealthResponse{Status: "unhealthy", Postgres: "unhealthy"})
		return
	}
	h.writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok", Postgres: "healthy"})
}

func (h *Handler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSONError(w, "Not found", http.StatusNotFound)
}

func (h *Handler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// writeUseCaseError maps use case errors onto status codes. Anything unexpected is
// logged and hidden behind a generic 500.
func (h *Handler) writeUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, usecase.ErrMissingAPIKey):
		h.writeJSONError(w, "Missing API key", http.StatusUnauthorized)
	case errors.Is(err, usecase.ErrInvalidAPIKey):
		h.writeJSONError(w, "Invalid API key", http.StatusForbidden)
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSONError(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}

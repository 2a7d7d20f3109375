package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/user/schema-cache/internal/delivery/http/request"
	"github.com/user/schema-cache/internal/delivery/http/response"
	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/repository"
	"github.com/user/schema-cache/internal/usecase"
)

const jsonLDContentType = "application/ld+json"

// HandleGetSchema serves the JSON-LD document of one page. It is public and heavily
// cached; a page without a schema gets an empty document with a short lifetime.
func (h *Handler) HandleGetSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	organizationID := request.OrganizationID(q)
	pageURL := q.Get("url")
	if organizationID == "" || pageURL == "" {
		h.writeJSONError(w, "Missing client_id or url", http.StatusBadRequest)
		return
	}

	schema, err := h.schemas.Get(r.Context(), organizationID, pageURL)
	if errors.Is(err, repository.ErrSchemaNotFound) {
		w.Header().Set("Content-Type", jsonLDContentType)
		w.Header().Set("Cache-Control", cacheControl(h.opts.MissingSchemaMaxAge))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
		return
	}
	if err != nil {
		h.writeUseCaseError(w, r, err)
		return
	}

	etag := schema.ETag()
	w.Header().Set("Content-Type", jsonLDContentType)
	w.Header().Set("Cache-Control", cacheControl(h.opts.SchemaMaxAge))
	w.Header().Set("ETag", etag)
	w.Header().Set("Vary", "Origin")

	if etagMatches(r.Header.Values("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(schema.SchemaJSON); err != nil {
		slog.Error("Failed to write schema", "page_url", schema.PageURL, "error", err)
	}
}

// HandleUpdateSchema creates or replaces a page schema and clears its drift backlog.
func (h *Handler) HandleUpdateSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	apiKey := r.Header.Get(apiKeyHeader)
	if apiKey == "" {
		h.writeJSONError(w, "Missing API key", http.StatusUnauthorized)
		return
	}

	var req request.UpdateSchemaRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	version, err := h.schemas.Update(r.Context(), apiKey, usecase.UpdateSchemaInput{
		OrganizationID: req.OrganizationID(),
		PageURL:        req.PageURL,
		SchemaJSON:     req.SchemaJSON,
		ContentHash:    req.ContentHash,
		SourceMode:     entity.SourceMode(req.SourceMode),
	})
	if err != nil {
		h.writeUseCaseError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response.UpdateSchemaResponse{Success: true, CacheVersion: version})
}

func cacheControl(maxAge int) string {
	return "public, max-age=" + strconv.Itoa(maxAge)
}

// etagMatches applies the weak comparison of If-None-Match: any listed tag, with or
// without its W/ prefix, or "*" matches.
func etagMatches(headers []string, etag string) bool {
	for _, header := range headers {
		for _, candidate := range strings.Split(header, ",") {
			candidate = strings.TrimSpace(candidate)
			if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
				return true
			}
		}
	}
	return false
}

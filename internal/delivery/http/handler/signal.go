package handler

import (
	"net/http"
	"strconv"

	"github.com/user/schema-cache/internal/delivery/http/request"
	"github.com/user/schema-cache/internal/delivery/http/response"
	"github.com/user/schema-cache/internal/usecase"
)

// HandleCollectSignal records a page fingerprint posted by the loader script.
func (h *Handler) HandleCollectSignal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req request.CollectSignalRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	drift, err := h.drift.Collect(r.Context(), usecase.CollectSignalInput{
		OrganizationID: req.OrganizationID(),
		URL:            req.URL,
		Signals:        req.Signals,
	})
	if err != nil {
		h.writeUseCaseError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response.CollectSignalResponse{Received: true, DriftDetected: drift})
}

// HandleGetDrift lists the pages whose content changed since their schema was written.
func (h *Handler) HandleGetDrift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	organizationID := request.OrganizationID(q)
	apiKey := r.Header.Get(apiKeyHeader)
	if organizationID == "" || apiKey == "" {
		h.writeJSONError(w, "Missing organization_id or API key", http.StatusBadRequest)
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	pages, err := h.drift.ListDrift(r.Context(), apiKey, organizationID, limit)
	if err != nil {
		h.writeUseCaseError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewDriftResponse(pages))
}

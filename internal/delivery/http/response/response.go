package response

import (
	"encoding/json"
	"time"

	"github.com/user/schema-cache/internal/entity"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type UpdateSchemaResponse struct {
	Success      bool `json:"success"`
	CacheVersion int  `json:"cache_version"`
}

type CollectSignalResponse struct {
	Received      bool `json:"received"`
	DriftDetected bool `json:"drift_detected"`
}

// DriftedPageResponse is a DTO for one page awaiting regeneration, mirroring entity.DriftedPage
type DriftedPageResponse struct {
	PageURL       string          `json:"page_url"`
	CurrentHash   string          `json:"current_hash"`
	PreviousHash  *string         `json:"previous_hash"`
	FirstDetected time.Time       `json:"first_detected"`
	Signals       json.RawMessage `json:"signals"`
}

type DriftResponse struct {
	DriftCount int                   `json:"drift_count"`
	Pages      []DriftedPageResponse `json:"pages"`
}

// NewDriftResponse converts use case output into the wire format.
func NewDriftResponse(pages []entity.DriftedPage) DriftResponse {
	out := make([]DriftedPageResponse, 0, len(pages))
	for _, p := range pages {
		signals := p.Signals
		if len(signals) == 0 {
			signals = json.RawMessage("null")
		}
		out = append(out, DriftedPageResponse{
			PageURL:       p.PageURL,
			CurrentHash:   p.CurrentHash,
			PreviousHash:  p.PreviousHash,
			FirstDetected: p.FirstDetected,
			Signals:       signals,
		})
	}
	return DriftResponse{DriftCount: len(out), Pages: out}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Postgres string `json:"postgres,omitempty"`
}

package request

import (
	"encoding/json"
	"net/url"
)

// The public API predates the rename of clients to organizations, so every endpoint
// accepts both names for the tenant id.
const (
	organizationIDParam = "organization_id"
	clientIDParam       = "client_id"
)

// OrganizationID returns the tenant id from a query string, preferring organization_id
// over the legacy client_id.
func OrganizationID(q url.Values) string {
	if id := q.Get(organizationIDParam); id != "" {
		return id
	}
	return q.Get(clientIDParam)
}

// Tenant is embedded by request bodies that identify an organization.
type Tenant struct {
	OrgID    string `json:"organization_id"`
	ClientID string `json:"client_id"`
}

// OrganizationID resolves the tenant the same way the query-string form does.
func (t Tenant) OrganizationID() string {
	if t.OrgID != "" {
		return t.OrgID
	}
	return t.ClientID
}

type UpdateSchemaRequest struct {
	Tenant
	PageURL     string          `json:"page_url"`
	SchemaJSON  json.RawMessage `json:"schema_json"`
	ContentHash string          `json:"content_hash"`
	SourceMode  string          `json:"source_mode"`
}

type CollectSignalRequest struct {
	Tenant
	URL     string          `json:"url"`
	Signals json.RawMessage `json:"signals"`
}

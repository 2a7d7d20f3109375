package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/schema-cache/internal/adapter/memory"
	"github.com/user/schema-cache/internal/delivery/http/handler"
	"github.com/user/schema-cache/internal/delivery/http/router"
	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/usecase"
	"github.com/user/schema-cache/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

const (
	orgID  = "org-a"
	apiKey = "secret-a"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newServer(t *testing.T, db handler.Pinger, opts handler.Options) http.Handler {
	t.Helper()
	store := memory.NewStore()
	for _, org := range []entity.Organization{
		{ID: orgID, Domain: "x.com", APIKey: apiKey},
		{ID: "org-b", Domain: "y.com", APIKey: "secret-b"},
	} {
		_, err := store.Organizations().SaveByDomain(context.Background(), &org)
		require.NoError(t, err)
	}
	schemas := usecase.NewSchemaManager(store.Organizations(), store.PageSchemas(), store.DriftSignals())
	drift := usecase.NewDriftManager(store.Organizations(), store.PageSchemas(), store.DriftSignals())
	if opts.SchemaMaxAge == 0 {
		opts.SchemaMaxAge = 86400
	}
	if opts.MissingSchemaMaxAge == 0 {
		opts.MissingSchemaMaxAge = 300
	}
	return router.New(handler.NewHandler(schemas, drift, db, opts))
}

func do(t *testing.T, srv http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func putSchema(t *testing.T, srv http.Handler, pageURL, schema, hash string) int {
	t.Helper()
	body := `{"organization_id":"` + orgID + `","page_url":"` + pageURL + `","schema_json":` + schema
	if hash != "" {
		body += `,"content_hash":"` + hash + `"`
	}
	body += `}`
	rec := do(t, srv, http.MethodPost, "/functions/v1/update-schema", body, map[string]string{"X-API-Key": apiKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success      bool `json:"success"`
		CacheVersion int  `json:"cache_version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	return resp.CacheVersion
}

func TestUpdateThenGetSchema(t *testing.T) {
	srv := newServer(t, nil, handler.Options{})
	doc := `{"@context":"https://schema.org","@type":"Organization","name":"X"}`

	assert.Equal(t, 1, putSchema(t, srv, "https://x.com/about/", doc, "abc"))
	assert.Equal(t, 2, putSchema(t, srv, "https://x.com/about", doc, "abc"))

	rec := do(t, srv, http.MethodGet, "/functions/v1/get-schema?client_id=org-a&url=https%3A%2F%2Fx.com%2Fabout%2F", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, doc, rec.Body.String())
	assert.Equal(t, "application/ld+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
	assert.Equal(t, `"2"`, rec.Header().Get("ETag"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetSchema_NotModified(t *testing.T) {
	srv := newServer(t, nil, handler.Options{})
	putSchema(t, srv, "https://x.com", `{"a":1}`, "")

	rec := do(t, srv, http.MethodGet, "/functions/v1/get-schema?organization_id=org-a&url=https://x.com", "",
		map[string]string{"If-None-Match": `"1"`})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, `"1"`, rec.Header().Get("ETag"))

	rec = do(t, srv, http.MethodGet, "/functions/v1/get-schema?organization_id=org-a&url=https://x.com", "",
		map[string]string{"If-None-Match": `"0"`})
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, header := range []string{`W/"1"`, `"0", "1"`, `"0",W/"1"`, `*`} {
		rec = do(t, srv, http.MethodGet, "/functions/v1/get-schema?organization_id=org-a&url=https://x.com", "",
			map[string]string{"If-None-Match": header})
		assert.Equal(t, http.StatusNotModified, rec.Code, header)
	}

	rec = do(t, srv, http.MethodGet, "/functions/v1/get-schema?organization_id=org-a&url=https://x.com", "",
		map[string]string{"If-None-Match": `"0", W/"2"`})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetSchema_Missing(t *testing.T) {
	srv := newServer(t, nil, handler.Options{})

	rec := do(t, srv, http.MethodGet, "/functions/v1/get-schema?client_id=org-a&url=https://x.com/none", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{}", rec.Body.String())
	assert.Equal(t, "application/ld+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("ETag"))

	// Schemas are scoped to their organization.
	putSchema(t, srv, "https://x.com/none", `{"a":1}`, "")
	rec = do(t, srv, http.MethodGet, "/functions/v1/get-schema?client_id=org-b&url=https://x.com/none", "", nil)
	assert.Equal(t, "{}", rec.Body.String())
}

func TestGetSchema_BadRequestAndPreflight(t *testing.T) {
	srv := newServer(t, nil, handler.Options{})

	rec := do(t, srv, http.MethodGet, "/functions/v1/get-schema?url=https://x.com", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing client_id or url"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, srv, http.MethodOptions, "/functions/v1/get-schema", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))

	rec = do(t, srv, http.MethodPost, "/functions/v1/get-schema", "{}", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUpdateSchema_ErrorOrder(t *testing.T) {
	srv := newServer(t, nil, handler.Options{})
	const path = "/functions/v1/update-schema"
	valid := `{"client_id":"org-a","page_url":"https://x.com","schema_json":{"a":1}}`

	cases := []struct {
		name   string
		method string
		body   string
		key    string
		want   int
	}{
		{"wrong method", http.MethodGet, "", apiKey, http.StatusMethodNotAllowed},
		{"missing key before bad json", http.MethodPost, "{", "", http.StatusUnauthorized},
		{"invalid json", http.MethodPost, "{", apiKey, http.StatusBadRequest},
		{"missing fields before auth", http.MethodPost, `{"client_id":"org-a"}`, "wrong", http.StatusBadRequest},
		{"null schema", http.MethodPost, `{"client_id":"org-a","page_url":"https://x.com","schema_json":null}`, apiKey, http.StatusBadRequest},
		{"bad source mode", http.MethodPost, `{"client_id":"org-a","page_url":"https://x.com","schema_json":{},"source_mode":"magic"}`, apiKey, http.StatusBadRequest},
		{"wrong key", http.MethodPost, valid, "secret-b", http.StatusForbidden},
		{"unknown org", http.MethodPost, `{"client_id":"org-z","page_url":"https://x.com","schema_json":{}}`, apiKey, http.StatusForbidden},
		{"ok", http.MethodPost, valid, apiKey, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			header := map[string]string{}
			if tc.key != "" {
				header["X-API-Key"] = tc.key
			}
			rec := do(t, srv, tc.method, path, tc.body, header)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestCollectSignalAndDrift(t *testing.T) {
	srv := newServer(t, nil, handler.Options{})
	putSchema(t, srv, "https://x.com/p", `{"a":1}`, "h0")

	post := func(hash string) bool {
		rec := do(t, srv, http.MethodPost, "/functions/v1/collect-signal",
			`{"client_id":"org-a","url":"https://x.com/p/","signals":{"title":"P","content_hash":"`+hash+`"}}`, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		var resp struct {
			Received      bool `json:"received"`
			DriftDetected bool `json:"drift_detected"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Received)
		return resp.DriftDetected
	}

	assert.False(t, post("h0"))
	assert.True(t, post("h1"))
	assert.True(t, post("h2"))

	rec := do(t, srv, http.MethodGet, "/functions/v1/get-drift?organization_id=org-a", "", map[string]string{"X-API-Key": apiKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var drift struct {
		DriftCount int `json:"drift_count"`
		Pages      []struct {
			PageURL       string          `json:"page_url"`
			CurrentHash   string          `json:"current_hash"`
			PreviousHash  *string         `json:"previous_hash"`
			FirstDetected string          `json:"first_detected"`
			Signals       json.RawMessage `json:"signals"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drift))
	require.Equal(t, 1, drift.DriftCount)
	require.Len(t, drift.Pages, 1)
	assert.Equal(t, "https://x.com/p", drift.Pages[0].PageURL)
	assert.Equal(t, "h2", drift.Pages[0].CurrentHash)
	require.NotNil(t, drift.Pages[0].PreviousHash)
	assert.Equal(t, "h0", *drift.Pages[0].PreviousHash)
	assert.NotEmpty(t, drift.Pages[0].FirstDetected)
	assert.JSONEq(t, `{"title":"P","content_hash":"h2"}`, string(drift.Pages[0].Signals))

	// Publishing a fresh schema clears the backlog.
	putSchema(t, srv, "https://x.com/p", `{"a":2}`, "h2")
	rec = do(t, srv, http.MethodGet, "/functions/v1/get-drift?client_id=org-a", "", map[string]string{"X-API-Key": apiKey})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"drift_count":0,"pages":[]}`, rec.Body.String())
}

func TestCollectSignal_Errors(t *testing.T) {
	srv := newServer(t, nil, handler.Options{})
	const path = "/functions/v1/collect-signal"

	rec := do(t, srv, http.MethodOptions, path, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, path, "not json", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, path, `{"client_id":"org-a","url":"https://x.com","signals":{}}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, path, `{"client_id":"org-z","url":"https://x.com","signals":{"content_hash":"h"}}`, nil).Code)
}

func TestGetDrift_Errors(t *testing.T) {
	srv := newServer(t, nil, handler.Options{})
	const path = "/functions/v1/get-drift?organization_id=org-a"

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/functions/v1/get-drift", "", map[string]string{"X-API-Key": apiKey}).Code)
	assert.Equal(t, http.StatusForbidden, do(t, srv, http.MethodGet, path, "", map[string]string{"X-API-Key": "secret-b"}).Code)
	assert.Equal(t, http.StatusForbidden, do(t, srv, http.MethodGet, "/functions/v1/get-drift?organization_id=org-z", "", map[string]string{"X-API-Key": apiKey}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, path+"&limit=0", "", map[string]string{"X-API-Key": apiKey}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, path+"&limit=abc", "", map[string]string{"X-API-Key": apiKey}).Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, path+"&limit=5", "", map[string]string{"X-API-Key": apiKey}).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodPost, path, "", map[string]string{"X-API-Key": apiKey}).Code)
}

func TestSchemaLoader(t *testing.T) {
	srv := newServer(t, nil, handler.Options{})

	rec := do(t, srv, http.MethodGet, "/functions/v1/schema-loader", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "// Missing client_id parameter", rec.Body.String())
	assert.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))

	req := httptest.NewRequest(http.MethodGet, "/functions/v1/schema-loader?client_id=org-a&page_url=https://x.com/it's", nil)
	req.Host = "cdn.example.com"
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, body, `var clientId = 'org-a';`)
	assert.Contains(t, body, `var baseUrl = 'https://cdn.example.com/functions/v1';`)
	assert.Contains(t, body, `var overrideUrl = 'https://x.com/it\'s';`)
	assert.Contains(t, body, "text.substring(0, 2000)")
	assert.NotContains(t, body, "{{")
}

func TestSchemaLoader_PublicBaseURL(t *testing.T) {
	srv := newServer(t, nil, handler.Options{PublicBaseURL: "https://schemas.example.com/functions/v1"})

	rec := do(t, srv, http.MethodGet, "/functions/v1/schema-loader?client_id=org-a", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `var baseUrl = 'https://schemas.example.com/functions/v1';`)
	assert.Contains(t, rec.Body.String(), `var overrideUrl = '';`)
}

func TestHealthCheck(t *testing.T) {
	rec := do(t, newServer(t, nil, handler.Options{}), http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, newServer(t, fakePinger{}, handler.Options{}), http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","postgres":"healthy"}`, rec.Body.String())

	rec = do(t, newServer(t, fakePinger{err: errors.New("down")}, handler.Options{}), http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	srv := newServer(t, nil, handler.Options{})

	rec := do(t, srv, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
}

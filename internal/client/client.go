// Package client talks to the origin's public functions API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/user/schema-cache/internal/delivery/http/request"
	"github.com/user/schema-cache/internal/delivery/http/response"
	"github.com/user/schema-cache/internal/entity"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Client calls the functions API on behalf of an operator.
type Client struct {
	baseURL string // e.g. "https://schemas.example.com/functions/v1"
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// PushSchemaInput is the schema an operator publishes for one page.
type PushSchemaInput struct {
	OrganizationID string
	PageURL        string
	SchemaJSON     json.RawMessage
	ContentHash    string
	SourceMode     entity.SourceMode
}

// UpdateSchema publishes a schema and returns the new cache version.
func (c *Client) UpdateSchema(ctx context.Context, in PushSchemaInput) (int, error) {
	body := request.UpdateSchemaRequest{
		Tenant:      request.Tenant{OrgID: in.OrganizationID},
		PageURL:     in.PageURL,
		SchemaJSON:  in.SchemaJSON,
		ContentHash: in.ContentHash,
		SourceMode:  string(in.SourceMode),
	}
	var resp response.UpdateSchemaResponse
	if err := c.do(ctx, http.MethodPost, "/update-schema", nil, body, true, &resp); err != nil {
		return 0, err
	}
	return resp.CacheVersion, nil
}

// ListDrift fetches the pages awaiting a new schema. limit <= 0 fetches all.
func (c *Client) ListDrift(ctx context.Context, organizationID string, limit int) (*response.DriftResponse, error) {
	q := url.Values{"organization_id": {organizationID}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp response.DriftResponse
	if err := c.do(ctx, http.MethodGet, "/get-drift", q, nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CollectSignal posts a page fingerprint exactly as the loader script does.
func (c *Client) CollectSignal(ctx context.Context, organizationID, pageURL string, signals *entity.PageSignals) (bool, error) {
	raw, err := json.Marshal(signals)
	if err != nil {
		return false, fmt.Errorf("marshal signals: %w", err)
	}
	body := request.CollectSignalRequest{
		Tenant:  request.Tenant{ClientID: organizationID},
		URL:     pageURL,
		Signals: raw,
	}
	var resp response.CollectSignalResponse
	if err := c.do(ctx, http.MethodPost, "/collect-signal", nil, body, false, &resp); err != nil {
		return false, err
	}
	return resp.DriftDetected, nil
}

// GetSchema reads a page's schema through the public read path. An empty document
// means the page has none yet.
func (c *Client) GetSchema(ctx context.Context, organizationID, pageURL string) (json.RawMessage, string, error) {
	q := url.Values{"client_id": {organizationID}, "url": {pageURL}}
	req, err := c.newRequest(ctx, http.MethodGet, "/get-schema", q, nil, false)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("HTTP GET %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, "", err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	return body, resp.Header.Get("ETag"), nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in any, auth bool, out any) error {
	req, err := c.newRequest(ctx, method, path, q, in, auth)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, in any, auth bool) (*http.Request, error) {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return req, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	var e response.ErrorResponse
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

package entity

import "net/http"

// CachedResponse is an origin response held by the edge cache.
type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
}

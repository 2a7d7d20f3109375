// Package edge implements the shared cache that sits in front of the origin's read path.
package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/repository"
	"github.com/user/schema-cache/pkg/metrics"
)

const (
	headerCache = "X-Cache"

	preflightMethods = "GET, POST, OPTIONS"
	preflightHeaders = "Content-Type, X-API-Key"

	storeTimeout = 10 * time.Second
)

// Options configures a Proxy.
type Options struct {
	OriginURL string
	// CachePath marks cacheable GETs: any path containing it.
	CachePath string
	// ForwardHostHeader carries the client-facing host to the origin, which strips the
	// standard forwarding headers.
	ForwardHostHeader string
	TTL               time.Duration
	// Transport overrides http.DefaultTransport for origin calls.
	Transport http.RoundTripper
}

type cacheKeyCtxKey struct{}

// Proxy is an http.Handler that forwards everything to the origin and serves cacheable
// GETs from a shared ResponseCacheRepository.
type Proxy struct {
	cache   repository.ResponseCacheRepository
	opts    Options
	origin  *url.URL
	reverse *httputil.ReverseProxy
	pending sync.WaitGroup
}

// New creates a Proxy in front of opts.OriginURL.
func New(cache repository.ResponseCacheRepository, opts Options) (*Proxy, error) {
	origin, err := url.Parse(opts.OriginURL)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid origin URL %q", opts.OriginURL)
	}
	if opts.CachePath == "" {
		return nil, errors.New("cache path is required")
	}
	if opts.TTL <= 0 {
		return nil, errors.New("cache TTL must be positive")
	}

	p := &Proxy{
		cache:  cache,
		opts:   opts,
		origin: origin,
	}
	p.reverse = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleOriginError,
		Transport:      opts.Transport,
	}
	return p, nil
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodOptions:
		metrics.EdgeCacheRequests.WithLabelValues("preflight").Inc()
		setCORS(w.Header())
		w.Header().Set("Access-Control-Allow-Methods", preflightMethods)
		w.Header().Set("Access-Control-Allow-Headers", preflightHeaders)
		w.WriteHeader(http.StatusOK)

	case p.cacheable(r):
		key := cacheKey(r)
		cached, err := p.cache.Get(r.Context(), key)
		if err == nil {
			metrics.EdgeCacheRequests.WithLabelValues("hit").Inc()
			writeHit(w, cached)
			return
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			// The shared cache is an optimization; fall back to the origin.
			slog.Warn("Cache lookup failed", "key", key, "error", err)
		}
		metrics.EdgeCacheRequests.WithLabelValues("miss").Inc()
		ctx := context.WithValue(r.Context(), cacheKeyCtxKey{}, key)
		p.reverse.ServeHTTP(w, r.WithContext(ctx))

	default:
		metrics.EdgeCacheRequests.WithLabelValues("pass").Inc()
		p.reverse.ServeHTTP(w, r)
	}
}

// Wait blocks until every background cache fill has finished or ctx is done.
func (p *Proxy) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Proxy) cacheable(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.URL.Path, p.opts.CachePath)
}

// cacheKey is the full client-facing URL. Headers never vary the key.
func cacheKey(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(p.origin)
	pr.Out.Header.Set(p.opts.ForwardHostHeader, pr.In.Host)
	if pr.In.Method == http.MethodGet || pr.In.Method == http.MethodHead {
		pr.Out.Body = http.NoBody
		pr.Out.ContentLength = 0
	}
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	key, ok := resp.Request.Context().Value(cacheKeyCtxKey{}).(string)
	if !ok {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read origin response: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))

	resp.Header.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(p.opts.TTL.Seconds())))
	resp.Header.Set(headerCache, "MISS")
	setCORS(resp.Header)

	// Only successful reads are shared; errors and bad requests go back to the origin.
	if resp.StatusCode == http.StatusOK {
		p.store(resp.Request.Context(), key, &entity.CachedResponse{
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       body,
		})
	}
	return nil
}

// store fills the cache in the background. It must finish even after the client is gone,
// so it detaches from the request's cancellation and is tracked by Wait.
func (p *Proxy) store(reqCtx context.Context, key string, resp *entity.CachedResponse) {
	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), storeTimeout)
		defer cancel()

		if err := p.cache.Put(ctx, key, resp, p.opts.TTL); err != nil {
			metrics.EdgeCacheStoreErrors.Inc()
			slog.Warn("Failed to store response in edge cache", "key", key, "error", err)
			return
		}
		slog.Debug("Stored response in edge cache", "key", key, "bytes", len(resp.Body))
	}()
}

func (p *Proxy) handleOriginError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("Origin request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Bad gateway"})
}

func writeHit(w http.ResponseWriter, cached *entity.CachedResponse) {
	h := w.Header()
	for k, vv := range cached.Header {
		h[k] = append([]string(nil), vv...)
	}
	h.Set(headerCache, "HIT")
	setCORS(h)
	w.WriteHeader(cached.StatusCode)
	if _, err := w.Write(cached.Body); err != nil {
		slog.Debug("Failed to write cached response", "error", err)
	}
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Expose-Headers", headerCache)
}

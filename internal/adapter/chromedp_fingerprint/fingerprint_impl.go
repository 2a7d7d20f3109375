package chromedp_fingerprint

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/schema-cache/internal/entity"
)

const defaultUserAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36`

// Fingerprinter renders pages in headless Chrome and computes loader-compatible signals.
type Fingerprinter struct {
	allocatorOpts []chromedp.ExecAllocatorOption
	timeout       time.Duration
}

// NewFingerprinter creates a Fingerprinter. Each Fingerprint call starts its own browser
// bound to the caller's context, so cancelling the context tears Chrome down.
func NewFingerprinter(pageLoadTimeout time.Duration) *Fingerprinter {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(defaultUserAgent),
	)
	return &Fingerprinter{
		allocatorOpts: opts,
		timeout:       pageLoadTimeout,
	}
}

// Fingerprint loads url and returns the signals the embedded loader would post for it.
func (f *Fingerprinter) Fingerprint(ctx context.Context, url string) (*entity.PageSignals, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocatorOpts...)
	defer cancelAlloc()

	taskCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	}))
	defer cancel()

	taskCtx, cancel = context.WithTimeout(taskCtx, f.timeout)
	defer cancel()

	// The first document response is the page itself; later ones are iframes.
	var statusCode atomic.Int64
	chromedp.ListenTarget(taskCtx, func(ev any) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			statusCode.CompareAndSwap(0, e.Response.Status)
		}
	})

	var html, bodyText string
	startTime := time.Now()
	err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate(`document.body ? document.body.innerText : ''`, &bodyText),
	)
	responseTime := time.Since(startTime)
	if err != nil {
		slog.Error("Failed to fingerprint URL", "url", url, "error", err)
		return nil, fmt.Errorf("failed to render %s: %w", url, err)
	}

	signals, err := ExtractSignals(html, bodyText)
	if err != nil {
		return nil, err
	}
	signals.HTTPStatusCode = int(statusCode.Load())
	signals.ResponseTimeMS = int(responseTime.Milliseconds())

	slog.Info("Fingerprinted URL", "url", url, "content_hash", signals.ContentHash, "status", signals.HTTPStatusCode)
	return signals, nil
}

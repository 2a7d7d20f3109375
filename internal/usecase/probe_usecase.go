package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/repository"
	"github.com/user/schema-cache/pkg/utils"
)

// SignalSubmitter delivers page signals to the collector, the way the loader script does.
type SignalSubmitter interface {
	CollectSignal(ctx context.Context, organizationID, url string, signals *entity.PageSignals) (bool, error)
}

// ProbeResult is the outcome of one server-side fingerprint.
type ProbeResult struct {
	PageURL       string
	Signals       *entity.PageSignals
	DriftDetected bool
}

// Prober defines the interface for checking a live page for drift without a visitor.
type Prober interface {
	Probe(ctx context.Context, organizationID, url string) (*ProbeResult, error)
}

type probeUseCase struct {
	fingerprinter repository.PageFingerprinter
	submitter     SignalSubmitter
}

// NewProber creates a new Prober use case.
func NewProber(fingerprinter repository.PageFingerprinter, submitter SignalSubmitter) Prober {
	return &probeUseCase{
		fingerprinter: fingerprinter,
		submitter:     submitter,
	}
}

func (uc *probeUseCase) Probe(ctx context.Context, organizationID, url string) (*ProbeResult, error) {
	if organizationID == "" || url == "" {
		return nil, fmt.Errorf("%w: organization and url are required", ErrInvalidInput)
	}

	signals, err := uc.fingerprinter.Fingerprint(ctx, url)
	if err != nil {
		return nil, err
	}

	drift, err := uc.submitter.CollectSignal(ctx, organizationID, url, signals)
	if err != nil {
		return nil, fmt.Errorf("failed to submit signals for %s: %w", url, err)
	}

	slog.Debug("Probe complete", "url", url, "content_hash", signals.ContentHash, "drift_detected", drift)
	return &ProbeResult{
		PageURL:       utils.NormalizePageURL(url),
		Signals:       signals,
		DriftDetected: drift,
	}, nil
}

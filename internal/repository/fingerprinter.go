package repository

import (
	"context"

	"github.com/user/schema-cache/internal/entity"
)

// PageFingerprinter renders a live page and computes the same signals the loader script posts.
type PageFingerprinter interface {
	Fingerprint(ctx context.Context, url string) (*entity.PageSignals, error)
}

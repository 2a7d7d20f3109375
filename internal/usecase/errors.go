package usecase

import "errors"

var (
	// ErrInvalidInput wraps every validation failure; the wrapped message is safe to show callers.
	ErrInvalidInput  = errors.New("invalid input")
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrInvalidAPIKey covers both an unknown organization and a key mismatch.
	ErrInvalidAPIKey = errors.New("invalid API key")
)

package repository

import "errors"

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrSchemaNotFound       = errors.New("page schema not found")
	// ErrCacheMiss is returned by ResponseCacheRepository.Get when no entry exists for a key.
	ErrCacheMiss = errors.New("cache miss")
)

package types

import "errors"

// Domain errors shared across the cache, sync and query layers.
var (
	// ErrCacheMissing means no fetch has ever completed for the user.
	ErrCacheMissing = errors.New("no cached stars for user, run fetch first")

	// API client failures, surfaced verbatim to the CLI.
	ErrAuthRequired = errors.New("github authentication required")
	ErrRateLimited  = errors.New("github rate limit exceeded")
	ErrNetwork      = errors.New("github request failed")

	// ErrEmbeddingUnavailable degrades semantic search only; it never
	// aborts a fetch or a keyword search.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// Resolver misses.
	ErrNotFound       = errors.New("repository not found in cache")
	ErrStaleReference = errors.New("display number does not match the current listing")

	// ErrMergeConflict signals a duplicate composite key inside one
	// fetch result set. The merge policy makes this impossible, so it
	// is treated as a fatal logic error.
	ErrMergeConflict = errors.New("duplicate repository key in fetched data")

	// Result validation errors.
	ErrInvalidDisplayNumber = errors.New("display number must be >= 1")
	ErrInvalidScore         = errors.New("score must be between 0 and 1")
)

package models

import "errors"

// Domain error sentinels. Storage implementations translate their native
// failures (pgx.ErrNoRows, SQLSTATE 23505, ...) into these so callers can
// branch with errors.Is without importing driver packages.
var (
	// ErrNotFound: referenced product, segment, log or embedding does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDimension: query vector length does not match the configured
	// embedding dimension.
	ErrInvalidDimension = errors.New("invalid embedding dimension")

	// ErrAlreadyRated: a feedback row already exists for this (user, log) pair.
	ErrAlreadyRated = errors.New("recommendation already rated")

	// ErrCategoryUnknown: the detector returned a category name with no
	// catalog match. Recoverable — the pipeline skips that segment.
	ErrCategoryUnknown = errors.New("unknown category")

	// ErrExternalService: a detector/segmenter/embedder call failed or timed
	// out. Recoverable — the pipeline skips the affected category.
	ErrExternalService = errors.New("external model service failure")
)

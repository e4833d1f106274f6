package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances in Validate(). This allows callers to use errors.Is()
// for programmatic handling while still providing human-readable messages.
var (
	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetries is returned when the retry count is below one.
	// At least one attempt is always made.
	ErrInvalidRetries = errors.New("invalid retries: must be at least 1")

	// ErrInvalidRate is returned when the per-host rate is not positive.
	ErrInvalidRate = errors.New("invalid rate: requests per second must be positive")

	// ErrInvalidDepth is returned when the crawl depth is negative.
	// Depth 0 means only the seeded URLs are fetched.
	ErrInvalidDepth = errors.New("invalid crawl depth: must be non-negative")

	// ErrInvalidConcurrency is returned when max concurrency is below one.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRelevanceWeights is returned when a positive category has a
	// negative weight or the negative category a positive one. That would
	// break the monotonicity the heuristic promises.
	ErrInvalidRelevanceWeights = errors.New("invalid relevance weights: theme/governance/collaboration must be non-negative, negative must be non-positive")

	// ErrInvalidThresholds is returned when the classification threshold is
	// below the crawl threshold; every classification candidate must also
	// be crawl-relevant.
	ErrInvalidThresholds = errors.New("invalid thresholds: llmThreshold must be >= crawlThreshold")
)

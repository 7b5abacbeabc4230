package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidMode is returned for modes other than sequential and concurrent.
	ErrInvalidMode = errors.New("invalid mode: must be sequential or concurrent")

	// ErrInvalidConcurrency is returned when the concurrency limit is negative.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be non-negative")

	// ErrInvalidGroupDelay is returned when the group delay is negative.
	ErrInvalidGroupDelay = errors.New("invalid group delay: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidRetryDelay is returned when the retry delay or multiplier is negative.
	ErrInvalidRetryDelay = errors.New("invalid retry delay: delay and multiplier must be non-negative")

	// ErrInvalidConnectRetry is returned when the connect retry count or delay is negative.
	ErrInvalidConnectRetry = errors.New("invalid connect retry: count and delay must be non-negative")

	// ErrInvalidLivenessInterval is returned when the probe interval is negative.
	ErrInvalidLivenessInterval = errors.New("invalid liveness interval: must be non-negative")

	// ErrInvalidCacheScope is returned for scopes other than run, group and off.
	ErrInvalidCacheScope = errors.New("invalid cache scope: must be run, group or off")

	// ErrInvalidHeaderConcurrency is returned when the header concurrency is not positive.
	ErrInvalidHeaderConcurrency = errors.New("invalid header concurrency: must be positive")

	// ErrInvalidEnv is returned when an environment override cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")
)

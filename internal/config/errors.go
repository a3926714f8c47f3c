package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidRootURL is returned when the forum root is not an absolute http(s) URL.
	ErrInvalidRootURL = errors.New("invalid root URL: must be an absolute http or https URL")

	// ErrInvalidBeginFromBoard is returned when the board resume offset is below 1.
	ErrInvalidBeginFromBoard = errors.New("invalid --beginFromBoard: must be 1 or greater")

	// ErrInvalidBeginFromTopic is returned when the topic resume offset is below 1.
	ErrInvalidBeginFromTopic = errors.New("invalid --beginFromTopic: must be 1 or greater")

	// ErrConflictingListings is returned when both listing modes are requested.
	ErrConflictingListings = errors.New("conflicting options: --print-boards and --print-topics cannot be used together")

	// ErrInvalidPageSize is returned when a listing page size is not positive.
	ErrInvalidPageSize = errors.New("invalid page size: must be positive")

	// ErrInvalidMaxListingPages is returned when the listing page cap is negative.
	ErrInvalidMaxListingPages = errors.New("invalid max listing pages: must be non-negative")

	// ErrInvalidRetryWindow is returned when the retry delays are negative or inverted.
	ErrInvalidRetryWindow = errors.New("invalid retry window: delays must be non-negative and min must not exceed max")

	// ErrInvalidMaxRetries is returned when the retry ceiling is not positive.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the body size limit is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidRequestInterval is returned when the request interval is negative.
	ErrInvalidRequestInterval = errors.New("invalid request interval: must be non-negative")

	// ErrInvalidDrainInterval is returned when the drain interval is not positive.
	ErrInvalidDrainInterval = errors.New("invalid drain interval: must be positive")

	// ErrInvalidWriteRetries is returned when write retry settings are negative.
	ErrInvalidWriteRetries = errors.New("invalid write retries: count and delay must be non-negative")

	// ErrInvalidReportFormat is returned for an unknown --report value.
	ErrInvalidReportFormat = errors.New("invalid report format: must be text, markdown, json or none")

	// ErrConflictingLogLevels is returned when --verbose and --quiet are both set.
	ErrConflictingLogLevels = errors.New("conflicting options: --verbose and --quiet cannot be used together")

	// ErrConflictingTransports is returned when --proxy and --tor are both set.
	ErrConflictingTransports = errors.New("conflicting options: --proxy and --tor cannot be used together")
)

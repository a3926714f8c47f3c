package fetch

import "errors"

var (
	// ErrCircuitOpen is returned when the shared retry budget reaches its ceiling.
	// Callers treat it as a terminal condition for the current operation.
	ErrCircuitOpen = errors.New("retry ceiling reached: circuit open")

	// ErrBadStatus is returned for a non-2xx HTTP response.
	ErrBadStatus = errors.New("unexpected HTTP status")

	// ErrEmptyDocument is returned when a response carries no parsable content.
	ErrEmptyDocument = errors.New("empty document")

	// ErrInvalidRetryWindow is returned when the minimum delay exceeds the maximum.
	ErrInvalidRetryWindow = errors.New("invalid retry window: min delay exceeds max delay")

	// ErrInvalidMaxRetries is returned when the retry ceiling is not positive.
	ErrInvalidMaxRetries = errors.New("max retries must be positive")
)

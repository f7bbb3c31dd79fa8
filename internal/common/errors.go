package common

import "errors"

var (
	// ErrValidation marks input rejected locally, before any network call.
	ErrValidation = errors.New("validation error")

	// ErrBusy is returned when a single-flight operation is already running.
	ErrBusy = errors.New("operation already in progress")

	// ErrStaleResponse is returned when a response arrived for a state that
	// is no longer current (for example after logout) and was discarded.
	ErrStaleResponse = errors.New("stale response discarded")

	ErrNotAuthenticated = errors.New("not authenticated")
)

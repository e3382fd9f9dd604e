package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrNotFound - record vanished before an expected transition (log and skip in background jobs)
	ErrNotFound = errors.New("not found")

	// ErrValidation - malformed approval content (routes the record to Rejected)
	ErrValidation = errors.New("validation failed")

	// ErrExternalCall - agent or side-effecting client failure or timeout
	ErrExternalCall = errors.New("external call failed")

	// ErrStorage - filesystem write failure; when it hits the dedup store the
	// current job must halt rather than risk duplicate processing
	ErrStorage = errors.New("storage failure")

	// ErrConflict - destination already holds a record with the same id (skip and log)
	ErrConflict = errors.New("conflict")

	// ErrRateLimited - hourly action budget exhausted, retry next cycle
	ErrRateLimited = errors.New("rate limited")

	// ErrDuplicateEvent - event id already handled, ignore silently
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrInternal - anything that does not map onto the taxonomy
	ErrInternal = errors.New("internal error")
)

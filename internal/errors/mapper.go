package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MapExternal maps raw agent/client errors onto the hisho error taxonomy.
func MapExternal(err error) error {
	if err == nil {
		return nil
	}

	// Propagate context cancellation as-is
	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("call timed out: %w", ErrExternalCall)
	}

	// Map based on error message content
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "does not exist"):
		return fmt.Errorf("resource not found: %w", ErrNotFound)

	case strings.Contains(errStr, "rate limit"), strings.Contains(errStr, "quota"), strings.Contains(errStr, "too many requests"):
		return fmt.Errorf("rate limited by service: %w", ErrRateLimited)

	case strings.Contains(errStr, "duplicate"), strings.Contains(errStr, "already posted"), strings.Contains(errStr, "already sent"):
		return fmt.Errorf("duplicate delivery: %w", ErrDuplicateEvent)

	case strings.Contains(errStr, "conflict"), strings.Contains(errStr, "already exists"):
		return fmt.Errorf("conflict: %w", ErrConflict)

	case strings.Contains(errStr, "invalid"), strings.Contains(errStr, "malformed"), strings.Contains(errStr, "bad request"):
		return fmt.Errorf("invalid request: %w", ErrValidation)

	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"),
		strings.Contains(errStr, "network"), strings.Contains(errStr, "connection"), strings.Contains(errStr, "unreachable"):
		return fmt.Errorf("service unreachable: %w", ErrExternalCall)

	default:
		return fmt.Errorf("external call failed: %w", ErrExternalCall)
	}
}

// IsCategory checks if error belongs to a specific category.
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// NotFound wraps a message as not found.
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// Validation wraps a message as a validation failure.
func Validation(message string) error {
	return fmt.Errorf("%s: %w", message, ErrValidation)
}

// ExternalCall wraps a message as an external call failure.
func ExternalCall(message string) error {
	return fmt.Errorf("%s: %w", message, ErrExternalCall)
}

// Storage wraps a message as a storage failure.
func Storage(message string) error {
	return fmt.Errorf("%s: %w", message, ErrStorage)
}

// Conflict wraps a message as a conflict.
func Conflict(message string) error {
	return fmt.Errorf("%s: %w", message, ErrConflict)
}

// Internal wraps a message as an internal error.
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}

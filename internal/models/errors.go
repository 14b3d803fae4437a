package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured is returned by orchestrator operations invoked before
// InitializeConfiguration.
var ErrNotConfigured = errors.New("integration layer is not configured")

// PlatformAPIError is the normalized form of any upstream platform failure.
type PlatformAPIError struct {
	Platform   Platform
	StatusCode int
	Message    string
}

func (e *PlatformAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Platform, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Platform, e.Message)
}

// RateLimitError reports that a platform's request window is exhausted.
// RetryAfter is the wait until the oldest in-window request expires.
type RateLimitError struct {
	Platform   Platform
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded, retry after %s", e.Platform, e.RetryAfter)
}

// IsRateLimited reports whether err is (or wraps) a RateLimitError.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrRateLimited means the provider rejected the call for quota reasons (HTTP 429).
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrTransient means the call may succeed if repeated: 5xx, timeouts,
	// network failures, or an empty completion.
	ErrTransient = errors.New("transient provider error")
)

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

// classifyStatus wraps err with a sentinel chosen from the HTTP status code.
// Go 1.20+ lets fmt.Errorf carry several %w verbs, so errors.Is matches both
// the sentinel and the SDK's own error.
func classifyStatus(provider string, status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %w", provider, ErrRateLimited, err)
	case status == http.StatusRequestTimeout || status >= 500:
		return fmt.Errorf("%s: %w: %w", provider, ErrTransient, err)
	default:
		return fmt.Errorf("%s API call: %w", provider, err)
	}
}

// classifyNetwork handles errors that never got an HTTP status.
// Context cancellation is passed through untouched so callers can stop.
func classifyNetwork(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s API call: %w", provider, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", provider, ErrTransient, err)
	}
	return fmt.Errorf("%s API call: %w", provider, err)
}

// emptyCompletion is returned when the provider answered without any text.
func emptyCompletion(provider string) error {
	return fmt.Errorf("%s: %w: empty completion", provider, ErrTransient)
}

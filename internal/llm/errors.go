package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema, or no usable content at all.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider cannot be used at all:
// no credential is configured, the credential was rejected, or the
// endpoint is unreachable or failing.
type ErrProviderUnavailable struct {
	// Setting names the environment variable that would fix the problem,
	// when known.
	Setting string
	Err     error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrRequestFailed indicates the provider was reachable but rejected the
// request (a 4xx other than auth and rate limiting).
type ErrRequestFailed struct {
	StatusCode int
	Err        error
}

func (e *ErrRequestFailed) Error() string {
	return fmt.Sprintf("LLM request failed (status %d): %v", e.StatusCode, e.Err)
}

func (e *ErrRequestFailed) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// IsUnavailable reports whether err means the provider cannot be reached
// or is not configured.
func IsUnavailable(err error) bool {
	var unavail *ErrProviderUnavailable
	return errors.As(err, &unavail)
}

// UserMessage turns a provider failure into an actionable message for the
// person running a generation.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var unavail *ErrProviderUnavailable
	if errors.As(err, &unavail) {
		if unavail.Setting != "" {
			return fmt.Sprintf("The AI provider is not available. Set %s and try again.", unavail.Setting)
		}
		return "The AI provider could not be reached. Check the completion credential and network, then try again."
	}

	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return "The AI provider is rate limiting requests. Wait a moment and try again."
	}

	var inv *ErrInvalidResponse
	if errors.As(err, &inv) {
		return "The AI provider returned an unusable response. Try generating again."
	}

	return fmt.Sprintf("Generation failed: %v", err)
}

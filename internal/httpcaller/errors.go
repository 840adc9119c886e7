// Package httpcaller wraps an HTTP client with retry, rate-limit, and
// timeout handling per the request executor's needs.
package httpcaller

import (
	"errors"
	"fmt"
	"net"
)

// HttpError wraps a failing HTTP response with enough context for the
// Synthesizer repair loop to use as feedback.
type HttpError struct {
	Status  int
	Body    string
	Headers map[string][]string
	Request RequestSummary
	Message string
}

// RequestSummary is a redacted-free description of the request that
// produced a failure, used for synthesizer feedback and logging.
type RequestSummary struct {
	Method string
	URL    string
}

func (e *HttpError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http error: %s (status %d, %s %s)", e.Message, e.Status, e.Request.Method, e.Request.URL)
	}
	return fmt.Sprintf("http error: status %d calling %s %s", e.Status, e.Request.Method, e.Request.URL)
}

// HtmlInsteadOfJsonError is raised when a response body looks like an
// HTML document where JSON was expected. The Caller never retries it; it
// is returned at once, like a non-retryable HttpError.
type HtmlInsteadOfJsonError struct {
	Request RequestSummary
}

func (e *HtmlInsteadOfJsonError) Error() string {
	return fmt.Sprintf("received HTML instead of JSON from %s %s", e.Request.Method, e.Request.URL)
}

// Retryable reports whether err should trigger another HTTP Caller retry
// attempt (as opposed to being surfaced to the Synthesizer repair loop
// immediately, which is the Executor's separate decision).
func Retryable(err error) bool {
	switch e := err.(type) {
	case *HttpError:
		return e.Status >= 500 || e.Status == 429
	default:
		var ne net.Error
		return errors.As(err, &ne)
	}
}

package httpcaller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Request is everything the HTTP Caller needs to issue a single attempt.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// Options controls the HTTP Caller's retry/timeout policy for one call.
type Options struct {
	Retries        int           // default 5
	RetryDelay     time.Duration // default 1s
	Timeout        time.Duration // default 60s
	RetryAfterCap  time.Duration // default 60s
}

// DefaultOptions returns the spec's documented defaults.
func DefaultOptions() Options {
	return Options{
		Retries:       5,
		RetryDelay:    time.Second,
		Timeout:       60 * time.Second,
		RetryAfterCap: 60 * time.Second,
	}
}

// Response is a successful (2xx, non-HTML, non-error-body) HTTP response.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Caller issues HTTP requests with the spec's retry/rate-limit policy.
type Caller struct {
	client *http.Client
}

// New builds a Caller around a shared *http.Client.
func New() *Caller {
	return &Caller{client: &http.Client{}}
}

// Call issues req, retrying on network errors and 5xx up to options.Retries
// times with exponential backoff, honoring 429 Retry-After up to the
// configured cap.
func (c *Caller) Call(ctx context.Context, req Request, options Options) (*Response, error) {
	if options.Retries == 0 && options.RetryDelay == 0 {
		options = DefaultOptions()
	}
	if options.Timeout == 0 {
		options.Timeout = 60 * time.Second
	}
	if options.RetryAfterCap == 0 {
		options.RetryAfterCap = 60 * time.Second
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = options.RetryDelay
	bo.Reset()

	summary := RequestSummary{Method: req.Method, URL: req.URL}

	var lastErr error
	for attempt := 0; attempt <= options.Retries; attempt++ {
		resp, err := c.attempt(ctx, req, options.Timeout, summary)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if httpErr, ok := err.(*HttpError); ok && httpErr.Status == 429 {
			delay, capExceeded := retryAfterDelay(httpErr.Headers, options.RetryAfterCap)
			if capExceeded {
				return nil, err
			}
			if !sleep(ctx, delay) {
				return nil, ctx.Err()
			}
			continue
		}

		if !Retryable(err) {
			return nil, err
		}
		if attempt == options.Retries {
			break
		}
		if !sleep(ctx, bo.NextBackOff()) {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("httpcaller: exhausted %d retries calling %s %s: %w", options.Retries, req.Method, req.URL, lastErr)
}

func (c *Caller) attempt(ctx context.Context, req Request, timeout time.Duration, summary RequestSummary) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = bytes.NewReader([]byte(req.Body))
	}

	httpReq, err := http.NewRequestWithContext(callCtx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("httpcaller: build request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("httpcaller: network error calling %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpcaller: reading response body: %w", err)
	}

	if looksLikeHTML(body) {
		return nil, &HtmlInsteadOfJsonError{Request: summary}
	}

	if resp.StatusCode >= 500 || resp.StatusCode == 429 {
		return nil, &HttpError{
			Status:  resp.StatusCode,
			Body:    string(body),
			Headers: resp.Header,
			Request: summary,
		}
	}

	if resp.StatusCode != 200 && resp.StatusCode != 201 && resp.StatusCode != 204 {
		return nil, &HttpError{
			Status:  resp.StatusCode,
			Body:    string(body),
			Headers: resp.Header,
			Request: summary,
			Message: "unexpected status",
		}
	}

	if hasErrorField(body) {
		return nil, &HttpError{
			Status:  resp.StatusCode,
			Body:    string(body),
			Headers: resp.Header,
			Request: summary,
			Message: "response body carries an error field",
		}
	}

	return &Response{Status: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

func looksLikeHTML(body []byte) bool {
	trimmed := bytes.ToLower(bytes.TrimSpace(body))
	return bytes.HasPrefix(trimmed, []byte("<!doctype html")) || bytes.HasPrefix(trimmed, []byte("<html"))
}

func hasErrorField(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	// Only a top-level "error" key counts; a body that does not decode as
	// a JSON object is not treated as carrying an error field.
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return false
	}
	_, ok := obj["error"]
	return ok
}

// retryAfterDelay parses the Retry-After header (seconds or HTTP-date)
// and reports whether it exceeds cap.
func retryAfterDelay(headers map[string][]string, cap time.Duration) (time.Duration, bool) {
	var raw string
	for k, v := range headers {
		if strings.EqualFold(k, "Retry-After") && len(v) > 0 {
			raw = v[0]
			break
		}
	}
	if raw == "" {
		return time.Second, false
	}

	if secs, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		d := time.Duration(secs) * time.Second
		return d, d > cap
	}
	if t, err := http.ParseTime(raw); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, d > cap
	}
	return time.Second, false
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

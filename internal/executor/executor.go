// Package executor implements the Request Executor (spec §4.7): it
// drives the pagination loop over a synthesized ApiConfig, issues each
// page through the HTTP Caller, aggregates results, and re-invokes the
// Endpoint Synthesizer with error feedback when a call fails, bounded
// by a global repair cap.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jmylchreest/apiforge/internal/datapath"
	"github.com/jmylchreest/apiforge/internal/httpcaller"
	"github.com/jmylchreest/apiforge/internal/interp"
	"github.com/jmylchreest/apiforge/internal/models"
	"github.com/jmylchreest/apiforge/internal/synth"
)

func newRunID() string { return uuid.NewString() }

// maxRepairAttempts is the global cap on re-invocations of the Endpoint
// Synthesizer across HTTP failures for a single call (spec §4.6).
const maxRepairAttempts = 5

// maxPages is the hard ceiling on pagination iterations (spec §4.7).
const maxPages = 500

// Executor ties the Endpoint Synthesizer to the HTTP Caller.
type Executor struct {
	Caller *httpcaller.Caller
	Synth  *synth.EndpointSynthesizer
}

// Run synthesizes an ApiConfig for input, executes it (paginating as
// configured), and self-repairs on HTTP failure by re-invoking the
// Synthesizer with error feedback up to maxRepairAttempts times.
func (e *Executor) Run(ctx context.Context, input synth.EndpointInput, payload, credentials map[string]any, opts models.CallOptions) *models.RunResult {
	started := time.Now()
	result := &models.RunResult{ID: newRunID(), StartedAt: started}

	var usage models.Usage
	cfg, messages, err := e.Synth.PrepareEndpoint(ctx, input, payload, credentials, nil, nil, 0)
	if err != nil {
		return fail(result, err, started)
	}
	result.Config = cfg

	httpOpts := httpOptionsFrom(opts)

	for attempt := 0; ; attempt++ {
		data, execErr := e.executeConfig(ctx, cfg, payload, credentials, httpOpts)
		if execErr == nil {
			result.Success = true
			result.Data = data
			result.CompletedAt = time.Now()
			result.Usage = usage
			return result
		}

		slog.WarnContext(ctx, "executor: call attempt failed", "attempt", attempt, "error", execErr)

		if attempt >= maxRepairAttempts {
			return fail(result, fmt.Errorf("executor: exhausted %d repair attempts: %w", maxRepairAttempts, execErr), started)
		}

		var newCfg *models.ApiConfig
		newCfg, messages, err = e.Synth.PrepareEndpoint(ctx, input, payload, credentials, execErr, messages, attempt+1)
		if err != nil {
			return fail(result, fmt.Errorf("executor: repair synthesis failed: %w", err), started)
		}
		cfg = newCfg
		result.Config = cfg
	}
}

func fail(result *models.RunResult, err error, started time.Time) *models.RunResult {
	result.Success = false
	result.Error = err.Error()
	result.CompletedAt = time.Now()
	return result
}

// executeConfig runs the pagination loop for a single synthesized
// config and returns the aggregated result.
func (e *Executor) executeConfig(ctx context.Context, cfg *models.ApiConfig, payload, credentials map[string]any, httpOpts httpcaller.Options) (any, error) {
	vars := mergeVars(payload, credentials)

	paginationType := models.PaginationDisabled
	pageSize := 0
	if cfg.Pagination != nil {
		paginationType = cfg.Pagination.Type
		pageSize = cfg.Pagination.PageSize
	}

	var aggregated []any
	var lastPageJSON string

	page := 1
	offset := 0

	for iteration := 0; iteration < maxPages; iteration++ {
		iterVars := make(map[string]any, len(vars)+2)
		for k, v := range vars {
			iterVars[k] = v
		}
		switch paginationType {
		case models.PaginationPageBased:
			iterVars["page"] = page
			iterVars["limit"] = pageSize
		case models.PaginationOffsetBased:
			iterVars["offset"] = offset
			iterVars["limit"] = pageSize
		}

		fields := interp.Fields{
			URLPath:     cfg.URLPath,
			Headers:     cfg.Headers,
			QueryParams: cfg.QueryParams,
			Body:        cfg.Body,
		}
		if unbound := interp.Validate(fields, iterVars); len(unbound) > 0 {
			return nil, &UnresolvedVariablesError{Names: unbound}
		}

		req, err := buildRequest(ctx, cfg, iterVars)
		if err != nil {
			return nil, err
		}

		resp, err := e.Caller.Call(ctx, req, httpOpts)
		if err != nil {
			return nil, err
		}

		var parsed any
		if len(resp.Body) > 0 {
			dec := json.NewDecoder(bytes.NewReader(resp.Body))
			dec.UseNumber()
			if err := dec.Decode(&parsed); err != nil {
				return nil, fmt.Errorf("executor: parsing response body: %w", err)
			}
		}

		pageData, navOK := datapath.Navigate(parsed, cfg.DataPath)
		if !navOK {
			slog.WarnContext(ctx, "executor: dataPath did not resolve fully", "dataPath", cfg.DataPath)
		}

		arr, isArray := pageData.([]any)
		if paginationType == models.PaginationDisabled || cfg.Pagination == nil {
			if isArray {
				return arr, nil
			}
			return pageData, nil
		}

		if !isArray {
			// Non-array response under pagination: return what we have
			// and stop, per the spec's termination conditions.
			if len(aggregated) > 0 {
				return aggregated, nil
			}
			return pageData, nil
		}

		pageJSON := toJSONString(arr)
		if pageJSON == lastPageJSON && lastPageJSON != "" {
			break // byte-identical consecutive page: server looping, stop
		}
		lastPageJSON = pageJSON

		aggregated = append(aggregated, arr...)

		if pageSize > 0 && len(arr) < pageSize {
			break // short page: last page
		}
		if pageSize == 0 && len(arr) == 0 {
			break
		}

		switch paginationType {
		case models.PaginationPageBased:
			page++
		case models.PaginationOffsetBased:
			offset += pageSize
		}
	}

	if len(aggregated) == 1 {
		return aggregated[0], nil
	}
	return aggregated, nil
}

func mergeVars(payload, credentials map[string]any) map[string]any {
	out := make(map[string]any, len(payload)+len(credentials))
	for k, v := range payload {
		out[k] = v
	}
	for k, v := range credentials {
		out[k] = v
	}
	return out
}

func buildRequest(ctx context.Context, cfg *models.ApiConfig, vars map[string]any) (httpcaller.Request, error) {
	path := interp.Interpolate(cfg.URLPath, vars)
	fullURL := cfg.URLHost + path

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = interp.Interpolate(v, vars)
	}

	if len(cfg.QueryParams) > 0 {
		u, err := url.Parse(fullURL)
		if err != nil {
			return httpcaller.Request{}, fmt.Errorf("executor: invalid url %q: %w", fullURL, err)
		}
		q := u.Query()
		for k, v := range cfg.QueryParams {
			q.Set(k, interp.Interpolate(v, vars))
		}
		u.RawQuery = q.Encode()
		fullURL = u.String()
	}

	body := interp.Interpolate(cfg.Body, vars)
	if body != "" && !json.Valid([]byte(body)) {
		return httpcaller.Request{}, &InvalidBodyError{Cause: fmt.Errorf("body after interpolation: %q", body)}
	}

	if err := applyAuth(ctx, cfg, headers, vars); err != nil {
		return httpcaller.Request{}, err
	}

	return httpcaller.Request{
		Method:  string(cfg.Method),
		URL:     fullURL,
		Headers: headers,
		Body:    body,
	}, nil
}

// applyAuth fills in the Authorization header when the config calls for
// it and the Synthesizer/caller hasn't already supplied one explicitly.
// QUERY_PARAM auth is expected to already be present in cfg.QueryParams
// via synthesis. OAUTH2 runs the client-credentials grant against
// oauthTokenUrl/oauthClientId/oauthClientSecret/oauthScopes pulled from
// vars; if those aren't bound, the caller is expected to have supplied
// a bearer token into vars["token"] instead.
func applyAuth(ctx context.Context, cfg *models.ApiConfig, headers map[string]string, vars map[string]any) error {
	if _, ok := headers["Authorization"]; ok {
		return nil
	}
	switch cfg.Authentication {
	case models.AuthHeader:
		if tok, ok := vars["token"]; ok {
			headers["Authorization"] = fmt.Sprint(tok)
		}
	case models.AuthOAuth2:
		tokenURL, _ := vars["oauthTokenUrl"].(string)
		clientID, _ := vars["oauthClientId"].(string)
		clientSecret, _ := vars["oauthClientSecret"].(string)
		if tokenURL == "" || clientID == "" {
			if tok, ok := vars["token"]; ok {
				headers["Authorization"] = fmt.Sprint(tok)
			}
			return nil
		}
		ccCfg := &clientcredentials.Config{ClientID: clientID, ClientSecret: clientSecret, TokenURL: tokenURL}
		if scopes, ok := vars["oauthScopes"].(string); ok && scopes != "" {
			ccCfg.Scopes = strings.Split(scopes, ",")
		}
		token, err := ccCfg.Token(ctx)
		if err != nil {
			return fmt.Errorf("executor: oauth2 client-credentials token: %w", err)
		}
		headers["Authorization"] = token.Type() + " " + token.AccessToken
	case models.AuthQueryParam, models.AuthNone:
	}
	return nil
}

func httpOptionsFrom(opts models.CallOptions) httpcaller.Options {
	o := httpcaller.DefaultOptions()
	if opts.Retries > 0 {
		o.Retries = opts.Retries
	}
	if opts.RetryDelay > 0 {
		o.RetryDelay = opts.RetryDelay
	}
	if opts.Timeout > 0 {
		o.Timeout = opts.Timeout
	}
	return o
}

func toJSONString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Package fileextract implements the File Extractor: the Executor's
// analogue for file-based sources. It synthesizes an ExtractConfig from
// a content sample, fetches and decodes the file (decompress then
// parse), navigates to the data path, and self-repairs on failure by
// re-invoking the Extract Synthesizer with error feedback.
package fileextract

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jmylchreest/apiforge/internal/datapath"
	"github.com/jmylchreest/apiforge/internal/fileparse"
	"github.com/jmylchreest/apiforge/internal/httpcaller"
	"github.com/jmylchreest/apiforge/internal/interp"
	"github.com/jmylchreest/apiforge/internal/models"
	"github.com/jmylchreest/apiforge/internal/synth"
)

func newRunID() string { return uuid.NewString() }

// maxRepairAttempts mirrors the Request Executor's global cap on
// re-invocations of the Synthesizer across failures for a single run.
const maxRepairAttempts = 5

// maxBootstrapSampleBytes bounds how much of the raw source is read
// during the unauthenticated bootstrap fetch used to seed synthesis.
const maxBootstrapSampleBytes = 64 * 1024

// FileExtractor ties the Extract Synthesizer to the HTTP Caller and the
// File Parser.
type FileExtractor struct {
	Caller *httpcaller.Caller
	Synth  *synth.ExtractSynthesizer
}

// Run synthesizes an ExtractConfig for input, executes it (fetch,
// decompress, parse, navigate), and self-repairs on failure by
// re-invoking the Synthesizer with error feedback up to
// maxRepairAttempts times.
func (fe *FileExtractor) Run(ctx context.Context, input synth.ExtractInput, credentials map[string]any) *models.RunResult {
	started := time.Now()
	result := &models.RunResult{ID: newRunID(), StartedAt: started}

	sample := fe.bootstrapSample(ctx, input)

	var usage models.Usage
	cfg, messages, err := fe.Synth.PrepareExtract(ctx, input, sample, credentials, nil, nil, 0)
	if err != nil {
		return fail(result, err, started)
	}
	result.Config = cfg

	for attempt := 0; ; attempt++ {
		data, execErr := fe.executeConfig(ctx, cfg, credentials)
		if execErr == nil {
			result.Success = true
			result.Data = data
			result.CompletedAt = time.Now()
			result.Usage = usage
			return result
		}

		slog.WarnContext(ctx, "fileextract: run attempt failed", "attempt", attempt, "error", execErr)

		if attempt >= maxRepairAttempts {
			return fail(result, fmt.Errorf("fileextract: exhausted %d repair attempts: %w", maxRepairAttempts, execErr), started)
		}

		var newCfg *models.ExtractConfig
		newCfg, messages, err = fe.Synth.PrepareExtract(ctx, input, sample, credentials, execErr, messages, attempt+1)
		if err != nil {
			return fail(result, fmt.Errorf("fileextract: repair synthesis failed: %w", err), started)
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

// bootstrapSample best-effort fetches the caller-specified source
// unauthenticated, decompresses it, and returns a capped byte sample
// for synthesis context. Failures are non-fatal: synthesis proceeds
// with an empty sample and leans on the instruction and documentation.
func (fe *FileExtractor) bootstrapSample(ctx context.Context, input synth.ExtractInput) string {
	if input.URLHost == "" {
		return ""
	}
	req := httpcaller.Request{
		Method:  string(firstNonEmptyMethod(input.Method)),
		URL:     input.URLHost + input.URLPath,
		Headers: input.Headers,
	}
	resp, err := fe.Caller.Call(ctx, req, httpcaller.DefaultOptions())
	if err != nil {
		slog.WarnContext(ctx, "fileextract: bootstrap sample fetch failed, proceeding without one", "error", err)
		return ""
	}

	body := resp.Body
	if decompressed, err := fileparse.Decompress(body, input.DecompressionMethod); err == nil {
		body = decompressed
	}
	if len(body) > maxBootstrapSampleBytes {
		body = body[:maxBootstrapSampleBytes]
	}
	return string(body)
}

func firstNonEmptyMethod(m models.Method) models.Method {
	if m == "" {
		return models.MethodGet
	}
	return m
}

// executeConfig fetches cfg's source, decompresses and parses it, and
// navigates to its data path.
func (fe *FileExtractor) executeConfig(ctx context.Context, cfg *models.ExtractConfig, credentials map[string]any) (any, error) {
	vars := make(map[string]any, len(credentials))
	for k, v := range credentials {
		vars[k] = v
	}

	fields := interp.Fields{
		URLPath:     cfg.URLPath,
		Headers:     cfg.Headers,
		QueryParams: cfg.QueryParams,
		Body:        cfg.Body,
	}
	if unbound := interp.Validate(fields, vars); len(unbound) > 0 {
		return nil, &UnresolvedVariablesError{Names: unbound}
	}

	req, err := buildRequest(ctx, cfg, vars)
	if err != nil {
		return nil, err
	}

	resp, err := fe.Caller.Call(ctx, req, httpcaller.DefaultOptions())
	if err != nil {
		return nil, err
	}

	decompressed, err := fileparse.Decompress(resp.Body, cfg.DecompressionMethod)
	if err != nil {
		return nil, fmt.Errorf("fileextract: decompressing response: %w", err)
	}

	parsed, err := fileparse.Parse(decompressed, cfg.FileType)
	if err != nil {
		return nil, fmt.Errorf("fileextract: parsing response: %w", err)
	}

	data, navOK := datapath.Navigate(parsed, cfg.DataPath)
	if !navOK {
		slog.WarnContext(ctx, "fileextract: dataPath did not resolve fully", "dataPath", cfg.DataPath)
	}
	return data, nil
}

func buildRequest(ctx context.Context, cfg *models.ExtractConfig, vars map[string]any) (httpcaller.Request, error) {
	path := interp.Interpolate(cfg.URLPath, vars)
	fullURL := cfg.URLHost + path

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = interp.Interpolate(v, vars)
	}

	if len(cfg.QueryParams) > 0 {
		u, err := url.Parse(fullURL)
		if err != nil {
			return httpcaller.Request{}, fmt.Errorf("fileextract: invalid url %q: %w", fullURL, err)
		}
		q := u.Query()
		for k, v := range cfg.QueryParams {
			q.Set(k, interp.Interpolate(v, vars))
		}
		u.RawQuery = q.Encode()
		fullURL = u.String()
	}

	if err := applyAuth(ctx, cfg, headers, vars); err != nil {
		return httpcaller.Request{}, err
	}

	return httpcaller.Request{
		Method:  string(cfg.Method),
		URL:     fullURL,
		Headers: headers,
		Body:    interp.Interpolate(cfg.Body, vars),
	}, nil
}

// applyAuth mirrors internal/executor's handling: HEADER/OAUTH2 fill in
// the Authorization header (OAUTH2 via client-credentials against
// oauthTokenUrl/oauthClientId/oauthClientSecret/oauthScopes in vars,
// falling back to a caller-supplied vars["token"]); QUERY_PARAM is
// expected to already be present in cfg.QueryParams via synthesis.
func applyAuth(ctx context.Context, cfg *models.ExtractConfig, headers map[string]string, vars map[string]any) error {
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
			return fmt.Errorf("fileextract: oauth2 client-credentials token: %w", err)
		}
		headers["Authorization"] = token.Type() + " " + token.AccessToken
	case models.AuthQueryParam, models.AuthNone:
	}
	return nil
}

// Package docfetch retrieves and normalizes API documentation text for
// the Endpoint and Extract Synthesizers.
package docfetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
)

// Fetcher retrieves a documentation page and normalizes it to markdown.
// Fetch errors are non-fatal to callers: the synthesis loop already
// self-heals on the downstream HTTP failure, so a fetch error here just
// falls back to instruction-only synthesis.
type Fetcher struct {
	userAgent string
	timeout   time.Duration
}

// New builds a Fetcher that identifies itself as apiforge-docfetch/1.0
// and gives each request a 20s timeout.
func New() *Fetcher {
	return &Fetcher{
		userAgent: "apiforge-docfetch/1.0",
		timeout:   20 * time.Second,
	}
}

// Fetch retrieves pageURL (with optional extra headers/query params),
// extracts the main article content via readability, and converts it to
// markdown. On any failure it logs and returns an empty string rather
// than propagating the error.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, headers map[string]string, query map[string]string) string {
	if pageURL == "" {
		return ""
	}

	fullURL, err := withQuery(pageURL, query)
	if err != nil {
		slog.WarnContext(ctx, "docfetch: invalid url", "url", pageURL, "error", err)
		return ""
	}

	var html string
	c := colly.NewCollector(colly.UserAgent(f.userAgent))
	c.SetRequestTimeout(f.timeout)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range headers {
			r.Headers.Set(k, v)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		html = string(r.Body)
	})

	fetchErr := c.Visit(fullURL)
	if fetchErr != nil {
		slog.WarnContext(ctx, "docfetch: fetch failed", "url", fullURL, "error", fetchErr)
		return ""
	}

	parsedURL, _ := url.Parse(fullURL)
	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		slog.WarnContext(ctx, "docfetch: readability extraction failed", "url", fullURL, "error", err)
		return toMarkdown(html)
	}

	return toMarkdown(article.Content)
}

func toMarkdown(htmlContent string) string {
	out, err := htmltomarkdown.ConvertString(htmlContent)
	if err != nil {
		return htmlContent
	}
	return out
}

func withQuery(rawURL string, query map[string]string) (string, error) {
	if len(query) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("docfetch: %w", err)
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

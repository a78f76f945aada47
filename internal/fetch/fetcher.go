// Package fetch retrieves web pages for URL ingestion and reduces them to
// plain text via readability extraction.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/botsy-ai/botsy/internal/domain"
	"github.com/botsy-ai/botsy/internal/extract"
)

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 30 * time.Second
	// defaultUserAgent identifies the crawler to origin servers.
	defaultUserAgent = "botsy/1.0 (+https://github.com/botsy-ai/botsy)"
	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 10 << 20
)

// Page is the text content extracted from a fetched URL.
type Page struct {
	URL           string
	Title         string
	Text          string
	ContentLength int
}

// Fetcher downloads pages over plain HTTP. Pages requiring script execution
// are out of scope; readability extraction handles static HTML.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a Fetcher with the given per-request timeout
// (default: DefaultTimeout).
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}
}

// FetchText fetches rawURL and returns its readable text content with
// scripts, styles, and boilerplate removed.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, domain.ErrInvalidURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", parsed.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", parsed.String(), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", parsed.String(), err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", parsed.String(), err)
	}

	text := extract.CollapseLines(article.TextContent)
	return &Page{
		URL:           parsed.String(),
		Title:         strings.TrimSpace(article.Title),
		Text:          text,
		ContentLength: len(text),
	}, nil
}

package extract

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// HTMLExtractor extracts the readable main content of an HTML document,
// dropping scripts, styles, and boilerplate.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(data), &url.URL{Scheme: "file", Path: "/"})
	if err != nil {
		return "", err
	}
	return CollapseLines(article.TextContent), nil
}

// CollapseLines trims every line and drops empty ones, the cleanup applied
// to all HTML-derived text before chunking.
func CollapseLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

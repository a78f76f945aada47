package extract

import (
	"context"
	"strings"
	"unicode/utf8"
)

// TextExtractor handles plain text and markdown documents.
type TextExtractor struct{}

// Extract decodes data as UTF-8, falling back to Latin-1 for legacy files.
func (e *TextExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	// Latin-1: every byte maps directly to the code point of the same value.
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String(), nil
}

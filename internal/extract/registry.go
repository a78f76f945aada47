// Package extract converts uploaded documents into plain text. One
// Extractor exists per supported format; a registry keyed by MIME type
// selects the right one, with a filename-extension fallback for uploads
// that arrive without a usable content type.
package extract

import (
	"context"
	"mime"
	"path/filepath"
	"strings"

	"github.com/botsy-ai/botsy/internal/domain"
)

// Extractor extracts plain text from a document of one declared format.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

const (
	mimePDF      = "application/pdf"
	mimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText     = "text/plain"
	mimeMarkdown = "text/markdown"
	mimeHTML     = "text/html"
)

var extensionMIME = map[string]string{
	".pdf":  mimePDF,
	".docx": mimeDOCX,
	".txt":  mimeText,
	".md":   mimeMarkdown,
	".html": mimeHTML,
	".htm":  mimeHTML,
}

// Registry maps MIME types to extractors.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry returns a registry with all built-in formats registered.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}
	r.Register(mimePDF, &PDFExtractor{})
	r.Register(mimeDOCX, &DOCXExtractor{})
	r.Register(mimeText, &TextExtractor{})
	r.Register(mimeMarkdown, &TextExtractor{})
	r.Register(mimeHTML, &HTMLExtractor{})
	return r
}

// Register adds or replaces the extractor for a MIME type.
func (r *Registry) Register(mimeType string, e Extractor) {
	r.extractors[mimeType] = e
}

// Supported reports whether an extractor is registered for the type
// detected from filename.
func (r *Registry) Supported(filename string) bool {
	_, ok := r.extractors[DetectMIMEType(filename)]
	return ok
}

// ExtractText detects the document format from filename and extracts plain
// text. Unsupported formats return ErrUnsupportedFileType; a document that
// yields no text returns ErrEmptyDocument.
func (r *Registry) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	mimeType := DetectMIMEType(filename)

	extractor, ok := r.extractors[mimeType]
	if !ok {
		return "", domain.ErrUnsupportedFileType
	}

	text, err := extractor.Extract(ctx, data)
	if err != nil {
		return "", domain.NewExtractionError(filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyDocument
	}
	return text, nil
}

// DetectMIMEType resolves a filename to a MIME type using the built-in
// extension table, falling back to the platform's registry.
func DetectMIMEType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	if mimeType, ok := extensionMIME[ext]; ok {
		return mimeType
	}

	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		// Strip parameters like "; charset=utf-8".
		if base, _, err := mime.ParseMediaType(mimeType); err == nil {
			return base
		}
		return mimeType
	}
	return "application/octet-stream"
}

package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botsy-ai/botsy/internal/domain"
)

func TestDetectMIMEType(t *testing.T) {
	cases := map[string]string{
		"report.pdf":   "application/pdf",
		"notes.TXT":    "text/plain",
		"readme.md":    "text/markdown",
		"page.html":    "text/html",
		"page.htm":     "text/html",
		"contract.docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"archive.bin":  "application/octet-stream",
	}
	for filename, want := range cases {
		assert.Equal(t, want, DetectMIMEType(filename), filename)
	}
}

func TestRegistry_Supported(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Supported("doc.txt"))
	assert.True(t, r.Supported("doc.pdf"))
	assert.True(t, r.Supported("doc.html"))
	assert.False(t, r.Supported("image.png"))
	assert.False(t, r.Supported("noextension"))
}

func TestExtractText_PlainText(t *testing.T) {
	r := NewRegistry()

	text, err := r.ExtractText(context.Background(), []byte("hello world"), "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtractText_Latin1Fallback(t *testing.T) {
	r := NewRegistry()

	// 0xE9 is é in Latin-1 and invalid as standalone UTF-8.
	text, err := r.ExtractText(context.Background(), []byte{'c', 'a', 'f', 0xE9}, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "café", text)
}

func TestExtractText_Unsupported(t *testing.T) {
	r := NewRegistry()

	_, err := r.ExtractText(context.Background(), []byte("data"), "image.png")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestExtractText_EmptyDocument(t *testing.T) {
	r := NewRegistry()

	_, err := r.ExtractText(context.Background(), []byte("   \n\t "), "doc.txt")
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestExtractText_HTML(t *testing.T) {
	r := NewRegistry()
	html := `<html><head><script>var x = 1;</script></head><body><article>
		<p>First paragraph with enough words to be treated as content.</p>
		<p>Second paragraph, also made of genuine readable prose text.</p>
	</article></body></html>`

	text, err := r.ExtractText(context.Background(), []byte(html), "page.html")
	require.NoError(t, err)
	assert.Contains(t, text, "First paragraph")
	assert.Contains(t, text, "Second paragraph")
	assert.NotContains(t, text, "var x")
}

func TestExtractText_DOCX(t *testing.T) {
	r := NewRegistry()

	text, err := r.ExtractText(context.Background(), buildDOCX(t,
		`<?xml version="1.0"?>
		<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
			<w:body>
				<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
				<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
			</w:body>
		</w:document>`), "contract.docx")
	require.NoError(t, err)
	assert.Contains(t, text, "First paragraph.")
	assert.Contains(t, text, "Second paragraph.")
}

func TestExtractText_DOCXMissingDocument(t *testing.T) {
	r := NewRegistry()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = r.ExtractText(context.Background(), buf.Bytes(), "contract.docx")
	assert.Error(t, err)
}

func TestCollapseLines(t *testing.T) {
	in := "  first line  \n\n\t\n  second line\n"
	assert.Equal(t, "first line\nsecond line", CollapseLines(in))
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

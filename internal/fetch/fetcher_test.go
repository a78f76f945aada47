package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botsy-ai/botsy/internal/domain"
)

func pageServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchText_ExtractsReadableContent(t *testing.T) {
	srv := pageServer(t, http.StatusOK, `<html><head>
		<title>Shipping FAQ</title>
		<script>trackVisitor();</script>
	</head><body><article>
		<p>`+strings.Repeat("Orders placed before noon ship the same day. ", 8)+`</p>
		<p>`+strings.Repeat("International delivery takes five to ten days. ", 8)+`</p>
	</article></body></html>`)

	f := NewFetcher(0)
	page, err := f.FetchText(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, srv.URL, page.URL)
	assert.Contains(t, page.Text, "ship the same day")
	assert.Contains(t, page.Text, "five to ten days")
	assert.NotContains(t, page.Text, "trackVisitor")
	assert.Equal(t, len(page.Text), page.ContentLength)
}

func TestFetchText_SendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html><body><p>" + strings.Repeat("content words here ", 30) + "</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(0)
	_, err := f.FetchText(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, gotUA, "botsy")
}

func TestFetchText_InvalidURL(t *testing.T) {
	f := NewFetcher(0)

	for _, raw := range []string{"", "not-a-url", "ftp://example.com/file", "http://"} {
		_, err := f.FetchText(context.Background(), raw)
		assert.ErrorIs(t, err, domain.ErrInvalidURL, raw)
	}
}

func TestFetchText_HTTPErrorStatus(t *testing.T) {
	srv := pageServer(t, http.StatusNotFound, "gone")

	f := NewFetcher(0)
	_, err := f.FetchText(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchText_CancelledContext(t *testing.T) {
	srv := pageServer(t, http.StatusOK, "<html><body>ok</body></html>")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(0)
	_, err := f.FetchText(ctx, srv.URL)
	assert.Error(t, err)
}

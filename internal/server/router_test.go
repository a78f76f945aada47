package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botsy-ai/botsy/internal/api/handlers"
	"github.com/botsy-ai/botsy/internal/chunker"
	"github.com/botsy-ai/botsy/internal/embedding"
	"github.com/botsy-ai/botsy/internal/extract"
	"github.com/botsy-ai/botsy/internal/fetch"
	"github.com/botsy-ai/botsy/internal/index"
	"github.com/botsy-ai/botsy/internal/service"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := index.NewFileStore(t.TempDir())
	require.NoError(t, err)

	retriever := service.NewRetriever(
		store,
		chunker.New(100, 20),
		extract.NewRegistry(),
		fetch.NewFetcher(0),
		embedding.NewService(0, 0),
	)

	return NewRouter(RouterConfig{
		BotHandler: handlers.NewBotHandler(retriever, service.DefaultContextPolicy()),
	})
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func ingestSample(t *testing.T, router http.Handler, bot string) {
	t.Helper()
	text := ""
	for i := 0; i < 10; i++ {
		text += fmt.Sprintf("Refund requests for order batch %d must reference the original invoice. ", i)
	}
	w := postJSON(t, router, "/bots/"+bot+"/text", map[string]string{
		"text":   text,
		"source": "refunds.txt",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestIngestTextAndSearch(t *testing.T) {
	router := newTestRouter(t)
	ingestSample(t, router, "bot-1")

	w := postJSON(t, router, "/bots/bot-1/search", map[string]interface{}{
		"query": "refund invoice",
		"top_k": 3,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var envelope struct {
		Data handlers.SearchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Results)
	assert.Equal(t, "refunds.txt", envelope.Data.Results[0].Source)
	assert.Contains(t, envelope.Data.Context, "[Source 1: refunds.txt]")
	require.NotEmpty(t, envelope.Data.Sources)
	assert.Equal(t, "refunds.txt", envelope.Data.Sources[0].Filename)
}

func TestIngestTextEmpty(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/bots/bot-1/text", map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "text cannot be empty")
}

func TestSearchEmptyQuery(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/bots/bot-1/search", map[string]string{"query": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchUnknownBotReturnsEmpty(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/bots/ghost/search", map[string]interface{}{
		"query": "anything", "top_k": 5,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data handlers.SearchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.Results)
	assert.Empty(t, envelope.Data.Context)
}

func TestIngestDocumentUpload(t *testing.T) {
	router := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte(strings.Repeat("Support tickets are answered within one business day. ", 10)))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/bots/bot-1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "chunks_added")
}

func TestIngestDocumentUnsupportedType(t *testing.T) {
	router := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "image.png")
	require.NoError(t, err)
	_, err = part.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/bots/bot-1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")
}

func TestIngestURLEndpoint(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article><p>`+
			strings.Repeat("Orders ship from the central warehouse within two days. ", 10)+
			`</p></article></body></html>`)
	}))
	defer page.Close()

	router := newTestRouter(t)

	w := postJSON(t, router, "/bots/bot-1/urls", map[string]string{"url": page.URL})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/bots/bot-1/chunks", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "URL: "+page.URL)
}

func TestIngestURLInvalid(t *testing.T) {
	router := newTestRouter(t)

	w := postJSON(t, router, "/bots/bot-1/urls", map[string]string{"url": "not-a-url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsAndDelete(t *testing.T) {
	router := newTestRouter(t)
	ingestSample(t, router, "bot-1")

	req := httptest.NewRequest(http.MethodGet, "/bots/bot-1/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var statsEnvelope struct {
		Data struct {
			TotalChunks    int `json:"total_chunks"`
			TotalDocuments int `json:"total_documents"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statsEnvelope))
	assert.Greater(t, statsEnvelope.Data.TotalChunks, 0)
	assert.Equal(t, 1, statsEnvelope.Data.TotalDocuments)

	req = httptest.NewRequest(http.MethodDelete, "/bots/bot-1/", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/bots/bot-1/stats", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statsEnvelope))
	assert.Equal(t, 0, statsEnvelope.Data.TotalChunks)
}

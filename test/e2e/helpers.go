//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/botsy-ai/botsy/internal/api/handlers"
	"github.com/botsy-ai/botsy/internal/chunker"
	"github.com/botsy-ai/botsy/internal/embedding"
	"github.com/botsy-ai/botsy/internal/extract"
	"github.com/botsy-ai/botsy/internal/fetch"
	"github.com/botsy-ai/botsy/internal/repository"
	"github.com/botsy-ai/botsy/internal/server"
	"github.com/botsy-ai/botsy/internal/service"
	"github.com/botsy-ai/botsy/internal/storage"
	"github.com/botsy-ai/botsy/internal/testutil"
)

// TestEnv holds the containers and in-process server for end-to-end tests.
type TestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	RustFSC    *testutil.RustFSContainer
	Pool       *pgxpool.Pool
	Server     *httptest.Server
	S3Client   *storage.S3Client
	HTTPClient *http.Client
}

// SetupEnv starts pgvector and RustFS containers and serves the API over
// the Postgres-backed store.
func SetupEnv(t *testing.T) *TestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-knowledge",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	store := repository.NewPostgresStore(pool)
	retriever := service.NewRetriever(
		store,
		chunker.New(100, 20),
		extract.NewRegistry(),
		fetch.NewFetcher(10*time.Second),
		embedding.NewService(0, 0),
	)

	router := server.NewRouter(server.RouterConfig{
		BotHandler: handlers.NewBotHandler(retriever, service.DefaultContextPolicy()),
	})

	return &TestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		RustFSC:    s3C,
		Pool:       pool,
		Server:     httptest.NewServer(router),
		S3Client:   s3Client,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup shuts down the server; containers terminate via t.Cleanup.
func (e *TestEnv) Cleanup() {
	e.Server.Close()
	e.Pool.Close()
}

// APIResponse is the generic JSON envelope returned by the API.
type APIResponse struct {
	Data    json.RawMessage `json:"data"`
	Success *bool           `json:"success,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Post sends a JSON POST and decodes the response envelope.
func (e *TestEnv) Post(path string, body interface{}) (*APIResponse, int) {
	e.T.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		e.T.Fatalf("failed to marshal body: %v", err)
	}

	resp, err := e.HTTPClient.Post(e.Server.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		e.T.Fatalf("POST %s failed: %v", path, err)
	}
	return e.decode(resp)
}

// Get sends a GET and decodes the response envelope.
func (e *TestEnv) Get(path string) (*APIResponse, int) {
	e.T.Helper()
	resp, err := e.HTTPClient.Get(e.Server.URL + path)
	if err != nil {
		e.T.Fatalf("GET %s failed: %v", path, err)
	}
	return e.decode(resp)
}

// Delete sends a DELETE and decodes the response envelope.
func (e *TestEnv) Delete(path string) (*APIResponse, int) {
	e.T.Helper()
	req, err := http.NewRequest(http.MethodDelete, e.Server.URL+path, nil)
	if err != nil {
		e.T.Fatalf("failed to build request: %v", err)
	}
	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("DELETE %s failed: %v", path, err)
	}
	return e.decode(resp)
}

// Upload sends a multipart file POST and decodes the response envelope.
func (e *TestEnv) Upload(path, filename string, content []byte) (*APIResponse, int) {
	e.T.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		e.T.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		e.T.Fatalf("failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		e.T.Fatalf("failed to close multipart writer: %v", err)
	}

	resp, err := e.HTTPClient.Post(e.Server.URL+path, mw.FormDataContentType(), &buf)
	if err != nil {
		e.T.Fatalf("POST %s failed: %v", path, err)
	}
	return e.decode(resp)
}

func (e *TestEnv) decode(resp *http.Response) (*APIResponse, int) {
	e.T.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response body: %v", err)
	}

	var envelope APIResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		e.T.Fatalf("failed to decode response %q: %v", string(body), err)
	}
	return &envelope, resp.StatusCode
}

// SampleText returns enough prose about one topic to produce several chunks.
func SampleText(topic string, sentences int) string {
	var buf bytes.Buffer
	for i := 0; i < sentences; i++ {
		fmt.Fprintf(&buf, "Everything about %s is covered in paragraph %d of the handbook. ", topic, i+1)
	}
	return buf.String()
}

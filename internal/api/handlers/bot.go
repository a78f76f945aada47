package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/botsy-ai/botsy/internal/api"
	"github.com/botsy-ai/botsy/internal/domain"
	"github.com/botsy-ai/botsy/internal/service"
)

// RetrieverService is the pipeline surface the HTTP layer exposes.
type RetrieverService interface {
	IngestText(ctx context.Context, kbID, text, source string) (*domain.IngestResult, error)
	IngestDocument(ctx context.Context, kbID, filename string, data []byte) (*domain.IngestResult, error)
	IngestURL(ctx context.Context, kbID, rawURL string) (*domain.IngestResult, error)
	IngestURLs(ctx context.Context, kbID string, urls []string) []domain.IngestResult
	Search(ctx context.Context, kbID, query string, topK int) ([]domain.SearchResult, error)
	Chunks(ctx context.Context, kbID string) ([]domain.Chunk, error)
	Stats(ctx context.Context, kbID string) (*domain.KnowledgeBaseStats, error)
	Delete(ctx context.Context, kbID string) error
	Supported(filename string) bool
}

// BotHandler serves the per-bot knowledge base endpoints.
type BotHandler struct {
	svc    RetrieverService
	policy service.ContextPolicy
}

func NewBotHandler(svc RetrieverService, policy service.ContextPolicy) *BotHandler {
	return &BotHandler{svc: svc, policy: policy}
}

type IngestTextRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type IngestURLRequest struct {
	URL  string   `json:"url"`
	URLs []string `json:"urls"`
}

type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type SearchResultResponse struct {
	Content         string  `json:"content"`
	Source          string  `json:"source"`
	SourceURL       string  `json:"source_url,omitempty"`
	ChunkIndex      int     `json:"chunk_index"`
	SimilarityScore float32 `json:"similarity_score"`
}

type SearchResponse struct {
	Results []SearchResultResponse `json:"results"`
	Context string                 `json:"context"`
	Sources []domain.Source        `json:"sources"`
}

func botID(r *http.Request) string {
	return chi.URLParam(r, "botID")
}

// IngestText handles POST /bots/{botID}/text
func (h *BotHandler) IngestText(w http.ResponseWriter, r *http.Request) {
	var req IngestTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.IngestText(r.Context(), botID(r), req.Text, req.Source)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, result)
}

// IngestDocument handles POST /bots/{botID}/documents (multipart upload)
func (h *BotHandler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if !h.svc.Supported(header.Filename) {
		api.HandleError(w, domain.ErrUnsupportedFileType)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	result, err := h.svc.IngestDocument(r.Context(), botID(r), header.Filename, data)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, result)
}

// IngestURLs handles POST /bots/{botID}/urls
func (h *BotHandler) IngestURLs(w http.ResponseWriter, r *http.Request) {
	var req IngestURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	urls := req.URLs
	if req.URL != "" {
		urls = append([]string{req.URL}, urls...)
	}
	if len(urls) == 0 {
		api.Error(w, http.StatusBadRequest, "url is required")
		return
	}

	if len(urls) == 1 {
		result, err := h.svc.IngestURL(r.Context(), botID(r), urls[0])
		if err != nil {
			api.HandleError(w, err)
			return
		}
		api.Success(w, http.StatusCreated, result)
		return
	}

	results := h.svc.IngestURLs(r.Context(), botID(r), urls)
	api.Success(w, http.StatusCreated, results)
}

// Search handles POST /bots/{botID}/search
func (h *BotHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := h.svc.Search(r.Context(), botID(r), req.Query, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := SearchResponse{
		Results: make([]SearchResultResponse, 0, len(results)),
		Context: h.policy.PrepareContext(results),
		Sources: h.policy.PrepareSources(results),
	}
	for _, result := range results {
		resp.Results = append(resp.Results, SearchResultResponse{
			Content:         result.Content,
			Source:          result.Source,
			SourceURL:       result.SourceURL,
			ChunkIndex:      result.ChunkIndex,
			SimilarityScore: result.SimilarityScore,
		})
	}
	api.Success(w, http.StatusOK, resp)
}

// Chunks handles GET /bots/{botID}/chunks
func (h *BotHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	chunks, err := h.svc.Chunks(r.Context(), botID(r))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, chunks)
}

// Stats handles GET /bots/{botID}/stats
func (h *BotHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), botID(r))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, stats)
}

// Delete handles DELETE /bots/{botID}
func (h *BotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), botID(r)); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]bool{"deleted": true})
}

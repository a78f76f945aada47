package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/botsy-ai/botsy/internal/chunker"
	"github.com/botsy-ai/botsy/internal/domain"
	"github.com/botsy-ai/botsy/internal/embedding"
	"github.com/botsy-ai/botsy/internal/fetch"
	"github.com/botsy-ai/botsy/internal/metrics"
	"github.com/botsy-ai/botsy/internal/telemetry"
)

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// DocumentExtractor converts uploaded file bytes into plain text.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, data []byte, filename string) (string, error)
	Supported(filename string) bool
}

// PageFetcher downloads a web page and extracts its readable text.
type PageFetcher interface {
	FetchText(ctx context.Context, rawURL string) (*fetch.Page, error)
}

// DirtyTracker is notified when a knowledge base's persisted artifacts
// change, so backups can be scheduled.
type DirtyTracker interface {
	MarkDirty(kbID string)
}

// Retriever orchestrates the document-to-answer pipeline: extraction,
// chunking, embedding, storage, and similarity search, one knowledge base
// per bot.
type Retriever struct {
	store     Store
	chunker   *chunker.Chunker
	extractor DocumentExtractor
	fetcher   PageFetcher
	embedSvc  *embedding.Service
	remote    embedding.Embedder
	tracker   DirtyTracker
	uuidGen   UUIDGenerator
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithRemoteEmbedder makes the Retriever embed with the given remote
// embedder instead of the per-KB TF-IDF fallback.
func WithRemoteEmbedder(e embedding.Embedder) RetrieverOption {
	return func(r *Retriever) { r.remote = e }
}

// WithDirtyTracker registers a tracker notified after every successful
// mutation of a knowledge base.
func WithDirtyTracker(t DirtyTracker) RetrieverOption {
	return func(r *Retriever) { r.tracker = t }
}

// WithUUIDGenerator overrides UUID generation (for testing).
func WithUUIDGenerator(g UUIDGenerator) RetrieverOption {
	return func(r *Retriever) { r.uuidGen = g }
}

// NewRetriever creates a Retriever over the given store.
func NewRetriever(
	store Store,
	ck *chunker.Chunker,
	extractor DocumentExtractor,
	fetcher PageFetcher,
	embedSvc *embedding.Service,
	opts ...RetrieverOption,
) *Retriever {
	r := &Retriever{
		store:     store,
		chunker:   ck,
		extractor: extractor,
		fetcher:   fetcher,
		embedSvc:  embedSvc,
		uuidGen:   &DefaultUUIDGenerator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IngestText chunks, embeds, and stores raw text under the given source name.
func (r *Retriever) IngestText(ctx context.Context, kbID, text, source string) (*domain.IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.IngestText", telemetry.SpanAttributes{
		KnowledgeBaseID: kbID,
		Source:          source,
		Operation:       "ingest_text",
	})
	defer span.End()

	if strings.TrimSpace(text) == "" {
		metrics.IngestFailures.WithLabelValues("text").Inc()
		return nil, domain.ErrEmptyText
	}
	if source == "" {
		source = "text_input"
	}

	result, err := r.ingest(ctx, kbID, text, source, "")
	if err != nil {
		span.SetError(err)
		metrics.IngestFailures.WithLabelValues("text").Inc()
		return nil, err
	}
	metrics.DocumentsIngested.WithLabelValues("text").Inc()
	return result, nil
}

// IngestDocument extracts text from an uploaded file and ingests it under
// the filename as source.
func (r *Retriever) IngestDocument(ctx context.Context, kbID, filename string, data []byte) (*domain.IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.IngestDocument", telemetry.SpanAttributes{
		KnowledgeBaseID: kbID,
		Source:          filename,
		Operation:       "ingest_document",
	})
	defer span.End()

	text, err := r.extractor.ExtractText(ctx, data, filename)
	if err != nil {
		span.SetError(err)
		metrics.IngestFailures.WithLabelValues("document").Inc()
		return nil, err
	}

	result, err := r.ingest(ctx, kbID, text, filename, "")
	if err != nil {
		span.SetError(err)
		metrics.IngestFailures.WithLabelValues("document").Inc()
		return nil, err
	}
	metrics.DocumentsIngested.WithLabelValues("document").Inc()
	return result, nil
}

// IngestURL fetches a page, extracts its readable text, and ingests it with
// the URL recorded on every chunk.
func (r *Retriever) IngestURL(ctx context.Context, kbID, rawURL string) (*domain.IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.IngestURL", telemetry.SpanAttributes{
		KnowledgeBaseID: kbID,
		Source:          rawURL,
		Operation:       "ingest_url",
	})
	defer span.End()

	page, err := r.fetcher.FetchText(ctx, rawURL)
	if err != nil {
		span.SetError(err)
		metrics.IngestFailures.WithLabelValues("url").Inc()
		return nil, err
	}

	result, err := r.ingest(ctx, kbID, page.Text, "URL: "+rawURL, rawURL)
	if err != nil {
		span.SetError(err)
		metrics.IngestFailures.WithLabelValues("url").Inc()
		return nil, err
	}
	metrics.DocumentsIngested.WithLabelValues("url").Inc()
	return result, nil
}

// IngestURLs ingests each URL independently, collecting per-URL outcomes.
// A failed URL does not abort the batch.
func (r *Retriever) IngestURLs(ctx context.Context, kbID string, urls []string) []domain.IngestResult {
	results := make([]domain.IngestResult, 0, len(urls))
	for _, u := range urls {
		res, err := r.IngestURL(ctx, kbID, u)
		if err != nil {
			results = append(results, domain.IngestResult{Error: err.Error()})
			continue
		}
		results = append(results, *res)
	}
	return results
}

func (r *Retriever) ingest(ctx context.Context, kbID, text, source, sourceURL string) (*domain.IngestResult, error) {
	chunks := r.chunker.ChunkText(text, source)
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	contents := make([]string, len(chunks))
	for i, chunk := range chunks {
		contents[i] = chunk.Content
	}

	embedder, err := r.ingestEmbedder(ctx, kbID, contents)
	if err != nil {
		return nil, domain.NewIngestionError("failed to prepare embedder", err)
	}

	vectors := r.embedSvc.GenerateBatch(ctx, embedder, contents)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range chunks {
		chunks[i].ID = r.uuidGen.NewString()
		chunks[i].SourceURL = sourceURL
		chunks[i].CreatedAt = now
	}

	if err := r.store.Add(ctx, kbID, vectors, chunks); err != nil {
		return nil, err
	}
	metrics.ChunksIngested.Add(float64(len(chunks)))
	r.markDirty(kbID)

	return &domain.IngestResult{
		Success:       true,
		ChunksAdded:   len(chunks),
		DocumentID:    r.uuidGen.NewString(),
		ContentLength: len(text),
	}, nil
}

// ingestEmbedder returns the remote embedder when configured, otherwise the
// knowledge base's TF-IDF embedder, building and persisting the vocabulary
// from the first ingested document set.
func (r *Retriever) ingestEmbedder(ctx context.Context, kbID string, texts []string) (embedding.Embedder, error) {
	if r.remote != nil {
		return r.remote, nil
	}

	vocab, err := r.store.LoadVocabulary(ctx, kbID)
	if err != nil {
		return nil, err
	}
	if vocab == nil {
		vocab = embedding.BuildVocabulary(texts)
		if err := r.store.SaveVocabulary(ctx, kbID, vocab); err != nil {
			return nil, err
		}
	}
	return embedding.NewTFIDF(vocab), nil
}

// queryEmbedder returns the embedder for search. In fallback mode a
// knowledge base without a vocabulary has never been ingested into, so the
// query degrades to a zero vector.
func (r *Retriever) queryEmbedder(ctx context.Context, kbID string) (embedding.Embedder, error) {
	if r.remote != nil {
		return r.remote, nil
	}

	vocab, err := r.store.LoadVocabulary(ctx, kbID)
	if err != nil {
		return nil, err
	}
	if vocab == nil {
		return nil, nil
	}
	return embedding.NewTFIDF(vocab), nil
}

// Search embeds the query and returns the top-k most similar chunks,
// highest similarity first. Embedding degradation yields empty results
// rather than an error.
func (r *Retriever) Search(ctx context.Context, kbID, query string, topK int) ([]domain.SearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.Search", telemetry.SpanAttributes{
		KnowledgeBaseID: kbID,
		Operation:       "search",
	})
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if topK <= 0 {
		topK = 5
	}

	metrics.SearchRequests.Inc()
	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	embedder, err := r.queryEmbedder(ctx, kbID)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewSearchError(err)
	}
	if embedder == nil {
		return []domain.SearchResult{}, nil
	}

	vectors := r.embedSvc.Generate(ctx, embedder, []string{query})
	if len(vectors) != 1 || embedding.IsZero(vectors[0]) {
		return []domain.SearchResult{}, nil
	}

	results, err := r.store.Search(ctx, kbID, vectors[0], topK)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return results, nil
}

// Chunks returns every stored chunk of a knowledge base in ingestion order.
func (r *Retriever) Chunks(ctx context.Context, kbID string) ([]domain.Chunk, error) {
	return r.store.Chunks(ctx, kbID)
}

// Stats reports chunk and document counts plus index size for a knowledge base.
func (r *Retriever) Stats(ctx context.Context, kbID string) (*domain.KnowledgeBaseStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.Stats", telemetry.SpanAttributes{
		KnowledgeBaseID: kbID,
		Operation:       "stats",
	})
	defer span.End()

	return r.store.Stats(ctx, kbID)
}

// Delete removes a knowledge base entirely. Per-document deletion is not
// supported: correcting a document means deleting the knowledge base and
// re-ingesting its sources.
func (r *Retriever) Delete(ctx context.Context, kbID string) error {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.Delete", telemetry.SpanAttributes{
		KnowledgeBaseID: kbID,
		Operation:       "delete",
	})
	defer span.End()

	if err := r.store.DeleteAll(ctx, kbID); err != nil {
		span.SetError(err)
		return err
	}
	r.markDirty(kbID)
	return nil
}

// Supported reports whether a filename's type can be ingested.
func (r *Retriever) Supported(filename string) bool {
	return r.extractor.Supported(filename)
}

func (r *Retriever) markDirty(kbID string) {
	if r.tracker != nil {
		r.tracker.MarkDirty(kbID)
	}
}

package embedding

import (
	"context"
	"log"
	"runtime"
	"time"

	"github.com/botsy-ai/botsy/internal/metrics"
)

const (
	// DefaultBatchSize bounds the number of texts sent to an embedder in one
	// call during batched generation.
	DefaultBatchSize = 100
	// defaultBatchPause is the inter-batch pause bounding peak resource usage.
	defaultBatchPause = 100 * time.Millisecond
)

// Service runs embedders with the pipeline's degradation and resource
// policies: embedding failures produce zero vectors instead of errors, and
// CPU-bound encodes are bounded by a worker semaphore so they cannot starve
// concurrent request handling.
type Service struct {
	workers    chan struct{}
	batchSize  int
	batchPause time.Duration
}

// NewService creates a Service with maxWorkers concurrent encodes
// (default: GOMAXPROCS) and the given batch size (default: DefaultBatchSize).
func NewService(maxWorkers, batchSize int) *Service {
	if maxWorkers <= 0 {
		maxWorkers = runtime.GOMAXPROCS(0)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{
		workers:    make(chan struct{}, maxWorkers),
		batchSize:  batchSize,
		batchPause: defaultBatchPause,
	}
}

// Generate embeds texts with e. It never returns an error: on failure every
// text gets a zero vector of the embedder's dimension, which callers must
// tolerate as "no signal". Output order matches input order.
func (s *Service) Generate(ctx context.Context, e Embedder, texts []string) [][]float32 {
	if len(texts) == 0 {
		return [][]float32{}
	}

	select {
	case s.workers <- struct{}{}:
		defer func() { <-s.workers }()
	case <-ctx.Done():
		metrics.EmbeddingFallbacks.Add(float64(len(texts)))
		return ZeroVectors(len(texts))
	}

	vectors, err := e.Embed(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		if err != nil {
			log.Printf("embedding failed, degrading to zero vectors: %v", err)
		}
		metrics.EmbeddingFallbacks.Add(float64(len(texts)))
		return ZeroVectors(len(texts))
	}
	return vectors
}

// GenerateBatch embeds texts in fixed-size batches with a short pause
// between batches. Results are identical to a single Generate call.
func (s *Service) GenerateBatch(ctx context.Context, e Embedder, texts []string) [][]float32 {
	if len(texts) == 0 {
		return [][]float32{}
	}

	all := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		all = append(all, s.Generate(ctx, e, texts[start:end])...)

		if end < len(texts) {
			select {
			case <-time.After(s.batchPause):
			case <-ctx.Done():
				all = append(all, ZeroVectors(len(texts)-end)...)
				return all
			}
		}
	}
	return all
}

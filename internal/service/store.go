package service

import (
	"context"

	"github.com/botsy-ai/botsy/internal/domain"
	"github.com/botsy-ai/botsy/internal/embedding"
)

// Store persists one vector index and chunk store pair per knowledge base.
// Implementations keep the pair aligned: Add appends vectors and chunks
// together or not at all, and Search scores against exactly the chunks that
// were added. Vectors are L2-normalized on write so inner-product search
// equals cosine similarity.
type Store interface {
	Add(ctx context.Context, kbID string, vectors [][]float32, chunks []domain.Chunk) error
	Search(ctx context.Context, kbID string, query []float32, k int) ([]domain.SearchResult, error)
	Chunks(ctx context.Context, kbID string) ([]domain.Chunk, error)
	Stats(ctx context.Context, kbID string) (*domain.KnowledgeBaseStats, error)
	DeleteAll(ctx context.Context, kbID string) error
	LoadVocabulary(ctx context.Context, kbID string) (*embedding.Vocabulary, error)
	SaveVocabulary(ctx context.Context, kbID string, vocab *embedding.Vocabulary) error
}

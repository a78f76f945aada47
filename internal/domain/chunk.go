package domain

import (
	"fmt"
	"time"
)

// EmbeddingDimension is the fixed dimension of all vectors in the system.
// It matches the all-MiniLM-class sentence embedding models and the
// reduced-dimension OpenAI embeddings the daemon requests.
const EmbeddingDimension = 384

// Chunk is the unit of retrievable text: a bounded, overlapping slice of a
// source document. Chunks are append-only; once ingested they are never
// mutated or individually deleted.
type Chunk struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Source     string    `json:"source"`
	SourceURL  string    `json:"source_url,omitempty"`
	ChunkIndex int       `json:"chunk_index"`
	TokenCount int       `json:"token_count"`
	CharCount  int       `json:"char_count"`
	CreatedAt  time.Time `json:"created_at,omitempty"`

	// Embedding is present only transiently during ingestion. It is stored
	// in the vector index, never in the chunk store.
	Embedding []float32 `json:"-"`
}

// ValidateChunk checks the invariants a chunk must satisfy before it may be
// appended to a knowledge base.
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}
	if c.Content == "" {
		return fmt.Errorf("chunk Content is required")
	}
	if c.Source == "" {
		return fmt.Errorf("chunk Source is required")
	}
	if c.ChunkIndex < 0 {
		return fmt.Errorf("chunk ChunkIndex cannot be negative")
	}
	return nil
}

// SearchResult pairs a chunk with its cosine similarity to a query vector.
type SearchResult struct {
	Chunk
	SimilarityScore float32 `json:"similarity_score"`
}

// KnowledgeBaseStats summarizes a knowledge base.
type KnowledgeBaseStats struct {
	TotalChunks    int   `json:"total_chunks"`
	TotalDocuments int   `json:"total_documents"`
	IndexSizeBytes int64 `json:"index_size_bytes"`
}

// IngestResult reports the outcome of a single ingestion operation.
type IngestResult struct {
	Success       bool   `json:"success"`
	ChunksAdded   int    `json:"chunks_added"`
	DocumentID    string `json:"document_id,omitempty"`
	ContentLength int    `json:"content_length,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Source is a deduplicated citation entry prepared for display alongside an
// answer.
type Source struct {
	Filename        string  `json:"filename"`
	ContentPreview  string  `json:"content_preview"`
	SimilarityScore float32 `json:"similarity_score"`
	SourceURL       string  `json:"source_url,omitempty"`
	Citation        string  `json:"citation,omitempty"`
}

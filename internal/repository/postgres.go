package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/botsy-ai/botsy/internal/domain"
	"github.com/botsy-ai/botsy/internal/embedding"
)

// PostgresStore persists knowledge bases in Postgres with pgvector.
// Chunks and their embeddings live in one row, so the index and chunk
// store cannot drift apart; insertion order is preserved by a position
// column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Add normalizes vectors and inserts the chunk rows in one transaction.
func (s *PostgresStore) Add(ctx context.Context, kbID string, vectors [][]float32, chunks []domain.Chunk) error {
	if len(vectors) != len(chunks) {
		return domain.ErrVectorChunkMismatch
	}
	if kbID == "" {
		return domain.ErrMissingKnowledgeBaseID
	}
	if len(vectors) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.NewIngestionError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	for i, c := range chunks {
		v := make([]float32, len(vectors[i]))
		copy(v, vectors[i])
		embedding.NormalizeL2(v)

		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO kb_chunks
				(id, kb_id, content, source, source_url, chunk_index, token_count, char_count, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID, kbID, c.Content, c.Source, c.SourceURL, c.ChunkIndex, c.TokenCount, c.CharCount,
			pgvector.NewVector(v), createdAt,
		)
		if err != nil {
			return domain.NewIngestionError("failed to insert chunk", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewIngestionError("failed to commit transaction", err)
	}
	return nil
}

// Search returns the k nearest chunks by cosine similarity, descending.
func (s *PostgresStore) Search(ctx context.Context, kbID string, query []float32, k int) ([]domain.SearchResult, error) {
	if kbID == "" {
		return nil, domain.ErrMissingKnowledgeBaseID
	}
	if k <= 0 {
		return []domain.SearchResult{}, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	embedding.NormalizeL2(q)

	rows, err := s.pool.Query(ctx,
		`SELECT id, content, source, source_url, chunk_index, token_count, char_count, created_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM kb_chunks
		 WHERE kb_id = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(q), kbID, k,
	)
	if err != nil {
		return nil, domain.NewSearchError(err)
	}
	defer rows.Close()

	results := make([]domain.SearchResult, 0, k)
	for rows.Next() {
		var r domain.SearchResult
		var similarity float64
		if err := rows.Scan(&r.ID, &r.Content, &r.Source, &r.SourceURL, &r.ChunkIndex,
			&r.TokenCount, &r.CharCount, &r.CreatedAt, &similarity); err != nil {
			return nil, domain.NewSearchError(err)
		}
		r.SimilarityScore = float32(similarity)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewSearchError(err)
	}
	return results, nil
}

// Chunks returns every chunk in the knowledge base in ingestion order.
func (s *PostgresStore) Chunks(ctx context.Context, kbID string) ([]domain.Chunk, error) {
	if kbID == "" {
		return nil, domain.ErrMissingKnowledgeBaseID
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, content, source, source_url, chunk_index, token_count, char_count, created_at
		 FROM kb_chunks
		 WHERE kb_id = $1
		 ORDER BY position`,
		kbID,
	)
	if err != nil {
		return nil, domain.NewSearchError(err)
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0)
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.Content, &c.Source, &c.SourceURL, &c.ChunkIndex,
			&c.TokenCount, &c.CharCount, &c.CreatedAt); err != nil {
			return nil, domain.NewSearchError(err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Stats reports chunk count, distinct source count, and the stored
// embedding footprint for a knowledge base.
func (s *PostgresStore) Stats(ctx context.Context, kbID string) (*domain.KnowledgeBaseStats, error) {
	if kbID == "" {
		return nil, domain.ErrMissingKnowledgeBaseID
	}

	var stats domain.KnowledgeBaseStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT source), COALESCE(SUM(pg_column_size(embedding)), 0)
		 FROM kb_chunks WHERE kb_id = $1`,
		kbID,
	).Scan(&stats.TotalChunks, &stats.TotalDocuments, &stats.IndexSizeBytes)
	if err != nil {
		return nil, domain.NewSearchError(err)
	}
	return &stats, nil
}

// DeleteAll removes every chunk and the vocabulary of a knowledge base.
func (s *PostgresStore) DeleteAll(ctx context.Context, kbID string) error {
	if kbID == "" {
		return domain.ErrMissingKnowledgeBaseID
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM kb_chunks WHERE kb_id = $1`, kbID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM kb_vocabularies WHERE kb_id = $1`, kbID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// LoadVocabulary returns the knowledge base's persisted vocabulary, or nil
// when none has been built.
func (s *PostgresStore) LoadVocabulary(ctx context.Context, kbID string) (*embedding.Vocabulary, error) {
	if kbID == "" {
		return nil, domain.ErrMissingKnowledgeBaseID
	}

	var termsJSON, freqJSON []byte
	var docCount int
	err := s.pool.QueryRow(ctx,
		`SELECT terms, doc_freq, doc_count FROM kb_vocabularies WHERE kb_id = $1`,
		kbID,
	).Scan(&termsJSON, &freqJSON, &docCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	vocab := &embedding.Vocabulary{DocCount: docCount}
	if err := json.Unmarshal(termsJSON, &vocab.Terms); err != nil {
		return nil, fmt.Errorf("invalid vocabulary terms: %w", err)
	}
	if err := json.Unmarshal(freqJSON, &vocab.DocFreq); err != nil {
		return nil, fmt.Errorf("invalid vocabulary doc_freq: %w", err)
	}
	return vocab, nil
}

// SaveVocabulary upserts the knowledge base's vocabulary.
func (s *PostgresStore) SaveVocabulary(ctx context.Context, kbID string, vocab *embedding.Vocabulary) error {
	if kbID == "" {
		return domain.ErrMissingKnowledgeBaseID
	}

	termsJSON, err := json.Marshal(vocab.Terms)
	if err != nil {
		return err
	}
	freqJSON, err := json.Marshal(vocab.DocFreq)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO kb_vocabularies (kb_id, terms, doc_freq, doc_count, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (kb_id) DO UPDATE
		 SET terms = EXCLUDED.terms,
		     doc_freq = EXCLUDED.doc_freq,
		     doc_count = EXCLUDED.doc_count,
		     updated_at = now()`,
		kbID, termsJSON, freqJSON, vocab.DocCount,
	)
	return err
}

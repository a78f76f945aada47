//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botsy-ai/botsy/internal/domain"
	"github.com/botsy-ai/botsy/internal/embedding"
	"github.com/botsy-ai/botsy/internal/testutil"
)

func seedChunk(content, source string, position int) domain.Chunk {
	return domain.Chunk{
		ID:         uuid.NewString(),
		Content:    content,
		Source:     source,
		ChunkIndex: position,
		TokenCount: 10,
		CharCount:  len(content),
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func seedVector(hot int) []float32 {
	v := make([]float32, domain.EmbeddingDimension)
	v[hot] = 1
	return v
}

func TestPostgresStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewPostgresStore(pool)

	vectors := [][]float32{seedVector(0), seedVector(1), seedVector(2)}
	chunks := []domain.Chunk{
		seedChunk("first chunk", "doc.txt", 0),
		seedChunk("second chunk", "doc.txt", 1),
		seedChunk("third chunk", "other.txt", 0),
	}
	require.NoError(t, store.Add(ctx, "bot-1", vectors, chunks))

	results, err := store.Search(ctx, "bot-1", seedVector(1), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "second chunk", results[0].Content)
	assert.InDelta(t, 1.0, float64(results[0].SimilarityScore), 1e-4)
	assert.Greater(t, results[0].SimilarityScore, results[1].SimilarityScore)

	stats, err := store.Stats(ctx, "bot-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Greater(t, stats.IndexSizeBytes, int64(0))
}

func TestPostgresStore_AddMismatch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewPostgresStore(pool)
	err := store.Add(ctx, "bot-1", [][]float32{seedVector(0)},
		[]domain.Chunk{seedChunk("one", "doc.txt", 0), seedChunk("two", "doc.txt", 1)})
	assert.ErrorIs(t, err, domain.ErrVectorChunkMismatch)
}

func TestPostgresStore_ChunksPreserveOrder(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewPostgresStore(pool)
	require.NoError(t, store.Add(ctx, "bot-1",
		[][]float32{seedVector(0)}, []domain.Chunk{seedChunk("one", "doc.txt", 0)}))
	require.NoError(t, store.Add(ctx, "bot-1",
		[][]float32{seedVector(1)}, []domain.Chunk{seedChunk("two", "doc.txt", 1)}))

	chunks, err := store.Chunks(ctx, "bot-1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "one", chunks[0].Content)
	assert.Equal(t, "two", chunks[1].Content)
}

func TestPostgresStore_DeleteAll(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewPostgresStore(pool)
	require.NoError(t, store.Add(ctx, "bot-1",
		[][]float32{seedVector(0)}, []domain.Chunk{seedChunk("one", "doc.txt", 0)}))
	require.NoError(t, store.SaveVocabulary(ctx, "bot-1",
		embedding.BuildVocabulary([]string{"alpha beta"})))

	require.NoError(t, store.DeleteAll(ctx, "bot-1"))

	results, err := store.Search(ctx, "bot-1", seedVector(0), 1)
	require.NoError(t, err)
	assert.Empty(t, results)

	vocab, err := store.LoadVocabulary(ctx, "bot-1")
	require.NoError(t, err)
	assert.Nil(t, vocab)
}

func TestPostgresStore_VocabularyRoundTrip(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewPostgresStore(pool)

	vocab, err := store.LoadVocabulary(ctx, "bot-1")
	require.NoError(t, err)
	assert.Nil(t, vocab)

	built := embedding.BuildVocabulary([]string{"alpha beta gamma", "alpha beta"})
	require.NoError(t, store.SaveVocabulary(ctx, "bot-1", built))

	loaded, err := store.LoadVocabulary(ctx, "bot-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, built.Terms, loaded.Terms)
	assert.Equal(t, built.DocFreq, loaded.DocFreq)
	assert.Equal(t, built.DocCount, loaded.DocCount)

	// save again to exercise the upsert path
	require.NoError(t, store.SaveVocabulary(ctx, "bot-1", built))
}

package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	dim   int
	err   error
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, s.dim)
		vectors[i][0] = 1
	}
	return vectors, nil
}

func (s *stubEmbedder) Dimension() int { return s.dim }

func TestGenerate_Success(t *testing.T) {
	svc := NewService(2, 10)
	e := &stubEmbedder{dim: 8}

	vectors := svc.Generate(context.Background(), e, []string{"a", "b"})
	require.Len(t, vectors, 2)
	assert.Equal(t, float32(1), vectors[0][0])
}

func TestGenerate_Empty(t *testing.T) {
	svc := NewService(2, 10)
	e := &stubEmbedder{dim: 8}

	vectors := svc.Generate(context.Background(), e, nil)
	assert.Empty(t, vectors)
	assert.Zero(t, e.calls)
}

func TestGenerate_DegradesToZeroVectorsOnError(t *testing.T) {
	svc := NewService(2, 10)
	e := &stubEmbedder{dim: 8, err: errors.New("provider down")}

	vectors := svc.Generate(context.Background(), e, []string{"a", "b", "c"})
	require.Len(t, vectors, 3)
	for _, v := range vectors {
		assert.True(t, IsZero(v))
	}
}

func TestGenerateBatch_SplitsBatches(t *testing.T) {
	svc := NewService(2, 2)
	svc.batchPause = 0
	e := &stubEmbedder{dim: 8}

	vectors := svc.GenerateBatch(context.Background(), e, []string{"a", "b", "c", "d", "e"})
	require.Len(t, vectors, 5)
	assert.Equal(t, 3, e.calls)
}

func TestGenerateBatch_CancelledMidway(t *testing.T) {
	svc := NewService(2, 1)
	e := &stubEmbedder{dim: 8}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vectors := svc.GenerateBatch(ctx, e, []string{"a", "b", "c"})
	// Every text still gets a vector; unprocessed tail is zero vectors.
	require.Len(t, vectors, 3)
}

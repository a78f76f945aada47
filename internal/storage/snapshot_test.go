package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botsy-ai/botsy/internal/domain"
	"github.com/botsy-ai/botsy/internal/index"
)

// memObjectStore is an in-memory ObjectStore for tests.
type memObjectStore struct {
	objects map[string][]byte
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (m *memObjectStore) PutObject(ctx context.Context, key string, data []byte) error {
	c := make([]byte, len(data))
	copy(c, data)
	m.objects[key] = c
	return nil
}

func (m *memObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	return m.objects[key], nil
}

func (m *memObjectStore) DeleteObject(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memObjectStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func seedKB(t *testing.T, store *index.FileStore, kbID string) {
	t.Helper()
	v := make([]float32, domain.EmbeddingDimension)
	v[0] = 1
	chunk := domain.Chunk{
		ID:         "c1",
		Content:    "backup and restore round trip",
		Source:     "doc.txt",
		TokenCount: 5,
		CharCount:  29,
	}
	require.NoError(t, store.Add(context.Background(), kbID, [][]float32{v}, []domain.Chunk{chunk}))
}

func TestSnapshotAndRestore(t *testing.T) {
	ctx := context.Background()
	objects := newMemObjectStore()

	src, err := index.NewFileStore(t.TempDir())
	require.NoError(t, err)
	seedKB(t, src, "bot-1")

	svc := NewSnapshotService(objects, src)
	require.NoError(t, svc.Snapshot(ctx, "bot-1"))
	assert.Contains(t, objects.objects, "kb/bot-1/"+index.IndexArtifact)
	assert.Contains(t, objects.objects, "kb/bot-1/"+index.ChunksArtifact)

	dst, err := index.NewFileStore(t.TempDir())
	require.NoError(t, err)
	restore := NewSnapshotService(objects, dst)
	require.NoError(t, restore.Restore(ctx, "bot-1"))

	chunks, err := dst.Chunks(ctx, "bot-1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "backup and restore round trip", chunks[0].Content)
}

func TestSnapshotPurge(t *testing.T) {
	ctx := context.Background()
	objects := newMemObjectStore()

	src, err := index.NewFileStore(t.TempDir())
	require.NoError(t, err)
	seedKB(t, src, "bot-1")

	svc := NewSnapshotService(objects, src)
	require.NoError(t, svc.Snapshot(ctx, "bot-1"))
	require.NotEmpty(t, objects.objects)

	require.NoError(t, svc.Purge(ctx, "bot-1"))
	assert.Empty(t, objects.objects)
}

func TestSnapshotPurgeLeavesOtherKBs(t *testing.T) {
	ctx := context.Background()
	objects := newMemObjectStore()

	src, err := index.NewFileStore(t.TempDir())
	require.NoError(t, err)
	seedKB(t, src, "bot-1")
	seedKB(t, src, "bot-2")

	svc := NewSnapshotService(objects, src)
	require.NoError(t, svc.Snapshot(ctx, "bot-1"))
	require.NoError(t, svc.Snapshot(ctx, "bot-2"))

	require.NoError(t, svc.Purge(ctx, "bot-1"))
	keys, err := objects.ListKeys(ctx, "kb/bot-2/")
	require.NoError(t, err)
	assert.NotEmpty(t, keys)
}

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/botsy-ai/botsy/internal/domain"
	"github.com/botsy-ai/botsy/internal/embedding"
)

// Artifact filenames inside a knowledge base directory.
const (
	IndexArtifact  = "index.vec"
	ChunksArtifact = "chunks.json"
	VocabArtifact  = "vocab.json"
)

var kbIDRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// FileStore persists one knowledge base per directory under dataDir:
// a binary vector index, a JSON chunk store, and (when the fallback
// embedder is active) a vocabulary artifact. The index and chunk store
// always have equal length and matching order: position i in one refers
// to position i in the other.
//
// Mutations follow load-modify-save with a temp-file-and-rename write per
// artifact, serialized per knowledge base; reads proceed concurrently
// under a shared lock.
type FileStore struct {
	dataDir string

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewFileStore creates a FileStore rooted at dataDir, creating it if needed.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileStore{
		dataDir: dataDir,
		locks:   make(map[string]*sync.RWMutex),
	}, nil
}

func (s *FileStore) kbLock(kbID string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[kbID]
	if !ok {
		lock = &sync.RWMutex{}
		s.locks[kbID] = lock
	}
	return lock
}

func (s *FileStore) kbDir(kbID string) (string, error) {
	if !kbIDRe.MatchString(kbID) {
		return "", domain.ErrMissingKnowledgeBaseID
	}
	return filepath.Join(s.dataDir, kbID), nil
}

// Add normalizes vectors, appends them to the index, and appends the
// corresponding chunks (embeddings stripped) to the chunk store, preserving
// input order. The vector and chunk counts must match.
func (s *FileStore) Add(ctx context.Context, kbID string, vectors [][]float32, chunks []domain.Chunk) error {
	if len(vectors) != len(chunks) {
		return domain.ErrVectorChunkMismatch
	}
	if len(vectors) == 0 {
		return nil
	}

	dir, err := s.kbDir(kbID)
	if err != nil {
		return err
	}

	lock := s.kbLock(kbID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	ix, err := s.loadIndex(dir)
	if err != nil {
		return domain.NewIngestionError("failed to load index", err)
	}
	existing, err := s.loadChunks(dir)
	if err != nil {
		return domain.NewIngestionError("failed to load chunk store", err)
	}
	if ix.size() != len(existing) {
		return domain.NewIngestionError(
			fmt.Sprintf("knowledge base is corrupt: index has %d vectors, chunk store has %d chunks", ix.size(), len(existing)),
			nil,
		)
	}

	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		c := make([]float32, len(v))
		copy(c, v)
		embedding.NormalizeL2(c)
		normalized[i] = c
	}
	if err := ix.add(normalized); err != nil {
		return domain.NewIngestionError("failed to append vectors", err)
	}

	for _, chunk := range chunks {
		chunk.Embedding = nil
		existing = append(existing, chunk)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.NewIngestionError("failed to create knowledge base dir", err)
	}

	encoded, err := ix.encode()
	if err != nil {
		return domain.NewIngestionError("failed to encode index", err)
	}
	if err := writeAtomic(filepath.Join(dir, IndexArtifact), encoded); err != nil {
		return domain.NewIngestionError("failed to write index", err)
	}

	chunkData, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return domain.NewIngestionError("failed to encode chunk store", err)
	}
	if err := writeAtomic(filepath.Join(dir, ChunksArtifact), chunkData); err != nil {
		return domain.NewIngestionError("failed to write chunk store", err)
	}

	return nil
}

// Search returns up to k chunks nearest to query by cosine similarity,
// descending. A knowledge base with no index yields an empty result.
func (s *FileStore) Search(ctx context.Context, kbID string, query []float32, k int) ([]domain.SearchResult, error) {
	dir, err := s.kbDir(kbID)
	if err != nil {
		return nil, err
	}

	lock := s.kbLock(kbID)
	lock.RLock()
	defer lock.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(dir, IndexArtifact)); os.IsNotExist(err) {
		return []domain.SearchResult{}, nil
	}

	ix, err := s.loadIndex(dir)
	if err != nil {
		return nil, domain.NewSearchError(err)
	}
	chunks, err := s.loadChunks(dir)
	if err != nil {
		return nil, domain.NewSearchError(err)
	}

	q := make([]float32, len(query))
	copy(q, query)
	embedding.NormalizeL2(q)

	results := make([]domain.SearchResult, 0, k)
	for _, hit := range ix.search(q, k) {
		if hit.position >= len(chunks) {
			continue
		}
		results = append(results, domain.SearchResult{
			Chunk:           chunks[hit.position],
			SimilarityScore: hit.score,
		})
	}
	return results, nil
}

// Chunks returns every chunk in the knowledge base in ingestion order.
func (s *FileStore) Chunks(ctx context.Context, kbID string) ([]domain.Chunk, error) {
	dir, err := s.kbDir(kbID)
	if err != nil {
		return nil, err
	}

	lock := s.kbLock(kbID)
	lock.RLock()
	defer lock.RUnlock()

	chunks, err := s.loadChunks(dir)
	if err != nil {
		return nil, domain.NewSearchError(err)
	}
	return chunks, nil
}

// Stats reports chunk count, distinct source count, and the on-disk index
// size for a knowledge base.
func (s *FileStore) Stats(ctx context.Context, kbID string) (*domain.KnowledgeBaseStats, error) {
	dir, err := s.kbDir(kbID)
	if err != nil {
		return nil, err
	}

	lock := s.kbLock(kbID)
	lock.RLock()
	defer lock.RUnlock()

	chunks, err := s.loadChunks(dir)
	if err != nil {
		return nil, domain.NewSearchError(err)
	}

	sources := make(map[string]struct{})
	for _, chunk := range chunks {
		sources[chunk.Source] = struct{}{}
	}

	stats := &domain.KnowledgeBaseStats{
		TotalChunks:    len(chunks),
		TotalDocuments: len(sources),
	}
	if info, err := os.Stat(filepath.Join(dir, IndexArtifact)); err == nil {
		stats.IndexSizeBytes = info.Size()
	}
	return stats, nil
}

// DeleteAll irrecoverably removes every artifact of a knowledge base.
func (s *FileStore) DeleteAll(ctx context.Context, kbID string) error {
	dir, err := s.kbDir(kbID)
	if err != nil {
		return err
	}

	lock := s.kbLock(kbID)
	lock.Lock()
	defer lock.Unlock()

	return os.RemoveAll(dir)
}

// LoadVocabulary returns the knowledge base's persisted vocabulary, or nil
// when none has been built.
func (s *FileStore) LoadVocabulary(ctx context.Context, kbID string) (*embedding.Vocabulary, error) {
	dir, err := s.kbDir(kbID)
	if err != nil {
		return nil, err
	}

	lock := s.kbLock(kbID)
	lock.RLock()
	defer lock.RUnlock()

	data, err := os.ReadFile(filepath.Join(dir, VocabArtifact))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var vocab embedding.Vocabulary
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("invalid vocabulary artifact: %w", err)
	}
	return &vocab, nil
}

// SaveVocabulary persists the knowledge base's vocabulary.
func (s *FileStore) SaveVocabulary(ctx context.Context, kbID string, vocab *embedding.Vocabulary) error {
	dir, err := s.kbDir(kbID)
	if err != nil {
		return err
	}

	lock := s.kbLock(kbID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(vocab, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(dir, VocabArtifact), data)
}

// Artifacts returns the names and contents of every artifact currently
// persisted for a knowledge base. Used by snapshot backup.
func (s *FileStore) Artifacts(ctx context.Context, kbID string) (map[string][]byte, error) {
	dir, err := s.kbDir(kbID)
	if err != nil {
		return nil, err
	}

	lock := s.kbLock(kbID)
	lock.RLock()
	defer lock.RUnlock()

	artifacts := make(map[string][]byte)
	for _, name := range []string{IndexArtifact, ChunksArtifact, VocabArtifact} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		artifacts[name] = data
	}
	return artifacts, nil
}

// RestoreArtifact writes one artifact back into a knowledge base directory.
// Used by snapshot restore.
func (s *FileStore) RestoreArtifact(ctx context.Context, kbID, name string, data []byte) error {
	switch name {
	case IndexArtifact, ChunksArtifact, VocabArtifact:
	default:
		return fmt.Errorf("unknown artifact %q", name)
	}

	dir, err := s.kbDir(kbID)
	if err != nil {
		return err
	}

	lock := s.kbLock(kbID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(dir, name), data)
}

func (s *FileStore) loadIndex(dir string) (*flatIndex, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexArtifact))
	if os.IsNotExist(err) {
		return newFlatIndex(defaultDim), nil
	}
	if err != nil {
		return nil, err
	}
	return decodeFlatIndex(data)
}

func (s *FileStore) loadChunks(dir string) ([]domain.Chunk, error) {
	data, err := os.ReadFile(filepath.Join(dir, ChunksArtifact))
	if os.IsNotExist(err) {
		return []domain.Chunk{}, nil
	}
	if err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("invalid chunk store artifact: %w", err)
	}
	return chunks, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

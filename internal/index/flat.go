// Package index implements the file-backed knowledge-base store: a flat
// inner-product vector index persisted next to its chunk metadata, one
// directory per knowledge base.
package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/botsy-ai/botsy/internal/domain"
)

// Artifact layout constants.
const (
	indexMagic   = "BVIX"
	indexVersion = uint32(1)
)

// flatIndex is a brute-force inner-product index over L2-normalized vectors,
// so inner product equals cosine similarity. Append-only.
type flatIndex struct {
	dim     int
	vectors [][]float32
}

func newFlatIndex(dim int) *flatIndex {
	return &flatIndex{dim: dim}
}

func (ix *flatIndex) size() int {
	return len(ix.vectors)
}

// add appends vectors in input order. Every vector must match the index
// dimension.
func (ix *flatIndex) add(vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("vector has dimension %d, index expects %d", len(v), ix.dim)
		}
	}
	ix.vectors = append(ix.vectors, vectors...)
	return nil
}

type scoredPosition struct {
	position int
	score    float32
}

// search returns the top-k positions by inner product with query, descending.
// k is clamped to the index size.
func (ix *flatIndex) search(query []float32, k int) []scoredPosition {
	if len(ix.vectors) == 0 || k <= 0 || len(query) != ix.dim {
		return nil
	}
	if k > len(ix.vectors) {
		k = len(ix.vectors)
	}

	scored := make([]scoredPosition, len(ix.vectors))
	for i, v := range ix.vectors {
		var dot float32
		for j := range v {
			dot += v[j] * query[j]
		}
		scored[i] = scoredPosition{position: i, score: dot}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored[:k]
}

// encode serializes the index: magic, version, dimension, count, then
// count*dim little-endian float32 values.
func (ix *flatIndex) encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(indexMagic)

	header := []uint32{indexVersion, uint32(ix.dim), uint32(len(ix.vectors))}
	for _, h := range header {
		if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
			return nil, err
		}
	}

	for _, v := range ix.vectors {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// decodeFlatIndex deserializes an index artifact.
func decodeFlatIndex(data []byte) (*flatIndex, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, len(indexMagic))
	if _, err := r.Read(magic); err != nil || string(magic) != indexMagic {
		return nil, fmt.Errorf("invalid index artifact: bad magic")
	}

	var version, dim, count uint32
	for _, dst := range []*uint32{&version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, fmt.Errorf("invalid index artifact: truncated header: %w", err)
		}
	}
	if version != indexVersion {
		return nil, fmt.Errorf("invalid index artifact: unsupported version %d", version)
	}
	if dim == 0 || dim > 1<<16 {
		return nil, fmt.Errorf("invalid index artifact: bad dimension %d", dim)
	}

	ix := newFlatIndex(int(dim))
	ix.vectors = make([][]float32, 0, count)
	for i := uint32(0); i < count; i++ {
		v := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("invalid index artifact: truncated vectors: %w", err)
		}
		ix.vectors = append(ix.vectors, v)
	}
	return ix, nil
}

// defaultDim is the dimension of every index this daemon writes.
const defaultDim = domain.EmbeddingDimension

package embedding

import (
	"math"

	"github.com/botsy-ai/botsy/internal/domain"
)

// CosineSimilarity computes the cosine of the angle between a and b.
// It returns 0.0 when either vector has zero norm or the lengths differ;
// it never divides by zero.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// NormalizeL2 scales v to unit length in place. A zero vector is left
// unchanged.
func NormalizeL2(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

// IsZero reports whether every component of v is zero.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// ZeroVectors returns n zero vectors of the fixed embedding dimension.
// Callers treat zero vectors as "no signal".
func ZeroVectors(n int) [][]float32 {
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = make([]float32, domain.EmbeddingDimension)
	}
	return vectors
}

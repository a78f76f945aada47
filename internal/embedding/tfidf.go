package embedding

import (
	"context"
	"math"

	"github.com/botsy-ai/botsy/internal/domain"
)

// TFIDF is the deterministic fallback embedder. Each vocabulary term owns a
// fixed vector coordinate; a document's weight there is its term frequency
// scaled by a smoothed inverse document frequency from the vocabulary's
// build corpus. Vectors are L2-normalized; an all-zero vector (empty text,
// no vocabulary overlap) is left as the zero vector.
type TFIDF struct {
	vocab *Vocabulary
}

// NewTFIDF creates a TF-IDF embedder over an existing vocabulary.
func NewTFIDF(vocab *Vocabulary) *TFIDF {
	return &TFIDF{vocab: vocab}
}

// Dimension returns the fixed embedding dimension.
func (e *TFIDF) Dimension() int {
	return domain.EmbeddingDimension
}

// Embed computes one TF-IDF vector per text, in input order.
func (e *TFIDF) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *TFIDF) embedOne(text string) []float32 {
	vector := make([]float32, domain.EmbeddingDimension)

	tokens := Tokenize(text)
	if len(tokens) == 0 || e.vocab.Len() == 0 {
		return vector
	}

	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}

	for term, count := range counts {
		coord, ok := e.vocab.Coordinate(term)
		if !ok {
			continue
		}
		tf := float64(count) / float64(len(tokens))
		vector[coord] = float32(tf * e.idf(coord))
	}

	NormalizeL2(vector)
	return vector
}

// idf uses the smoothed formulation log((1+N)/(1+df)) + 1 so terms present
// in every build document still carry weight.
func (e *TFIDF) idf(coord int) float64 {
	df := e.vocab.DocFreq[coord]
	n := e.vocab.DocCount
	return math.Log(float64(1+n)/float64(1+df)) + 1
}

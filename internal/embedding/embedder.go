// Package embedding converts text into fixed-dimension vectors for
// similarity search. A learned model (OpenAI) is the primary path; a
// deterministic TF-IDF embedder built on an explicit per-knowledge-base
// vocabulary is always available as a fallback.
package embedding

import "context"

// Embedder generates one vector per input text, in input order. An empty
// input yields an empty output.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

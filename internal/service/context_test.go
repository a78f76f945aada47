package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botsy-ai/botsy/internal/domain"
)

func scoredResult(content, source string, score float32) domain.SearchResult {
	return domain.SearchResult{
		Chunk:           domain.Chunk{Content: content, Source: source},
		SimilarityScore: score,
	}
}

func TestPrepareContextLabelsAndOrder(t *testing.T) {
	policy := DefaultContextPolicy()
	results := []domain.SearchResult{
		scoredResult("Refunds are processed in five days.", "refunds.pdf", 0.9),
		scoredResult("Shipping takes two weeks.", "shipping.pdf", 0.5),
	}

	context := policy.PrepareContext(results)
	require.NotEmpty(t, context)
	assert.Contains(t, context, "[Source 1: refunds.pdf]")
	assert.Contains(t, context, "[Source 2: shipping.pdf]")
	assert.Less(t,
		strings.Index(context, "Refunds"),
		strings.Index(context, "Shipping"))
}

func TestPrepareContextFiltersBelowThreshold(t *testing.T) {
	policy := DefaultContextPolicy()
	results := []domain.SearchResult{
		scoredResult("relevant", "a.txt", 0.8),
		scoredResult("irrelevant", "b.txt", 0.05),
	}

	context := policy.PrepareContext(results)
	assert.Contains(t, context, "relevant")
	assert.NotContains(t, context, "irrelevant")
}

func TestPrepareContextBudgetAdmitsWholeChunks(t *testing.T) {
	policy := DefaultContextPolicy()
	policy.MaxContextChars = 120

	big := strings.Repeat("word ", 30)
	results := []domain.SearchResult{
		scoredResult(big, "a.txt", 0.9),
		scoredResult(big, "b.txt", 0.8),
	}

	context := policy.PrepareContext(results)
	assert.Contains(t, context, "[Source 1: a.txt]")
	assert.NotContains(t, context, "b.txt")
}

func TestPrepareContextForceTopResults(t *testing.T) {
	policy := DefaultContextPolicy()
	policy.ForceTopResults = 1
	results := []domain.SearchResult{
		scoredResult("weak but best", "a.txt", 0.02),
		scoredResult("weaker", "b.txt", 0.01),
	}

	context := policy.PrepareContext(results)
	assert.Contains(t, context, "weak but best")
	assert.NotContains(t, context, "weaker")
}

func TestPrepareContextEmpty(t *testing.T) {
	policy := DefaultContextPolicy()
	assert.Empty(t, policy.PrepareContext(nil))
}

func TestPrepareSourcesDedupAndCap(t *testing.T) {
	policy := DefaultContextPolicy()
	results := []domain.SearchResult{
		scoredResult("first from a", "a.txt", 0.9),
		scoredResult("second from a", "a.txt", 0.85),
		scoredResult("from b", "b.txt", 0.8),
		scoredResult("from c", "c.txt", 0.7),
		scoredResult("from d", "d.txt", 0.6),
	}

	sources := policy.PrepareSources(results)
	require.Len(t, sources, 3)
	assert.Equal(t, "a.txt", sources[0].Filename)
	assert.Equal(t, "first from a", sources[0].ContentPreview)
	assert.Equal(t, "b.txt", sources[1].Filename)
	assert.Equal(t, "c.txt", sources[2].Filename)
}

func TestPrepareSourcesPreviewTruncation(t *testing.T) {
	policy := DefaultContextPolicy()
	long := strings.Repeat("x", 500)
	sources := policy.PrepareSources([]domain.SearchResult{
		scoredResult(long, "a.txt", 0.9),
	})

	require.Len(t, sources, 1)
	assert.Len(t, sources[0].ContentPreview, sourcePreviewChars+3)
	assert.True(t, strings.HasSuffix(sources[0].ContentPreview, "..."))
}

func TestPrepareSourcesCitations(t *testing.T) {
	policy := DefaultContextPolicy()
	policy.ExtractCitations = true

	sources := policy.PrepareSources([]domain.SearchResult{
		scoredResult("As stated in ARTICLE 12 of the agreement, payment is due.", "terms.pdf", 0.9),
		scoredResult("No reference here.", "notes.txt", 0.8),
	})

	require.Len(t, sources, 2)
	assert.Equal(t, "Article 12", sources[0].Citation)
	assert.Empty(t, sources[1].Citation)
}

package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeatSentences(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "This is sentence number %d with a handful of extra words. ", i)
	}
	return b.String()
}

func TestChunkText_SingleChunk(t *testing.T) {
	c := New(1000, 200)
	chunks := c.ChunkText("A short document. It fits in one chunk.", "doc.txt")

	require.Len(t, chunks, 1)
	assert.Equal(t, "doc.txt", chunks[0].Source)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, len(chunks[0].Content), chunks[0].CharCount)
	assert.Equal(t, EstimateTokens(chunks[0].Content), chunks[0].TokenCount)
}

func TestChunkText_SplitsAndIndexes(t *testing.T) {
	c := New(50, 10)
	chunks := c.ChunkText(repeatSentences(30), "doc.txt")

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.NotEmpty(t, chunk.Content)
	}
}

func TestChunkText_OverlapCarriesTail(t *testing.T) {
	c := New(50, 10)
	chunks := c.ChunkText(repeatSentences(30), "doc.txt")
	require.Greater(t, len(chunks), 1)

	// The second chunk starts with the tail of the first.
	overlapChars := c.ChunkOverlap * charsPerToken
	first := chunks[0].Content
	tail := first[len(first)-overlapChars:]
	assert.True(t, strings.HasPrefix(chunks[1].Content, strings.TrimSpace(tail)))
}

func TestChunkText_Deterministic(t *testing.T) {
	c := New(50, 10)
	text := repeatSentences(25)

	a := c.ChunkText(text, "doc.txt")
	b := c.ChunkText(text, "doc.txt")
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Content, b[i].Content)
	}
}

func TestChunkText_OversizedSentenceBecomesOwnChunk(t *testing.T) {
	c := New(10, 2)
	long := "word " + strings.Repeat("and more words ", 20) + "finally ends here."
	chunks := c.ChunkText(long, "doc.txt")

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Content)
	}
}

func TestChunkText_EmptyAndWhitespace(t *testing.T) {
	c := New(100, 20)
	assert.Empty(t, c.ChunkText("", "doc.txt"))
	assert.Empty(t, c.ChunkText("   \n\t  ", "doc.txt"))
}

func TestChunkText_DropsShortFragments(t *testing.T) {
	c := New(100, 20)
	chunks := c.ChunkText("Hi. Ok. This sentence is long enough to survive the filter.", "doc.txt")

	require.Len(t, chunks, 1)
	assert.NotContains(t, chunks[0].Content, "Hi.")
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", cleanText("a\n\n  b\t\tc"))
	assert.Equal(t, "price 100, fine", cleanText("price £100, fine€"))
	assert.Equal(t, "wait... done", cleanText("wait...... done"))
}

func TestChunkByParagraphs(t *testing.T) {
	c := New(50, 10)
	text := "First paragraph about one topic with several words in it.\n\n" +
		"Second paragraph about another topic entirely, also with words.\n\n" +
		repeatSentences(30)

	chunks := c.ChunkByParagraphs(text, "doc.md")
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
	}
}

func TestChunkStats(t *testing.T) {
	c := New(50, 10)
	chunks := c.ChunkText(repeatSentences(30), "doc.txt")

	stats := ChunkStats(chunks)
	assert.Equal(t, len(chunks), stats.TotalChunks)
	assert.GreaterOrEqual(t, stats.MaxTokens, stats.MinTokens)
	assert.Greater(t, stats.AvgTokens, 0.0)

	assert.Equal(t, Stats{}, ChunkStats(nil))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("word"))
	assert.Equal(t, 13, EstimateTokens(strings.Repeat("word ", 10)))
}

func TestNew_Defaults(t *testing.T) {
	c := New(0, -5)
	assert.Equal(t, DefaultChunkSize, c.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, c.ChunkOverlap)
}

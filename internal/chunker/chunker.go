// Package chunker splits extracted document text into overlapping,
// size-bounded passages suitable for embedding and retrieval.
package chunker

import (
	"regexp"
	"strings"

	"github.com/botsy-ai/botsy/internal/domain"
)

const (
	// DefaultChunkSize is the token budget per chunk.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the token-sized tail carried into the next chunk.
	DefaultChunkOverlap = 200

	// minSentenceChars filters out fragments too short to carry meaning.
	minSentenceChars = 10

	// tokensPerWord estimates tokens from whitespace-delimited words.
	tokensPerWord = 1.3
	// charsPerToken estimates the character width of the overlap window.
	charsPerToken = 4
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	disallowedRe  = regexp.MustCompile(`[^\w\s.,!?;:\-()\[\]{}"'/]`)
	manyPeriodsRe = regexp.MustCompile(`\.{3,}`)
	sentenceEndRe = regexp.MustCompile(`([.!?])\s+`)
)

// Chunker produces deterministic chunk sequences: the same text and
// configuration always yield identical chunk boundaries.
type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
}

// New returns a Chunker with the given token budget and overlap. Non-positive
// values fall back to the defaults.
func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Chunker{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// ChunkText cleans text, splits it into sentence-like units, and greedily
// accumulates sentences into chunks of at most ChunkSize estimated tokens.
// When a chunk closes, the next one is seeded with an overlap window taken
// from its tail so context survives the boundary. A single sentence longer
// than ChunkSize still becomes its own chunk; sentences are never split.
func (c *Chunker) ChunkText(text, source string) []domain.Chunk {
	cleaned := cleanText(text)
	sentences := splitSentences(cleaned)

	var chunks []domain.Chunk
	var current string
	var currentTokens int

	for _, sentence := range sentences {
		sentenceTokens := EstimateTokens(sentence)

		if currentTokens+sentenceTokens > c.ChunkSize && current != "" {
			chunks = append(chunks, c.buildChunk(current, source, len(chunks)))

			overlap := c.overlapTail(current)
			if overlap != "" {
				current = overlap + " " + sentence
			} else {
				current = sentence
			}
			currentTokens = EstimateTokens(current)
			continue
		}

		if current == "" {
			current = sentence
		} else {
			current += " " + sentence
		}
		currentTokens += sentenceTokens
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, c.buildChunk(current, source, len(chunks)))
	}

	return chunks
}

// ChunkByParagraphs is an alternate mode that respects blank-line-delimited
// paragraph boundaries. A paragraph that alone exceeds the chunk size is
// re-chunked sentence-wise.
func (c *Chunker) ChunkByParagraphs(text, source string) []domain.Chunk {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []domain.Chunk
	var current string

	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		paragraphTokens := EstimateTokens(paragraph)
		currentTokens := EstimateTokens(current)

		switch {
		case paragraphTokens > c.ChunkSize:
			if current != "" {
				chunks = append(chunks, c.buildChunk(current, source, len(chunks)))
				current = ""
			}
			for _, sub := range c.ChunkText(paragraph, source) {
				sub.ChunkIndex = len(chunks)
				chunks = append(chunks, sub)
			}

		case currentTokens+paragraphTokens > c.ChunkSize && current != "":
			chunks = append(chunks, c.buildChunk(current, source, len(chunks)))
			current = paragraph

		default:
			if current == "" {
				current = paragraph
			} else {
				current += "\n\n" + paragraph
			}
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, c.buildChunk(current, source, len(chunks)))
	}

	return chunks
}

// Stats summarizes token counts across a chunk sequence.
type Stats struct {
	TotalChunks int     `json:"total_chunks"`
	TotalTokens int     `json:"total_tokens"`
	AvgTokens   float64 `json:"avg_tokens"`
	MinTokens   int     `json:"min_tokens"`
	MaxTokens   int     `json:"max_tokens"`
}

// ChunkStats computes summary statistics for a chunk sequence.
func ChunkStats(chunks []domain.Chunk) Stats {
	if len(chunks) == 0 {
		return Stats{}
	}

	stats := Stats{
		TotalChunks: len(chunks),
		MinTokens:   chunks[0].TokenCount,
		MaxTokens:   chunks[0].TokenCount,
	}
	for _, chunk := range chunks {
		stats.TotalTokens += chunk.TokenCount
		if chunk.TokenCount < stats.MinTokens {
			stats.MinTokens = chunk.TokenCount
		}
		if chunk.TokenCount > stats.MaxTokens {
			stats.MaxTokens = chunk.TokenCount
		}
	}
	stats.AvgTokens = float64(stats.TotalTokens) / float64(len(chunks))
	return stats
}

// EstimateTokens approximates the token count of text as words x 1.3.
func EstimateTokens(text string) int {
	return int(float64(len(strings.Fields(text))) * tokensPerWord)
}

func (c *Chunker) buildChunk(content, source string, index int) domain.Chunk {
	content = strings.TrimSpace(content)
	return domain.Chunk{
		Content:    content,
		Source:     source,
		ChunkIndex: index,
		TokenCount: EstimateTokens(content),
		CharCount:  len(content),
	}
}

// overlapTail returns up to ChunkOverlap tokens' worth of characters from the
// end of a closed chunk.
func (c *Chunker) overlapTail(text string) string {
	overlapChars := c.ChunkOverlap * charsPerToken
	if overlapChars >= len(text) {
		return text
	}
	return text[len(text)-overlapChars:]
}

// cleanText collapses whitespace runs, strips characters outside the
// allow-list, and squeezes runs of periods into an ellipsis.
func cleanText(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = disallowedRe.ReplaceAllString(text, "")
	text = manyPeriodsRe.ReplaceAllString(text, "...")
	return strings.TrimSpace(text)
}

// splitSentences splits cleaned text on sentence-ending punctuation and drops
// fragments shorter than minSentenceChars.
func splitSentences(text string) []string {
	marked := sentenceEndRe.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")

	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if len(part) > minSentenceChars {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

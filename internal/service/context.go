package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/botsy-ai/botsy/internal/domain"
)

const (
	// DefaultMinSimilarity filters out weakly related chunks.
	DefaultMinSimilarity = 0.1
	// DefaultMaxContextChars bounds the assembled context.
	DefaultMaxContextChars = 8000
	// DefaultMaxSources caps the deduplicated source list.
	DefaultMaxSources = 3
	// sourcePreviewChars bounds the content preview per source.
	sourcePreviewChars = 200
)

var citationRe = regexp.MustCompile(`(?i)\b(Article|Section|Chapter)\s+(\d+)`)

// ContextPolicy controls how search results are assembled into an answer
// context. The zero value is not useful; use DefaultContextPolicy.
type ContextPolicy struct {
	// MinSimilarity excludes results scoring below it.
	MinSimilarity float32
	// MaxContextChars bounds the total assembled context; chunks are
	// admitted whole and never truncated mid-chunk.
	MaxContextChars int
	// ForceTopResults, when positive, force-includes the first N results
	// if the similarity threshold would otherwise exclude everything.
	ForceTopResults int
	// MaxSources caps the deduplicated source attribution list.
	MaxSources int
	// ExtractCitations enables legal-style citation extraction per source.
	ExtractCitations bool
}

// DefaultContextPolicy returns the standard assembly policy.
func DefaultContextPolicy() ContextPolicy {
	return ContextPolicy{
		MinSimilarity:   DefaultMinSimilarity,
		MaxContextChars: DefaultMaxContextChars,
		MaxSources:      DefaultMaxSources,
	}
}

// admit returns the results that pass the similarity threshold, or the
// forced head of the list when the threshold filters everything out.
func (p ContextPolicy) admit(results []domain.SearchResult) []domain.SearchResult {
	admitted := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if r.SimilarityScore >= p.MinSimilarity {
			admitted = append(admitted, r)
		}
	}
	if len(admitted) == 0 && p.ForceTopResults > 0 {
		n := p.ForceTopResults
		if n > len(results) {
			n = len(results)
		}
		admitted = results[:n]
	}
	return admitted
}

// PrepareContext assembles admitted chunks into a labeled context block:
//
//	[Source 1: faq.pdf]
//	<chunk content>
//
// Chunks are admitted whole until MaxContextChars would be exceeded.
func (p ContextPolicy) PrepareContext(results []domain.SearchResult) string {
	var b strings.Builder
	for i, r := range p.admit(results) {
		block := fmt.Sprintf("[Source %d: %s]\n%s", i+1, r.Source, r.Content)
		if b.Len() > 0 && b.Len()+len(block)+2 > p.MaxContextChars {
			break
		}
		if b.Len() == 0 && len(block) > p.MaxContextChars {
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block)
	}
	return b.String()
}

// PrepareSources builds the deduplicated source attribution list for the
// admitted results: one entry per distinct source, first occurrence wins,
// capped at MaxSources.
func (p ContextPolicy) PrepareSources(results []domain.SearchResult) []domain.Source {
	maxSources := p.MaxSources
	if maxSources <= 0 {
		maxSources = DefaultMaxSources
	}

	seen := make(map[string]struct{})
	sources := make([]domain.Source, 0, maxSources)
	for _, r := range p.admit(results) {
		if _, ok := seen[r.Source]; ok {
			continue
		}
		seen[r.Source] = struct{}{}

		src := domain.Source{
			Filename:        r.Source,
			ContentPreview:  previewOf(r.Content),
			SimilarityScore: r.SimilarityScore,
			SourceURL:       r.SourceURL,
		}
		if p.ExtractCitations {
			src.Citation = extractCitation(r.Content)
		}
		sources = append(sources, src)

		if len(sources) >= maxSources {
			break
		}
	}
	return sources
}

func previewOf(content string) string {
	if len(content) <= sourcePreviewChars {
		return content
	}
	return content[:sourcePreviewChars] + "..."
}

// extractCitation pulls the first legal-style reference from a chunk.
func extractCitation(content string) string {
	m := citationRe.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	kind := strings.ToLower(m[1])
	return fmt.Sprintf("%s%s %s", strings.ToUpper(kind[:1]), kind[1:], m[2])
}

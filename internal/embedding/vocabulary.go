package embedding

import (
	"regexp"
	"sort"
	"strings"

	"github.com/botsy-ai/botsy/internal/domain"
)

// MaxVocabularyTerms caps the vocabulary so every term maps to a coordinate
// of the fixed embedding dimension.
const MaxVocabularyTerms = domain.EmbeddingDimension

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Vocabulary fixes the coordinate assignment for the TF-IDF embedder. It is
// built once per knowledge base from the first ingested corpus and persisted
// next to the index artifacts; it is never rebuilt implicitly. Terms outside
// the vocabulary are dropped, not hashed.
type Vocabulary struct {
	// Terms holds the vocabulary in coordinate order: Terms[i] is embedded
	// at vector coordinate i.
	Terms []string `json:"terms"`
	// DocFreq[i] is the number of build-corpus documents containing Terms[i].
	DocFreq []int `json:"doc_freq"`
	// DocCount is the size of the build corpus.
	DocCount int `json:"doc_count"`

	index map[string]int
}

// BuildVocabulary selects the most frequent lowercase word tokens across the
// corpus, capped at MaxVocabularyTerms. Ordering is deterministic: frequency
// descending, then lexicographic.
func BuildVocabulary(texts []string) *Vocabulary {
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, term := range Tokenize(text) {
			termFreq[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
	}

	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termFreq[terms[i]] != termFreq[terms[j]] {
			return termFreq[terms[i]] > termFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > MaxVocabularyTerms {
		terms = terms[:MaxVocabularyTerms]
	}

	vocab := &Vocabulary{
		Terms:    terms,
		DocFreq:  make([]int, len(terms)),
		DocCount: len(texts),
	}
	for i, term := range terms {
		vocab.DocFreq[i] = docFreq[term]
	}
	return vocab
}

// Len returns the number of vocabulary terms.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Terms)
}

// Coordinate returns the vector coordinate assigned to term.
func (v *Vocabulary) Coordinate(term string) (int, bool) {
	if v == nil {
		return 0, false
	}
	if v.index == nil {
		v.index = make(map[string]int, len(v.Terms))
		for i, t := range v.Terms {
			v.index[t] = i
		}
	}
	i, ok := v.index[term]
	return i, ok
}

// Tokenize lowercases text and extracts word tokens.
func Tokenize(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

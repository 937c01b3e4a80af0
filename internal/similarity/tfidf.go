package similarity

import (
	"math"
	"sort"

	"github.com/spigell/resume-matcher/internal/keywords"
	"github.com/spigell/resume-matcher/internal/textnorm"
)

// termCounts returns unigram and bigram counts of a document with stop words
// and one-character tokens removed.
func termCounts(raw string) map[string]int {
	var tokens []string
	for _, tok := range textnorm.Tokens(textnorm.Normalize(raw)) {
		if len(tok) < 2 || keywords.IsStopWord(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}

	counts := make(map[string]int)
	for _, term := range textnorm.NGrams(tokens, 1, 2) {
		counts[term]++
	}
	return counts
}

// TextSimilarity is the cosine similarity of the two documents' TF-IDF vectors,
// fitted jointly on the pair with smoothed idf. It is 0 when either document
// has no terms.
func TextSimilarity(a, b string) float64 {
	docs := []map[string]int{termCounts(a), termCounts(b)}
	if len(docs[0]) == 0 || len(docs[1]) == 0 {
		return 0
	}

	df := make(map[string]int)
	for _, doc := range docs {
		for term := range doc {
			df[term]++
		}
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	// fixed summation order keeps results bit-identical across runs
	sort.Strings(vocab)

	n := float64(len(docs))
	vectors := make([][]float64, len(docs))
	for i, doc := range docs {
		vec := make([]float64, len(vocab))
		var norm float64
		for j, term := range vocab {
			tf := doc[term]
			if tf == 0 {
				continue
			}
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1
			vec[j] = float64(tf) * idf
			norm += vec[j] * vec[j]
		}
		if norm == 0 {
			return 0
		}
		norm = math.Sqrt(norm)
		for j := range vec {
			vec[j] /= norm
		}
		vectors[i] = vec
	}

	var dot float64
	for j := range vocab {
		dot += vectors[0][j] * vectors[1][j]
	}
	return clamp01(dot)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

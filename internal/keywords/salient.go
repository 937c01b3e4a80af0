package keywords

import (
	"math"
	"sort"

	"github.com/spigell/resume-matcher/internal/textnorm"
)

// SalientState tells whether salient term extraction produced a usable list.
type SalientState string

const (
	SalientAvailable SalientState = "available"
	SalientDegraded  SalientState = "degraded"
)

const (
	minSalientTermLen = 3
	maxSalientNGram   = 3
)

type termStat struct {
	term  string
	tf    int
	df    int
	first int
	seg   int // last segment that counted towards df
}

// SalientTerms ranks the uni-, bi- and tri-grams of raw text. Every sentence
// is treated as a document of its own, so a term is weighted by
// tf * (ln((1+n)/(1+df)) + 1). With fewer than two sentences the weight is the
// raw term frequency. Ties keep first-occurrence order.
// The state is SalientDegraded, with a nil slice, when no term survives the
// stop-word and length filters.
func SalientTerms(raw string, topN int) ([]string, SalientState) {
	if topN <= 0 {
		return nil, SalientDegraded
	}

	stats := make(map[string]*termStat)
	order := 0
	segments := 0

	for i, segment := range textnorm.Segments(raw) {
		tokens := contentTokens(textnorm.Tokens(segment))
		if len(tokens) == 0 {
			continue
		}
		segments++

		for _, term := range textnorm.NGrams(tokens, 1, maxSalientNGram) {
			if len(term) < minSalientTermLen {
				continue
			}
			st, ok := stats[term]
			if !ok {
				st = &termStat{term: term, first: order, seg: -1}
				stats[term] = st
				order++
			}
			st.tf++
			if st.seg != i {
				st.df++
				st.seg = i
			}
		}
	}

	if len(stats) == 0 {
		return nil, SalientDegraded
	}

	type scored struct {
		term   string
		weight float64
		first  int
	}
	ranked := make([]scored, 0, len(stats))
	for _, st := range stats {
		w := float64(st.tf)
		if segments >= 2 {
			w *= math.Log(float64(1+segments)/float64(1+st.df)) + 1
		}
		ranked = append(ranked, scored{term: st.term, weight: w, first: st.first})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		return ranked[i].first < ranked[j].first
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	terms := make([]string, len(ranked))
	for i, r := range ranked {
		terms[i] = r.term
	}
	return terms, SalientAvailable
}

// contentTokens drops stop words, custom stop terms and one-character tokens.
func contentTokens(tokens []string) []string {
	out := tokens[:0:0]
	for _, tok := range tokens {
		if len(tok) < 2 || isStopTerm(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

package keywords

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"
)

// Linguist extracts part-of-speech and entity based keywords from raw text.
type Linguist interface {
	Keywords(text string, topN int) ([]string, error)
}

var entityLabels = map[string]struct{}{
	"PERSON":  {},
	"ORG":     {},
	"PRODUCT": {},
	"GPE":     {},
}

// Penn Treebank tags for nouns, proper nouns and adjectives.
var contentTags = map[string]struct{}{
	"NN": {}, "NNS": {}, "NNP": {}, "NNPS": {},
	"JJ": {}, "JJR": {}, "JJS": {},
}

// ProseLinguist tags text with prose and lemmatizes with golem.
type ProseLinguist struct {
	lemmatizer *golem.Lemmatizer
}

func NewProseLinguist() (*ProseLinguist, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemmatizer: %w", err)
	}
	return &ProseLinguist{lemmatizer: lemmatizer}, nil
}

// Keywords returns selected named entities plus lemmatized nouns and
// adjectives longer than two characters, ranked by frequency.
func (p *ProseLinguist) Keywords(text string, topN int) ([]string, error) {
	if strings.TrimSpace(text) == "" || topN <= 0 {
		return nil, nil
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("tag document: %w", err)
	}

	var candidates []string
	for _, ent := range doc.Entities() {
		if _, ok := entityLabels[ent.Label]; !ok {
			continue
		}
		if name := strings.ToLower(strings.TrimSpace(ent.Text)); name != "" {
			candidates = append(candidates, name)
		}
	}

	for _, tok := range doc.Tokens() {
		if _, ok := contentTags[tok.Tag]; !ok {
			continue
		}
		word := strings.ToLower(tok.Text)
		if len(word) <= 2 || IsStopWord(word) {
			continue
		}
		candidates = append(candidates, strings.ToLower(p.lemmatizer.Lemma(word)))
	}

	return rankByFrequency(candidates, topN), nil
}

// rankByFrequency orders unique values by count, ties by first occurrence.
func rankByFrequency(values []string, topN int) []string {
	counts := make(map[string]int, len(values))
	var order []string
	for _, v := range values {
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > topN {
		order = order[:topN]
	}
	return order
}

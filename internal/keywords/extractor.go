// Package keywords turns raw resume or job posting text into keyword bundles.
package keywords

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/textnorm"
)

const DefaultTopN = 30

// Bundle is the keyword view of a single document.
type Bundle struct {
	TechnicalSkills    []string     `json:"technical_skills"`
	SalientTerms       []string     `json:"salient_terms"`
	LinguisticKeywords []string     `json:"linguistic_keywords"`
	AllKeywords        []string     `json:"all_keywords"`
	SalientState       SalientState `json:"salient_state"`
}

// Extractor builds keyword bundles. It holds only read-only state and may be
// shared between goroutines.
type Extractor struct {
	dict     *Dictionary
	linguist Linguist
	topN     int
	logger   *zap.Logger

	salient func(raw string, topN int) ([]string, SalientState)
}

// NewExtractor creates an extractor. A nil dictionary selects the default one,
// a nil linguist disables linguistic keywords.
func NewExtractor(dict *Dictionary, linguist Linguist, topN int, logger *zap.Logger) *Extractor {
	if dict == nil {
		dict = DefaultDictionary()
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		dict:     dict,
		linguist: linguist,
		topN:     topN,
		logger:   logger,
		salient:  SalientTerms,
	}
}

// Fingerprint changes with any setting that alters the extracted bundle.
func (e *Extractor) Fingerprint() string {
	h := sha256.New()
	for _, name := range e.dict.Names() {
		h.Write([]byte(name))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("keywords:top=%d:linguistic=%t:dict=%s", e.topN, e.linguist != nil, hex.EncodeToString(h.Sum(nil))[:16])
}

// Extract never fails: degenerate input yields empty, non-nil collections.
func (e *Extractor) Extract(text string) Bundle {
	normalized := textnorm.Normalize(text)

	b := Bundle{
		TechnicalSkills:    nonNil(e.dict.Match(normalized)),
		LinguisticKeywords: []string{},
	}

	b.SalientTerms, b.SalientState = e.salientTerms(text)
	if e.linguist != nil {
		b.LinguisticKeywords = nonNil(e.linguisticKeywords(text))
	}

	b.AllKeywords = union(b.TechnicalSkills, b.SalientTerms, b.LinguisticKeywords)
	return b
}

func (e *Extractor) salientTerms(text string) (terms []string, state SalientState) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("salient term extraction failed", zap.Any("panic", r))
			terms, state = []string{}, SalientDegraded
		}
	}()

	terms, state = e.salient(text, e.topN)
	if state != SalientAvailable || len(terms) == 0 {
		return []string{}, SalientDegraded
	}
	return terms, SalientAvailable
}

func (e *Extractor) linguisticKeywords(text string) (keywords []string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("linguistic extraction failed", zap.String("panic", fmt.Sprint(r)))
			keywords = nil
		}
	}()

	keywords, err := e.linguist.Keywords(text, e.topN)
	if err != nil {
		e.logger.Debug("linguistic extraction unavailable", zap.Error(err))
		return nil
	}
	return keywords
}

func union(lists ...[]string) []string {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, v := range list {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

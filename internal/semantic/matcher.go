// Package semantic detects vocabulary skills in free text by embedding
// similarity, tolerating paraphrases that exact matching misses.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/textnorm"
	"github.com/spigell/resume-matcher/internal/vocabulary"
)

const (
	DefaultThreshold = 0.6
	minNGram         = 1
	maxNGram         = 5
)

// ErrInvalidThreshold is returned for thresholds outside [0,1].
var ErrInvalidThreshold = errors.New("threshold must be within [0, 1]")

// SkillScore is a vocabulary skill with its best similarity to the text.
type SkillScore struct {
	Skill string  `json:"skill"`
	Score float64 `json:"score"`
}

// Comparison contrasts the skills detected in a resume and a job posting.
type Comparison struct {
	Matched         []string `json:"matched_skills"`
	Missing         []string `json:"missing_skills"`
	Additional      []string `json:"additional_skills"`
	MatchPercentage float64  `json:"match_percentage"`
	ResumeCount     int      `json:"resume_skill_count"`
	JobCount        int      `json:"job_skill_count"`
}

// Matcher is safe for concurrent use: the vocabulary is read-only.
type Matcher struct {
	vocab    *vocabulary.Vocabulary
	embedder vocabulary.Embedder
	logger   *zap.Logger
}

func NewMatcher(vocab *vocabulary.Vocabulary, embedder vocabulary.Embedder, logger *zap.Logger) (*Matcher, error) {
	if vocab == nil || vocab.Len() == 0 {
		return nil, errors.New("vocabulary is empty")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if embedder.Model() != vocab.Model() {
		return nil, fmt.Errorf("embedder model %q does not match vocabulary model %q", embedder.Model(), vocab.Model())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{vocab: vocab, embedder: embedder, logger: logger}, nil
}

// Fingerprint changes whenever the embedding model or the skill list does.
func (m *Matcher) Fingerprint() string {
	return fmt.Sprintf("semantic:%s:%s", m.embedder.Model(), m.vocab.Digest())
}

// Match returns vocabulary skills whose best similarity to any 1-5 word
// n-gram of text reaches threshold, best first. A positive topK caps the
// result. Empty text yields an empty result.
func (m *Matcher) Match(ctx context.Context, text string, threshold float64, topK int) ([]SkillScore, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}

	ngrams := candidateNGrams(text)
	if len(ngrams) == 0 {
		return []SkillScore{}, nil
	}

	vectors, err := m.embedder.Embed(ctx, ngrams)
	if err != nil {
		return nil, fmt.Errorf("embed text segments: %w", err)
	}
	if len(vectors) != len(ngrams) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d segments", len(vectors), len(ngrams))
	}
	for _, vec := range vectors {
		vocabulary.Normalize(vec)
	}

	m.logger.Debug("computing skill similarity",
		zap.Int("segments", len(ngrams)),
		zap.Int("skills", m.vocab.Len()),
	)

	var found []SkillScore
	for i := 0; i < m.vocab.Len(); i++ {
		skillVec := m.vocab.VectorAt(i)
		best := -1.0
		for _, vec := range vectors {
			if s := vocabulary.Dot(vec, skillVec); s > best {
				best = s
			}
		}
		if best >= threshold {
			found = append(found, SkillScore{Skill: m.vocab.Name(i), Score: best})
		}
	}

	sortScores(found)
	if topK > 0 && len(found) > topK {
		found = found[:topK]
	}
	if found == nil {
		found = []SkillScore{}
	}
	return found, nil
}

// Compare detects skills in both texts and splits them into matched, missing
// (job only) and additional (resume only) sets.
func (m *Matcher) Compare(ctx context.Context, resumeText, jobText string, threshold float64) (*Comparison, error) {
	resumeSkills, err := m.Match(ctx, resumeText, threshold, 0)
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	jobSkills, err := m.Match(ctx, jobText, threshold, 0)
	if err != nil {
		return nil, fmt.Errorf("job: %w", err)
	}

	resumeSet := names(resumeSkills)
	jobSet := names(jobSkills)

	c := &Comparison{
		Matched:     []string{},
		Missing:     []string{},
		Additional:  []string{},
		ResumeCount: len(resumeSet),
		JobCount:    len(jobSet),
	}
	for skill := range jobSet {
		if _, ok := resumeSet[skill]; ok {
			c.Matched = append(c.Matched, skill)
		} else {
			c.Missing = append(c.Missing, skill)
		}
	}
	for skill := range resumeSet {
		if _, ok := jobSet[skill]; !ok {
			c.Additional = append(c.Additional, skill)
		}
	}
	sort.Strings(c.Matched)
	sort.Strings(c.Missing)
	sort.Strings(c.Additional)

	if len(jobSet) > 0 {
		c.MatchPercentage = float64(len(c.Matched)) / float64(len(jobSet)) * 100
	}
	return c, nil
}

// Recommend lists skills detected in targetRole that are absent from current,
// ranked by similarity between the whole role text and the skill.
func (m *Matcher) Recommend(ctx context.Context, current []string, targetRole string, topN int, threshold float64) ([]SkillScore, error) {
	target, err := m.Match(ctx, targetRole, threshold, 0)
	if err != nil {
		return nil, err
	}
	if len(target) == 0 {
		return []SkillScore{}, nil
	}

	have := make(map[string]struct{}, len(current))
	for _, s := range current {
		have[s] = struct{}{}
	}

	roleVecs, err := m.embedder.Embed(ctx, []string{targetRole})
	if err != nil {
		return nil, fmt.Errorf("embed target role: %w", err)
	}
	if len(roleVecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for the target role", len(roleVecs))
	}
	roleVec := vocabulary.Normalize(roleVecs[0])

	recs := []SkillScore{}
	for _, s := range target {
		if _, ok := have[s.Skill]; ok {
			continue
		}
		vec, ok := m.vocab.Vector(s.Skill)
		if !ok {
			continue
		}
		recs = append(recs, SkillScore{Skill: s.Skill, Score: vocabulary.Dot(roleVec, vec)})
	}

	sortScores(recs)
	if topN > 0 && len(recs) > topN {
		recs = recs[:topN]
	}
	return recs, nil
}

// candidateNGrams returns the unique 1-5 word n-grams of normalised text,
// skipping single characters.
func candidateNGrams(text string) []string {
	tokens := textnorm.Tokens(textnorm.Normalize(text))
	seen := make(map[string]struct{})
	var out []string
	for _, ng := range textnorm.NGrams(tokens, minNGram, maxNGram) {
		if len(ng) <= 1 {
			continue
		}
		if _, ok := seen[ng]; ok {
			continue
		}
		seen[ng] = struct{}{}
		out = append(out, ng)
	}
	return out
}

func sortScores(scores []SkillScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Skill < scores[j].Skill
	})
}

func names(scores []SkillScore) map[string]struct{} {
	set := make(map[string]struct{}, len(scores))
	for _, s := range scores {
		set[s.Skill] = struct{}{}
	}
	return set
}

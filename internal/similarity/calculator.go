// Package similarity scores a resume against a job posting from their raw
// texts and keyword bundles.
package similarity

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/keywords"
)

// Breakdown is the full score record of one resume/job pair.
type Breakdown struct {
	TextSimilarity       float64  `json:"text_similarity"`
	SkillsMatchRate      float64  `json:"skills_match_rate"`
	SalientMatchRate     float64  `json:"salient_match_rate"`
	AllKeywordsMatchRate float64  `json:"all_keywords_match_rate"`
	OverallScore         float64  `json:"overall_score"`
	OverallPercentage    float64  `json:"overall_percentage"`
	MatchLevel           string   `json:"match_level"`
	MatchedSkills        []string `json:"matched_skills"`
	MissingSkills        []string `json:"missing_skills"`
	Weights              Weights  `json:"weights"`
	Fallback             bool     `json:"fallback"`
}

type Calculator struct {
	policy Policy
	logger *zap.Logger
}

// NewCalculator expects a validated policy.
func NewCalculator(policy Policy, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{policy: policy, logger: logger}
}

func (c *Calculator) Policy() Policy { return c.policy }

// Fingerprint renders every weight and threshold that shapes a score.
func (c *Calculator) Fingerprint() string {
	p := c.policy
	return fmt.Sprintf("policy:%+v:%+v:%+v", p.Primary, p.Fallback, p.Thresholds)
}

// Score never fails; degenerate input resolves to zero-valued sub-scores.
func (c *Calculator) Score(resumeText, jobText string, resume, job keywords.Bundle) Breakdown {
	b := Breakdown{
		TextSimilarity:       TextSimilarity(resumeText, jobText),
		SkillsMatchRate:      MatchRate(resume.TechnicalSkills, job.TechnicalSkills),
		SalientMatchRate:     MatchRate(resume.SalientTerms, job.SalientTerms),
		AllKeywordsMatchRate: MatchRate(resume.AllKeywords, job.AllKeywords),
	}

	b.Weights, b.Fallback = c.policy.weightsFor(len(job.SalientTerms) > 0)
	if b.Fallback {
		c.logger.Debug("job has no salient terms, using fallback weights",
			zap.Int("skills", b.Weights.Skills),
			zap.Int("all_keywords", b.Weights.AllKeywords),
			zap.Int("text", b.Weights.Text),
		)
	}

	b.OverallScore = Combine(b.Weights, b.SkillsMatchRate, b.SalientMatchRate, b.AllKeywordsMatchRate, b.TextSimilarity)
	b.OverallPercentage = math.Round(b.OverallScore*100*100) / 100
	b.MatchLevel = c.policy.Thresholds.Level(b.OverallPercentage)
	b.MatchedSkills, b.MissingSkills = splitSkills(resume.TechnicalSkills, job.TechnicalSkills)

	return b
}

// Combine applies percentage weights to sub-scores in [0,1].
func Combine(w Weights, skills, salient, allKeywords, text float64) float64 {
	sum := float64(w.Skills)*skills +
		float64(w.Salient)*salient +
		float64(w.AllKeywords)*allKeywords +
		float64(w.Text)*text
	return clamp01(sum / 100)
}

// MatchRate is |resume ∩ job| / |job|, 0 for an empty job set.
func MatchRate(resume, job []string) float64 {
	jobSet := toSet(job)
	if len(jobSet) == 0 {
		return 0
	}
	resumeSet := toSet(resume)

	matched := 0
	for term := range jobSet {
		if _, ok := resumeSet[term]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(jobSet))
}

func splitSkills(resume, job []string) (matched, missing []string) {
	resumeSet := toSet(resume)
	matched, missing = []string{}, []string{}
	for skill := range toSet(job) {
		if _, ok := resumeSet[skill]; ok {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)
	return matched, missing
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

package pipeline

import (
	"time"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/keywords"
	"github.com/spigell/resume-matcher/internal/semantic"
	"github.com/spigell/resume-matcher/internal/similarity"
)

// DocumentAnalysis is the keyword view of one side of the comparison.
type DocumentAnalysis struct {
	TextLength int             `json:"text_length"`
	Keywords   keywords.Bundle `json:"keywords"`
}

// Result is the record produced for every analysis, successful or not.
type Result struct {
	ID              string                `json:"id"`
	Success         bool                  `json:"success"`
	Error           string                `json:"error,omitempty"`
	Resume          *DocumentAnalysis     `json:"resume_analysis,omitempty"`
	Job             *DocumentAnalysis     `json:"job_analysis,omitempty"`
	Scores          *similarity.Breakdown `json:"scores,omitempty"`
	Recommendations []string              `json:"recommendations,omitempty"`
	Semantic        *semantic.Comparison  `json:"semantic,omitempty"`
	Profile         *ai.Profile           `json:"profile,omitempty"`
	Warnings        []string              `json:"warnings,omitempty"`
	Cached          bool                  `json:"cached,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

func failure(id string, err error) *Result {
	return &Result{
		ID:        id,
		Success:   false,
		Error:     err.Error(),
		CreatedAt: time.Now().UTC(),
	}
}

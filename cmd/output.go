package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/pipeline"
)

const (
	outputJSON   = "json"
	outputPretty = "pretty"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResult(w io.Writer, format string, res *pipeline.Result) error {
	switch format {
	case outputJSON:
		return writeJSON(w, res)
	case outputPretty:
		return writePretty(w, res)
	default:
		return fmt.Errorf("unknown output format %q (valid: json, pretty)", format)
	}
}

func writePretty(w io.Writer, res *pipeline.Result) error {
	var b strings.Builder

	if !res.Success {
		fmt.Fprintf(&b, "Analysis failed: %s\n", res.Error)
		_, err := io.WriteString(w, b.String())
		return err
	}

	s := res.Scores
	fmt.Fprintf(&b, "Overall match: %.2f%% (%s)\n", s.OverallPercentage, s.MatchLevel)
	fmt.Fprintf(&b, "  skills match:       %5.1f%%\n", s.SkillsMatchRate*100)
	fmt.Fprintf(&b, "  salient terms:      %5.1f%%\n", s.SalientMatchRate*100)
	fmt.Fprintf(&b, "  all keywords:       %5.1f%%\n", s.AllKeywordsMatchRate*100)
	fmt.Fprintf(&b, "  text similarity:    %5.1f%%\n", s.TextSimilarity*100)
	if s.Fallback {
		b.WriteString("  (job has no salient terms; fallback weights applied)\n")
	}

	fmt.Fprintf(&b, "\nMatched skills (%d): %s\n", len(s.MatchedSkills), joinOrNone(s.MatchedSkills))
	fmt.Fprintf(&b, "Missing skills (%d): %s\n", len(s.MissingSkills), joinOrNone(s.MissingSkills))

	if res.Semantic != nil {
		fmt.Fprintf(&b, "\nSemantic skill match: %.1f%%\n", res.Semantic.MatchPercentage)
		fmt.Fprintf(&b, "  missing:    %s\n", joinOrNone(res.Semantic.Missing))
		fmt.Fprintf(&b, "  additional: %s\n", joinOrNone(res.Semantic.Additional))
	}

	if p := res.Profile; p != nil {
		fmt.Fprintf(&b, "\nProfile: %.1f years; %s\n", p.TotalExperienceYears, p.Summary)
		skills := make([]string, 0, len(p.TechnicalSkills))
		for _, skill := range p.TechnicalSkills {
			skills = append(skills, describeSkill(skill))
		}
		fmt.Fprintf(&b, "  technical skills: %s\n", joinOrNone(skills))
	}

	if len(res.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, r := range res.Recommendations {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
	}

	for _, warn := range res.Warnings {
		fmt.Fprintf(&b, "\nwarning: %s\n", warn)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func describeSkill(s ai.TechnicalSkill) string {
	var details []string
	if s.YearsExperience != nil {
		details = append(details, fmt.Sprintf("%gy", *s.YearsExperience))
	}
	if s.Proficiency != "" {
		details = append(details, s.Proficiency)
	}
	if len(details) == 0 {
		return s.Name
	}
	return fmt.Sprintf("%s (%s)", s.Name, strings.Join(details, ", "))
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

// Package recommend turns a score breakdown into short guidance messages.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/resume-matcher/internal/similarity"
)

const (
	lowMatchPercentage    = 50
	strongMatchPercentage = 70
	weakSkillsRate        = 0.5
	maxListedSkills       = 5
)

const (
	MsgLowMatch        = "Low match score. Consider tailoring your resume to this job description."
	MsgHighlightSkills = "Highlight more relevant technical skills from the job description."
	MsgStrongMatch     = "Strong match! Your resume aligns well with the job requirements."
	msgMissingSkills   = "Add these missing skills if you have them: %s"
)

// Generate evaluates every rule independently; messages may overlap.
func Generate(b similarity.Breakdown) []string {
	out := []string{}

	if b.OverallPercentage < lowMatchPercentage {
		out = append(out, MsgLowMatch)
	}

	if len(b.MissingSkills) > 0 {
		missing := append([]string(nil), b.MissingSkills...)
		sort.Strings(missing)
		if len(missing) > maxListedSkills {
			missing = missing[:maxListedSkills]
		}
		out = append(out, fmt.Sprintf(msgMissingSkills, strings.Join(missing, ", ")))
	}

	if b.SkillsMatchRate < weakSkillsRate {
		out = append(out, MsgHighlightSkills)
	}

	if b.OverallPercentage >= strongMatchPercentage {
		out = append(out, MsgStrongMatch)
	}

	return out
}

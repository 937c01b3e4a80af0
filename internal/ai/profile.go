// Package ai defines the optional LLM enrichment contract.
package ai

import "context"

// Profile is the structured view of a resume produced by an LLM.
type Profile struct {
	TechnicalSkills      []TechnicalSkill `json:"technical_skills" mapstructure:"technical_skills"`
	SoftSkills           []SoftSkill      `json:"soft_skills" mapstructure:"soft_skills"`
	TotalExperienceYears float64          `json:"total_experience_years" mapstructure:"total_experience_years"`
	Certifications       []Certification  `json:"certifications" mapstructure:"certifications"`
	Education            []Education      `json:"education" mapstructure:"education"`
	JobTitles            []string         `json:"job_titles" mapstructure:"job_titles"`
	Industries           []string         `json:"industries" mapstructure:"industries"`
	Summary              string           `json:"summary" mapstructure:"summary"`
	Raw                  string           `json:"-" mapstructure:"-"`
}

// Proficiency levels an extractor normalizes to. Anything else is kept as
// reported.
const (
	ProficiencyBeginner     = "beginner"
	ProficiencyIntermediate = "intermediate"
	ProficiencyExpert       = "expert"
)

type TechnicalSkill struct {
	Name            string   `json:"skill" mapstructure:"skill"`
	YearsExperience *float64 `json:"years_experience,omitempty" mapstructure:"years_experience"`
	Proficiency     string   `json:"proficiency,omitempty" mapstructure:"proficiency"`
}

type SoftSkill struct {
	Name    string `json:"skill" mapstructure:"skill"`
	Context string `json:"context,omitempty" mapstructure:"context"`
}

type Certification struct {
	Name   string `json:"name" mapstructure:"name"`
	Issuer string `json:"issuer,omitempty" mapstructure:"issuer"`
	Year   *int   `json:"year,omitempty" mapstructure:"year"`
}

type Education struct {
	Degree      string `json:"degree" mapstructure:"degree"`
	Institution string `json:"institution,omitempty" mapstructure:"institution"`
	Year        *int   `json:"year,omitempty" mapstructure:"year"`
	Field       string `json:"field,omitempty" mapstructure:"field"`
}

// TechnicalSkillNames lists the technical skill names in order.
func (p *Profile) TechnicalSkillNames() []string {
	names := make([]string, len(p.TechnicalSkills))
	for i, s := range p.TechnicalSkills {
		names[i] = s.Name
	}
	return names
}

// ProfileExtractor builds a Profile from resume text.
type ProfileExtractor interface {
	ExtractProfile(ctx context.Context, resumeText string) (*Profile, error)
}

package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/pipeline"
	"github.com/spigell/resume-matcher/internal/similarity"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, validateConfig(defaultConfig()))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "blank database", mutate: func(c *Config) { c.Database = "   " }},
		{name: "threshold above one", mutate: func(c *Config) { c.Semantic.Threshold = 1.5 }},
		{name: "unknown embedder", mutate: func(c *Config) { c.Semantic.Embedder = "word2vec" }},
		{name: "negative top n", mutate: func(c *Config) { c.Keywords.TopN = -1 }},
		{name: "weights not summing to 100", mutate: func(c *Config) { c.Scoring.Primary.Skills = 10 }},
		{name: "custom weights", mutate: func(c *Config) {
			c.Scoring.Primary = similarity.Weights{Skills: 40, Salient: 30, AllKeywords: 20, Text: 10}
		}, ok: true},
		{name: "no ai section", mutate: func(c *Config) { c.AI = nil }, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := defaultConfig()
			tt.mutate(config)
			err := validateConfig(config)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWriteResult(t *testing.T) {
	res := &pipeline.Result{
		Success: true,
		Scores: &similarity.Breakdown{
			OverallPercentage: 72.5,
			MatchLevel:        "Good Match",
			MatchedSkills:     []string{"python"},
		},
		Recommendations: []string{"Add docker"},
	}

	var pretty bytes.Buffer
	require.NoError(t, writeResult(&pretty, outputPretty, res))
	assert.Contains(t, pretty.String(), "Overall match: 72.50% (Good Match)")
	assert.Contains(t, pretty.String(), "Matched skills (1): python")
	assert.Contains(t, pretty.String(), "Missing skills (0): none")
	assert.Contains(t, pretty.String(), "  - Add docker")

	var raw bytes.Buffer
	require.NoError(t, writeResult(&raw, outputJSON, res))
	assert.Contains(t, raw.String(), `"overall_percentage": 72.5`)

	assert.Error(t, writeResult(&raw, "yaml", res))

	var failed bytes.Buffer
	require.NoError(t, writeResult(&failed, outputPretty, &pipeline.Result{Error: "Job description is required"}))
	assert.Equal(t, "Analysis failed: Job description is required\n", failed.String())
}

func TestWritePrettyProfile(t *testing.T) {
	years := 5.0
	res := &pipeline.Result{
		Success: true,
		Scores:  &similarity.Breakdown{},
		Profile: &ai.Profile{
			TotalExperienceYears: 6,
			Summary:              "Platform engineer.",
			TechnicalSkills: []ai.TechnicalSkill{
				{Name: "Go", YearsExperience: &years, Proficiency: ai.ProficiencyExpert},
				{Name: "Docker"},
			},
		},
	}

	var out bytes.Buffer
	require.NoError(t, writeResult(&out, outputPretty, res))
	assert.Contains(t, out.String(), "Profile: 6.0 years; Platform engineer.")
	assert.Contains(t, out.String(), "technical skills: Go (5y, expert), Docker")
}

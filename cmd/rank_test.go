package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/screening"
	"github.com/spigell/resume-matcher/internal/store"
)

func TestScreeningSteps(t *testing.T) {
	apps := []store.Application{
		{ID: 1, MatchScore: 82, MatchedSkills: []string{"go", "docker"}, Status: store.StatusPending},
		{ID: 2, MatchScore: 61, MatchedSkills: []string{"go"}, Status: store.StatusReviewed},
		{ID: 3, MatchScore: 40, MatchedSkills: []string{"go", "docker"}, Status: store.StatusPending},
	}

	ids := func(apps []store.Application) []int64 {
		out := make([]int64, 0, len(apps))
		for _, a := range apps {
			out = append(out, a.ID)
		}
		return out
	}

	tests := []struct {
		name     string
		minScore float64
		skills   []string
		statuses []store.ApplicationStatus
		top      int
		skipped  []string
		want     []int64
	}{
		{name: "threshold only", minScore: 50, want: []int64{1, 2}},
		{name: "threshold skipped", minScore: 50, skipped: []string{"min_score"}, want: []int64{1, 2, 3}},
		{name: "required skill", minScore: 0, skills: []string{"Docker"}, want: []int64{1, 3}},
		{name: "status and top", minScore: 0, statuses: []store.ApplicationStatus{store.StatusPending}, top: 1, want: []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := screeningSteps(tt.minScore, tt.skills, tt.statuses, tt.top, tt.skipped)
			got, err := screening.Run(context.Background(), zap.NewNop(), steps, apps)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestScreeningStepsIncludeMinScore(t *testing.T) {
	statuses := screening.Describe(screeningSteps(65, nil, nil, 0, []string{"min_score"}))
	require.NotEmpty(t, statuses)
	assert.Equal(t, "min_score", statuses[0].Name)
	assert.False(t, statuses[0].Enabled)
	assert.Equal(t, "65", statuses[0].Details["threshold"])
}

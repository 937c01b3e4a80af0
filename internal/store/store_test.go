package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "matcher.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *Store) (jobID int64, userIDs []int64) {
	t.Helper()
	ctx := context.Background()

	jobID, err := s.CreateJob(ctx, Job{
		Company:        "TechCorp",
		Title:          "Senior Data Scientist",
		Description:    "Looking for an experienced data scientist",
		Requirements:   "Python, Machine Learning, SQL",
		RequiredSkills: []string{"python", "sql"},
		MinimumScore:   65,
	})
	require.NoError(t, err)

	for _, email := range []string{"ann@example.com", "bob@example.com", "cid@example.com"} {
		id, err := s.CreateUser(ctx, User{Email: email, Name: email[:3]})
		require.NoError(t, err)
		userIDs = append(userIDs, id)
	}
	return jobID, userIDs
}

func TestJobDefaults(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateJob(ctx, Job{Title: "Analyst", Description: "SQL reports"})
	require.NoError(t, err)

	job, err := s.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, DefaultMinimumScore, job.MinimumScore)
	assert.Equal(t, JobActive, job.Status)
	assert.Equal(t, []string{}, job.RequiredSkills)
	assert.False(t, job.PostedAt.IsZero())

	require.NoError(t, s.UpdateJobStatus(ctx, id, JobClosed))
	active, err := s.ListJobs(ctx, JobActive, 0)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := s.ListJobs(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.GetJob(ctx, 999)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.UpdateJobStatus(ctx, 999, JobDraft), ErrNotFound))

	_, err = s.CreateJob(ctx, Job{Title: "x", Description: "y", Status: "archived"})
	assert.Error(t, err)
	_, err = s.CreateJob(ctx, Job{Title: "x", Description: "y", MinimumScore: 120})
	assert.Error(t, err)
}

func TestUsers(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, User{Email: " Jane@Example.com ", Name: "Jane"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, User{Email: "jane@example.com", Name: "Other"})
	assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)

	require.NoError(t, s.UpdateUserResume(ctx, id, "cv.pdf", "Go developer", []string{"go"}))
	u, err := s.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, "cv.pdf", u.ResumePath)
	assert.Equal(t, []string{"go"}, u.Skills)

	_, err = s.GetUser(ctx, 42)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestApplicationsRanking(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	jobID, users := seed(t, s)

	scores := []float64{55.5, 91.25, 70}
	for i, uid := range users {
		_, err := s.CreateApplication(ctx, Application{
			JobID:         jobID,
			UserID:        uid,
			MatchScore:    scores[i],
			MatchedSkills: []string{"python"},
			Analysis:      json.RawMessage(`{"success":true}`),
		})
		require.NoError(t, err)
	}

	_, err := s.CreateApplication(ctx, Application{JobID: jobID, UserID: users[0], MatchScore: 10})
	assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)

	all, err := s.ListApplications(ctx, ApplicationQuery{JobID: jobID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []float64{91.25, 70, 55.5}, []float64{all[0].MatchScore, all[1].MatchScore, all[2].MatchScore})
	assert.Equal(t, "bob", all[0].UserName)
	assert.Equal(t, StatusPending, all[0].Status)
	assert.Equal(t, []string{}, all[0].MissingSkills)
	assert.JSONEq(t, `{"success":true}`, string(all[0].Analysis))

	minScore := 65.0
	above, err := s.ListApplications(ctx, ApplicationQuery{JobID: jobID, MinScore: &minScore, Limit: 1})
	require.NoError(t, err)
	require.Len(t, above, 1)
	assert.Equal(t, 91.25, above[0].MatchScore)

	require.NoError(t, s.UpdateApplicationStatus(ctx, all[0].ID, StatusShortlisted, "call back"))
	app, err := s.GetApplication(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, StatusShortlisted, app.Status)
	assert.Equal(t, "call back", app.Notes)
	require.NotNil(t, app.ReviewedAt)

	shortlisted, err := s.ListApplications(ctx, ApplicationQuery{JobID: jobID, Status: StatusShortlisted})
	require.NoError(t, err)
	assert.Len(t, shortlisted, 1)

	assert.Error(t, s.UpdateApplicationStatus(ctx, all[0].ID, "ghosted", ""))
	assert.True(t, errors.Is(s.UpdateApplicationStatus(ctx, 999, StatusHired, ""), ErrNotFound))
}

func TestApplicationRequiresExistingRows(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	_, err := s.CreateApplication(context.Background(), Application{JobID: 7, UserID: 8, MatchScore: 50})
	assert.Error(t, err)
}

func TestJobStatistics(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()
	jobID, users := seed(t, s)

	empty, err := s.JobStatistics(ctx, jobID, 65)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalApplications)
	assert.Equal(t, 0.0, empty.AverageScore)

	for i, score := range []float64{40, 60, 81} {
		id, err := s.CreateApplication(ctx, Application{JobID: jobID, UserID: users[i], MatchScore: score})
		require.NoError(t, err)
		if score > 80 {
			require.NoError(t, s.UpdateApplicationStatus(ctx, id, StatusHired, ""))
		}
	}

	stats, err := s.JobStatistics(ctx, jobID, 65)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalApplications)
	assert.Equal(t, 60.33, stats.AverageScore)
	assert.Equal(t, 81.0, stats.TopScore)
	assert.Equal(t, 40.0, stats.LowestScore)
	assert.Equal(t, 1, stats.AboveThreshold)
	assert.Equal(t, map[ApplicationStatus]int{StatusPending: 2, StatusHired: 1}, stats.StatusBreakdown)
}

func TestParseApplicationStatus(t *testing.T) {
	t.Parallel()

	got, err := ParseApplicationStatus(" Shortlisted ")
	require.NoError(t, err)
	assert.Equal(t, StatusShortlisted, got)

	_, err = ParseApplicationStatus("maybe")
	assert.Error(t, err)
}

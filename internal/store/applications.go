package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusReviewed    ApplicationStatus = "reviewed"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusRejected    ApplicationStatus = "rejected"
	StatusInterviewed ApplicationStatus = "interviewed"
	StatusHired       ApplicationStatus = "hired"
)

// ApplicationStatuses lists every valid status in workflow order.
var ApplicationStatuses = []ApplicationStatus{
	StatusPending, StatusReviewed, StatusShortlisted, StatusRejected, StatusInterviewed, StatusHired,
}

// ParseApplicationStatus validates a user-supplied status.
func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	status := ApplicationStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range ApplicationStatuses {
		if s == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid application status %q", raw)
}

type Application struct {
	ID               int64             `json:"id"`
	JobID            int64             `json:"job_id"`
	UserID           int64             `json:"user_id"`
	MatchScore       float64           `json:"match_score"`
	SkillsMatchScore float64           `json:"skills_match_score"`
	MatchedSkills    []string          `json:"matched_skills"`
	MissingSkills    []string          `json:"missing_skills"`
	Analysis         json.RawMessage   `json:"analysis,omitempty"`
	Status           ApplicationStatus `json:"status"`
	Notes            string            `json:"notes,omitempty"`
	AppliedAt        time.Time         `json:"applied_at"`
	ReviewedAt       *time.Time        `json:"reviewed_at,omitempty"`

	// Populated by ListApplications.
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

// CreateApplication returns ErrDuplicate when the user already applied to
// the job and ErrNotFound when either side does not exist.
func (s *Store) CreateApplication(ctx context.Context, a Application) (int64, error) {
	analysis := a.Analysis
	if len(analysis) == 0 {
		analysis = json.RawMessage("{}")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO applications (job_id, user_id, match_score, skills_match_score,
		                           matched_skills, missing_skills, analysis, status, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.JobID, a.UserID, a.MatchScore, a.SkillsMatchScore,
		encodeList(a.MatchedSkills), encodeList(a.MissingSkills), string(analysis), string(StatusPending), now(),
	)
	if err != nil {
		return 0, fmt.Errorf("create application job=%d user=%d: %w", a.JobID, a.UserID, mapError(err))
	}
	return res.LastInsertId()
}

const applicationColumns = `a.id, a.job_id, a.user_id, a.match_score, a.skills_match_score,
	a.matched_skills, a.missing_skills, a.analysis, a.status, a.notes, a.applied_at, a.reviewed_at,
	u.name, u.email`

func scanApplication(row rowScanner) (*Application, error) {
	var (
		a                Application
		matched, missing string
		analysis, status string
		applied          string
		reviewed         sql.NullString
	)
	if err := row.Scan(&a.ID, &a.JobID, &a.UserID, &a.MatchScore, &a.SkillsMatchScore,
		&matched, &missing, &analysis, &status, &a.Notes, &applied, &reviewed,
		&a.UserName, &a.UserEmail); err != nil {
		return nil, err
	}

	var err error
	if a.MatchedSkills, err = decodeList(matched); err != nil {
		return nil, err
	}
	if a.MissingSkills, err = decodeList(missing); err != nil {
		return nil, err
	}
	a.Analysis = json.RawMessage(analysis)
	a.Status = ApplicationStatus(status)
	a.AppliedAt = parseTime(applied)
	if reviewed.Valid {
		t := parseTime(reviewed.String)
		a.ReviewedAt = &t
	}
	return &a, nil
}

func (s *Store) GetApplication(ctx context.Context, id int64) (*Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications a JOIN users u ON a.user_id = u.id
		 WHERE a.id = ?`, id)
	a, err := scanApplication(row)
	if err != nil {
		return nil, fmt.Errorf("get application %d: %w", id, mapError(err))
	}
	return a, nil
}

// ApplicationQuery filters ListApplications. Nil MinScore and empty Status
// disable those filters.
type ApplicationQuery struct {
	JobID    int64
	MinScore *float64
	Status   ApplicationStatus
	Limit    int
}

// ListApplications returns a job's applications ranked by match score, best
// first. Ties keep application order.
func (s *Store) ListApplications(ctx context.Context, q ApplicationQuery) ([]Application, error) {
	query := `SELECT ` + applicationColumns + `
		FROM applications a JOIN users u ON a.user_id = u.id
		WHERE a.job_id = ?`
	args := []any{q.JobID}

	if q.MinScore != nil {
		query += ` AND a.match_score >= ?`
		args = append(args, *q.MinScore)
	}
	if q.Status != "" {
		query += ` AND a.status = ?`
		args = append(args, string(q.Status))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY a.match_score DESC, a.id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications for job %d: %w", q.JobID, err)
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("list applications for job %d: %w", q.JobID, err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// UpdateApplicationStatus sets the status and review time of an application.
func (s *Store) UpdateApplicationStatus(ctx context.Context, id int64, status ApplicationStatus, notes string) error {
	if _, err := ParseApplicationStatus(string(status)); err != nil {
		return fmt.Errorf("update application %d: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE applications SET status = ?, notes = ?, reviewed_at = ? WHERE id = ?`,
		string(status), notes, now(), id,
	)
	if err != nil {
		return fmt.Errorf("update application %d: %w", id, err)
	}
	if err := expectRow(res); err != nil {
		return fmt.Errorf("update application %d: %w", id, err)
	}
	return nil
}

// JobStats summarizes the applications of one job.
type JobStats struct {
	JobID             int64                     `json:"job_id"`
	TotalApplications int                       `json:"total_applications"`
	AverageScore      float64                   `json:"average_match_score"`
	TopScore          float64                   `json:"top_match_score"`
	LowestScore       float64                   `json:"lowest_match_score"`
	Threshold         float64                   `json:"threshold"`
	AboveThreshold    int                       `json:"above_threshold"`
	StatusBreakdown   map[ApplicationStatus]int `json:"status_breakdown"`
}

// JobStatistics aggregates a job's applications; AboveThreshold counts
// scores at or above threshold.
func (s *Store) JobStatistics(ctx context.Context, jobID int64, threshold float64) (*JobStats, error) {
	stats := &JobStats{JobID: jobID, Threshold: threshold, StatusBreakdown: map[ApplicationStatus]int{}}

	var avg, top, low sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(match_score), MAX(match_score), MIN(match_score),
		        COALESCE(SUM(CASE WHEN match_score >= ? THEN 1 ELSE 0 END), 0)
		 FROM applications WHERE job_id = ?`, threshold, jobID,
	).Scan(&stats.TotalApplications, &avg, &top, &low, &stats.AboveThreshold)
	if err != nil {
		return nil, fmt.Errorf("job %d statistics: %w", jobID, err)
	}
	stats.AverageScore = round2(avg.Float64)
	stats.TopScore = round2(top.Float64)
	stats.LowestScore = round2(low.Float64)

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM applications WHERE job_id = ? GROUP BY status`, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %d status breakdown: %w", jobID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("job %d status breakdown: %w", jobID, err)
		}
		stats.StatusBreakdown[ApplicationStatus(status)] = count
	}
	return stats, rows.Err()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

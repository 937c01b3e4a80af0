package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type JobStatus string

const (
	JobActive JobStatus = "active"
	JobClosed JobStatus = "closed"
	JobDraft  JobStatus = "draft"
)

// DefaultMinimumScore is the match percentage a job requires unless set.
const DefaultMinimumScore = 50.0

type Job struct {
	ID             int64     `json:"id"`
	Company        string    `json:"company,omitempty"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Requirements   string    `json:"requirements,omitempty"`
	Location       string    `json:"location,omitempty"`
	SalaryRange    string    `json:"salary_range,omitempty"`
	EmploymentType string    `json:"employment_type,omitempty"`
	RequiredSkills []string  `json:"required_skills"`
	MinimumScore   float64   `json:"minimum_score"`
	Status         JobStatus `json:"status"`
	PostedAt       time.Time `json:"posted_at"`
}

func validJobStatus(s JobStatus) bool {
	switch s {
	case JobActive, JobClosed, JobDraft:
		return true
	}
	return false
}

// CreateJob stores a posting. Zero MinimumScore and empty Status fall back to
// DefaultMinimumScore and JobActive.
func (s *Store) CreateJob(ctx context.Context, j Job) (int64, error) {
	if strings.TrimSpace(j.Title) == "" || strings.TrimSpace(j.Description) == "" {
		return 0, errors.New("create job: title and description are required")
	}
	if j.MinimumScore == 0 {
		j.MinimumScore = DefaultMinimumScore
	}
	if j.MinimumScore < 0 || j.MinimumScore > 100 {
		return 0, fmt.Errorf("create job: minimum score %v is outside [0, 100]", j.MinimumScore)
	}
	if j.Status == "" {
		j.Status = JobActive
	}
	if !validJobStatus(j.Status) {
		return 0, fmt.Errorf("create job: invalid status %q (valid: active, closed, draft)", j.Status)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (company, title, description, requirements, location, salary_range,
		                   employment_type, required_skills, minimum_score, status, posted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.Company, strings.TrimSpace(j.Title), j.Description, j.Requirements, j.Location, j.SalaryRange,
		j.EmploymentType, encodeList(j.RequiredSkills), j.MinimumScore, string(j.Status), now(),
	)
	if err != nil {
		return 0, fmt.Errorf("create job: %w", mapError(err))
	}
	return res.LastInsertId()
}

const jobColumns = `id, company, title, description, requirements, location, salary_range,
	employment_type, required_skills, minimum_score, status, posted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		j              Job
		skills, posted string
		status         string
	)
	if err := row.Scan(&j.ID, &j.Company, &j.Title, &j.Description, &j.Requirements, &j.Location,
		&j.SalaryRange, &j.EmploymentType, &skills, &j.MinimumScore, &status, &posted); err != nil {
		return nil, err
	}

	var err error
	if j.RequiredSkills, err = decodeList(skills); err != nil {
		return nil, err
	}
	j.Status = JobStatus(status)
	j.PostedAt = parseTime(posted)
	return &j, nil
}

func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, mapError(err))
	}
	return j, nil
}

// ListJobs returns postings newest first. An empty status lists all of them.
func (s *Store) ListJobs(ctx context.Context, status JobStatus, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 100
	}

	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		if !validJobStatus(status) {
			return nil, fmt.Errorf("list jobs: invalid status %q", status)
		}
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY posted_at DESC, id DESC LIMIT ?`,
			string(status), limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+jobColumns+` FROM jobs ORDER BY posted_at DESC, id DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (s *Store) UpdateJobStatus(ctx context.Context, id int64, status JobStatus) error {
	if !validJobStatus(status) {
		return fmt.Errorf("update job %d: invalid status %q", id, status)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update job %d: %w", id, err)
	}
	if err := expectRow(res); err != nil {
		return fmt.Errorf("update job %d: %w", id, err)
	}
	return nil
}

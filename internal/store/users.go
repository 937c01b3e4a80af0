package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	ResumePath string    `json:"resume_path,omitempty"`
	ResumeText string    `json:"-"`
	Skills     []string  `json:"skills"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s *Store) CreateUser(ctx context.Context, u User) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	name := strings.TrimSpace(u.Name)
	if email == "" || name == "" {
		return 0, errors.New("create user: email and name are required")
	}

	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, resume_path, resume_text, skills, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		email, name, u.ResumePath, u.ResumeText, encodeList(u.Skills), ts, ts,
	)
	if err != nil {
		return 0, fmt.Errorf("create user %s: %w", email, mapError(err))
	}
	return res.LastInsertId()
}

func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	var (
		u                User
		skills           string
		created, updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, resume_path, resume_text, skills, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.ResumePath, &u.ResumeText, &skills, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, mapError(err))
	}

	if u.Skills, err = decodeList(skills); err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u.CreatedAt, u.UpdatedAt = parseTime(created), parseTime(updated)
	return &u, nil
}

// UpdateUserResume records the latest resume a user applied with.
func (s *Store) UpdateUserResume(ctx context.Context, id int64, path, text string, skills []string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET resume_path = ?, resume_text = ?, skills = ?, updated_at = ? WHERE id = ?`,
		path, text, encodeList(skills), now(), id,
	)
	if err != nil {
		return fmt.Errorf("update user %d: %w", id, mapError(err))
	}
	if err := expectRow(res); err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	return nil
}

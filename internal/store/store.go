// Package store persists users, job postings and applications in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint is violated, such as a
	// second application by the same user to the same job.
	ErrDuplicate = errors.New("already exists")
)

const timeLayout = time.RFC3339Nano

// Store is safe for concurrent use; SQLite serializes writers on a single
// connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}

	dsn := path + "?" + url.Values{
		"_pragma": []string{"foreign_keys(1)", "busy_timeout(5000)"},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		email       TEXT UNIQUE NOT NULL,
		name        TEXT NOT NULL,
		resume_path TEXT NOT NULL DEFAULT '',
		resume_text TEXT NOT NULL DEFAULT '',
		skills      TEXT NOT NULL DEFAULT '[]',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		company         TEXT NOT NULL DEFAULT '',
		title           TEXT NOT NULL,
		description     TEXT NOT NULL,
		requirements    TEXT NOT NULL DEFAULT '',
		location        TEXT NOT NULL DEFAULT '',
		salary_range    TEXT NOT NULL DEFAULT '',
		employment_type TEXT NOT NULL DEFAULT '',
		required_skills TEXT NOT NULL DEFAULT '[]',
		minimum_score   REAL NOT NULL DEFAULT 50.0,
		status          TEXT NOT NULL DEFAULT 'active',
		posted_at       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id             INTEGER NOT NULL REFERENCES jobs(id),
		user_id            INTEGER NOT NULL REFERENCES users(id),
		match_score        REAL NOT NULL,
		skills_match_score REAL NOT NULL DEFAULT 0,
		matched_skills     TEXT NOT NULL DEFAULT '[]',
		missing_skills     TEXT NOT NULL DEFAULT '[]',
		analysis           TEXT NOT NULL DEFAULT '{}',
		status             TEXT NOT NULL DEFAULT 'pending',
		notes              TEXT NOT NULL DEFAULT '',
		applied_at         TEXT NOT NULL,
		reviewed_at        TEXT,
		UNIQUE(job_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_job ON applications(job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_user ON applications(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_score ON applications(match_score)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, _ := time.Parse(timeLayout, raw)
	return t
}

func encodeList(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return string(data)
}

func decodeList(raw string) ([]string, error) {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}

// mapError translates driver errors into package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

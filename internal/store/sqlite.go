package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"transcript-tool/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  progress INTEGER NOT NULL DEFAULT 0,
  message TEXT NOT NULL DEFAULT '',
  options_json TEXT NOT NULL,
  input_path TEXT NOT NULL,
  transcript_path TEXT NOT NULL,
  subtitle_path TEXT,
  subtitle_filename TEXT,
  original_filename TEXT NOT NULL,
  subtitle_ready INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status_created ON jobs (status, created_at);
`

// SQLite is the default durable JobStore, suitable for a single host
// without an external database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if necessary initializes) the job database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent job updates.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Create(ctx context.Context, job *domain.Job) error {
	opts, err := json.Marshal(job.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, progress, message, options_json, input_path, transcript_path,
		   subtitle_path, subtitle_filename, original_filename, subtitle_ready, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		string(job.Status),
		job.Progress,
		job.Message,
		string(opts),
		job.InputPath,
		job.TranscriptPath,
		nullString(job.SubtitlePath),
		nullString(job.SubtitleFilename),
		job.OriginalFilename,
		boolToInt(job.SubtitleReady),
		job.CreatedAt.UnixMilli(),
		job.UpdatedAt.UnixMilli(),
	)
	return err
}

func (s *SQLite) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanSQLiteJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *SQLite) Update(ctx context.Context, id string, fn func(*domain.Job) error) (*domain.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanSQLiteJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := fn(job); err != nil {
		return nil, err
	}
	job.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = ?, progress = ?, message = ?, subtitle_ready = ?, updated_at = ? WHERE id = ?`,
		string(job.Status),
		job.Progress,
		job.Message,
		boolToInt(job.SubtitleReady),
		job.UpdatedAt.UnixMilli(),
		id,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *SQLite) Claim(ctx context.Context) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE jobs SET status = ?, updated_at = ?
		 WHERE id = (SELECT id FROM jobs WHERE status = ? ORDER BY created_at LIMIT 1)
		 RETURNING `+jobColumns,
		string(domain.JobStatusProcessing),
		time.Now().UTC().UnixMilli(),
		string(domain.JobStatusQueued),
	)
	job, err := scanSQLiteJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoJobAvailable
		}
		return nil, err
	}
	return job, nil
}

const jobColumns = `id, status, progress, message, options_json, input_path, transcript_path,
  subtitle_path, subtitle_filename, original_filename, subtitle_ready, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteJob(row rowScanner) (*domain.Job, error) {
	var (
		job                        domain.Job
		status, optionsJSON        string
		subtitlePath, subtitleName sql.NullString
		subtitleReady              int
		createdMs, updatedMs       int64
	)
	if err := row.Scan(
		&job.ID,
		&status,
		&job.Progress,
		&job.Message,
		&optionsJSON,
		&job.InputPath,
		&job.TranscriptPath,
		&subtitlePath,
		&subtitleName,
		&job.OriginalFilename,
		&subtitleReady,
		&createdMs,
		&updatedMs,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(optionsJSON), &job.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	job.Status = domain.JobStatus(status)
	job.SubtitlePath = subtitlePath.String
	job.SubtitleFilename = subtitleName.String
	job.SubtitleReady = subtitleReady != 0
	job.CreatedAt = time.UnixMilli(createdMs).UTC()
	job.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return &job, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

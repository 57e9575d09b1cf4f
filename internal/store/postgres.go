package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"transcript-tool/internal/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  progress INT NOT NULL DEFAULT 0,
  message TEXT NOT NULL DEFAULT '',
  options_json JSONB NOT NULL,
  input_path TEXT NOT NULL,
  transcript_path TEXT NOT NULL,
  subtitle_path TEXT,
  subtitle_filename TEXT,
  original_filename TEXT NOT NULL,
  subtitle_ready BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status_created ON jobs (status, created_at);
`

// Postgres is the JobStore for deployments that already run a database
// server, typically paired with one or more standalone workers.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pgx pool and ensures the jobs table exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Create(ctx context.Context, job *domain.Job) error {
	opts, err := json.Marshal(job.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	query := `
INSERT INTO jobs (id, status, progress, message, options_json, input_path, transcript_path,
  subtitle_path, subtitle_filename, original_filename, subtitle_ready, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
`
	_, err = p.pool.Exec(ctx, query,
		job.ID,
		string(job.Status),
		job.Progress,
		job.Message,
		opts,
		job.InputPath,
		job.TranscriptPath,
		nullString(job.SubtitlePath),
		nullString(job.SubtitleFilename),
		job.OriginalFilename,
		job.SubtitleReady,
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

const pgJobColumns = `id, status, progress, message, options_json, input_path, transcript_path,
  COALESCE(subtitle_path, ''), COALESCE(subtitle_filename, ''), original_filename, subtitle_ready, created_at, updated_at`

func (p *Postgres) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+pgJobColumns+` FROM jobs WHERE id = $1`, id)
	job, err := scanPostgresJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (p *Postgres) Update(ctx context.Context, id string, fn func(*domain.Job) error) (*domain.Job, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+pgJobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id)
	job, err := scanPostgresJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := fn(job); err != nil {
		return nil, err
	}
	job.UpdatedAt = time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`UPDATE jobs SET status = $2, progress = $3, message = $4, subtitle_ready = $5, updated_at = $6 WHERE id = $1`,
		id,
		string(job.Status),
		job.Progress,
		job.Message,
		job.SubtitleReady,
		job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return job, nil
}

func (p *Postgres) Claim(ctx context.Context) (*domain.Job, error) {
	query := `
UPDATE jobs SET status = $1, updated_at = NOW()
WHERE id = (
  SELECT id FROM jobs WHERE status = $2
  ORDER BY created_at
  FOR UPDATE SKIP LOCKED
  LIMIT 1
)
RETURNING ` + pgJobColumns
	row := p.pool.QueryRow(ctx, query, string(domain.JobStatusProcessing), string(domain.JobStatusQueued))
	job, err := scanPostgresJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoJobAvailable
		}
		return nil, err
	}
	return job, nil
}

func scanPostgresJob(row pgx.Row) (*domain.Job, error) {
	var (
		job         domain.Job
		status      string
		optionsJSON []byte
	)
	if err := row.Scan(
		&job.ID,
		&status,
		&job.Progress,
		&job.Message,
		&optionsJSON,
		&job.InputPath,
		&job.TranscriptPath,
		&job.SubtitlePath,
		&job.SubtitleFilename,
		&job.OriginalFilename,
		&job.SubtitleReady,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(optionsJSON, &job.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

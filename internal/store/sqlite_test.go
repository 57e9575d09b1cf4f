package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"transcript-tool/internal/domain"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	job := &domain.Job{
		ID:               "job-1",
		Status:           domain.JobStatusQueued,
		Message:          "Task queued",
		Options:          domain.Options{Model: "small", Temperature: 0.2, BeamSize: 5, ChunkSeconds: 60},
		InputPath:        "/work/uploads/job-1/input.mp4",
		TranscriptPath:   "/work/outputs/transcripts/input.txt",
		SubtitlePath:     "/work/outputs/subtitles/job-1/input.srt",
		SubtitleFilename: "input.srt",
		OriginalFilename: "input.mp4",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Options.Model != "small" || got.Options.BeamSize != 5 {
		t.Fatalf("options not round-tripped: %+v", got.Options)
	}
	if got.SubtitleFilename != "input.srt" || got.Status != domain.JobStatusQueued {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, now)
	}
}

func TestSQLiteGetNotFound(t *testing.T) {
	s := openTestSQLite(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteUpdate(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	now := time.Now().UTC()
	if err := s.Create(ctx, newJob("job-2", domain.JobStatusProcessing, now)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := s.Update(ctx, "job-2", func(j *domain.Job) error {
		j.Progress = 45
		j.Message = "Transcribing audio"
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Progress != 45 {
		t.Fatalf("progress = %d, want 45", updated.Progress)
	}

	got, _ := s.Get(ctx, "job-2")
	if got.Progress != 45 || got.Message != "Transcribing audio" {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestSQLiteUpdateRejected(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	if err := s.Create(ctx, newJob("job-3", domain.JobStatusError, time.Now().UTC())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := s.Update(ctx, "job-3", func(j *domain.Job) error {
		if j.Status.Terminal() {
			return domain.ErrJobFinished
		}
		return nil
	})
	if !errors.Is(err, domain.ErrJobFinished) {
		t.Fatalf("error = %v, want ErrJobFinished", err)
	}
	got, _ := s.Get(ctx, "job-3")
	if got.Status != domain.JobStatusError {
		t.Fatalf("rejected update must roll back, got %s", got.Status)
	}
}

func TestSQLiteClaim(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	base := time.Now().UTC()
	if err := s.Create(ctx, newJob("late", domain.JobStatusQueued, base.Add(time.Second))); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, newJob("early", domain.JobStatusQueued, base)); err != nil {
		t.Fatal(err)
	}

	claimed, err := s.Claim(ctx)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed.ID != "early" || claimed.Status != domain.JobStatusProcessing {
		t.Fatalf("claimed %+v", claimed)
	}

	if _, err := s.Claim(ctx); err != nil {
		t.Fatalf("second Claim: %v", err)
	}
	if _, err := s.Claim(ctx); !errors.Is(err, domain.ErrNoJobAvailable) {
		t.Fatalf("error = %v, want ErrNoJobAvailable", err)
	}
}

package jobs

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"transcript-tool/internal/domain"
	"transcript-tool/internal/engine"
	"transcript-tool/internal/media"
	"transcript-tool/internal/subtitle"
)

// Progress bands: 5 while preparing audio, 10-80 across chunk processing,
// 100 at either terminal state.
const (
	progressPreparing = 5
	progressChunkBase = 10
	progressChunkSpan = 70
	progressDone      = 100
)

// Splitter is the slice of the media package the orchestrator needs.
type Splitter interface {
	Split(ctx context.Context, inputPath string, chunkSeconds int) (*media.SplitResult, error)
}

// Runner executes one transcription job end to end: segmentation, per-chunk
// engine calls with pause checks at chunk boundaries, offset reassembly, and
// artifact writing. Exactly one Runner invocation is active per job id.
type Runner struct {
	store             domain.JobStore
	cache             *engine.Cache
	splitter          Splitter
	logger            zerolog.Logger
	pausePollInterval time.Duration
}

// NewRunner wires a Runner. pausePollInterval bounds how often a paused job
// re-reads its record while waiting at a chunk boundary.
func NewRunner(store domain.JobStore, cache *engine.Cache, splitter Splitter, logger zerolog.Logger, pausePollInterval time.Duration) *Runner {
	if pausePollInterval <= 0 {
		pausePollInterval = time.Second
	}
	return &Runner{
		store:             store,
		cache:             cache,
		splitter:          splitter,
		logger:            logger,
		pausePollInterval: pausePollInterval,
	}
}

// Run processes the job and always leaves it in a terminal state: any
// failure past this point becomes an error record carrying the failure
// description, never a hanging job.
func (r *Runner) Run(ctx context.Context, jobID string) {
	log := r.logger.With().Str("job_id", jobID).Logger()

	job, err := r.store.Get(ctx, jobID)
	if err != nil {
		log.Error().Err(err).Msg("job vanished before run")
		return
	}

	if err := r.process(ctx, job, log); err != nil {
		log.Error().Err(err).Msg("job failed")
		if _, uerr := r.store.Update(ctx, jobID, func(j *domain.Job) error {
			j.Status = domain.JobStatusError
			j.Progress = progressDone
			j.Message = err.Error()
			j.SubtitleReady = false
			return nil
		}); uerr != nil {
			log.Error().Err(uerr).Msg("failed to record job error")
		}
		return
	}
	log.Info().Msg("job completed")
}

func (r *Runner) process(ctx context.Context, job *domain.Job, log zerolog.Logger) error {
	opts := job.Options

	if _, err := r.store.Update(ctx, job.ID, func(j *domain.Job) error {
		if j.Status == domain.JobStatusQueued {
			j.Status = domain.JobStatusProcessing
		}
		j.Progress = progressPreparing
		j.Message = "Preparing audio"
		return nil
	}); err != nil {
		return fmt.Errorf("start job: %w", err)
	}

	split, err := r.splitter.Split(ctx, job.InputPath, opts.ChunkSeconds)
	if err != nil {
		return err
	}
	defer split.Cleanup()

	computeType := engine.ResolveComputeType(opts.Device)
	eng, err := r.cache.Acquire(opts.Model, opts.Device, computeType)
	if err != nil {
		return err
	}

	params := engine.Params{
		Task:        opts.Task(),
		Language:    opts.Language,
		BeamSize:    opts.BeamSize,
		Temperature: opts.Temperature,
	}

	var collected []subtitle.Segment
	offset := 0.0
	nominal := float64(opts.ChunkSeconds)
	total := len(split.Chunks)

	for i, chunk := range split.Chunks {
		if err := r.waitWhilePaused(ctx, job.ID, log); err != nil {
			return err
		}

		spans, info, err := eng.Transcribe(ctx, chunk.Path, params)
		if err != nil {
			return fmt.Errorf("transcribe chunk %d: %w", chunk.Index, err)
		}
		log.Debug().
			Int("chunk", chunk.Index).
			Int("spans", len(spans)).
			Str("language", info.Language).
			Float64("duration", chunk.Duration).
			Msg("chunk transcribed")

		lastEnd := offset
		for _, span := range spans {
			text := strings.TrimSpace(span.Text)
			if text == "" {
				continue
			}
			seg := subtitle.Segment{
				Index: len(collected) + 1,
				Start: offset + span.Start,
				End:   offset + span.End,
				Text:  text,
			}
			collected = append(collected, seg)
			if seg.End > lastEnd {
				lastEnd = seg.End
			}
		}
		// Never regress the offset: even a chunk with no results advances
		// the timeline by its nominal duration, so the next chunk's
		// timestamps cannot collide with this one's.
		if floor := offset + nominal; floor > lastEnd {
			offset = floor
		} else {
			offset = lastEnd
		}

		ratio := float64(i+1) / float64(total)
		progress := progressChunkBase + int(ratio*progressChunkSpan)
		if _, err := r.store.Update(ctx, job.ID, func(j *domain.Job) error {
			j.Progress = progress
			j.Message = "Transcribing audio"
			return nil
		}); err != nil {
			return fmt.Errorf("report progress: %w", err)
		}
	}

	transcript, err := subtitle.Transcript(collected)
	if err != nil {
		return err
	}
	if err := os.WriteFile(job.TranscriptPath, []byte(transcript), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}

	subtitleReady := false
	if !opts.SkipSubtitle {
		doc := subtitle.Document(collected)
		if doc == "" {
			return fmt.Errorf("no subtitle content generated")
		}
		if err := os.WriteFile(job.SubtitlePath, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("write subtitle: %w", err)
		}
		subtitleReady = true
	}

	if _, err := r.store.Update(ctx, job.ID, func(j *domain.Job) error {
		j.Status = domain.JobStatusCompleted
		j.Progress = progressDone
		j.Message = "Transcription complete"
		j.SubtitleReady = subtitleReady
		return nil
	}); err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return nil
}

// waitWhilePaused blocks at a chunk boundary while the record says paused,
// re-reading it at the configured interval. Pausing never interrupts an
// in-flight chunk; it only prevents starting the next one.
func (r *Runner) waitWhilePaused(ctx context.Context, jobID string, log zerolog.Logger) error {
	for {
		job, err := r.store.Get(ctx, jobID)
		if err != nil {
			return fmt.Errorf("read pause state: %w", err)
		}
		if job.Status != domain.JobStatusPaused {
			return nil
		}
		log.Debug().Msg("paused, waiting at chunk boundary")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.pausePollInterval):
		}
	}
}

package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"transcript-tool/internal/domain"
)

// Dispatcher hands a created job to some background execution context. A
// local pool and a store-polling worker both satisfy it; the orchestrator
// does not care which one runs it.
type Dispatcher interface {
	Dispatch(jobID string)
}

// nopDispatcher is used when standalone workers claim jobs from the store
// instead of being pushed to.
type nopDispatcher struct{}

func (nopDispatcher) Dispatch(string) {}

// NopDispatcher returns a dispatcher that relies on store polling.
func NopDispatcher() Dispatcher { return nopDispatcher{} }

// Service is the job registry: it creates records, hands them to the
// dispatcher, and applies the externally triggered pause/resume
// transitions.
type Service struct {
	store      domain.JobStore
	dispatcher Dispatcher
}

// NewService wires the registry.
func NewService(store domain.JobStore, dispatcher Dispatcher) *Service {
	return &Service{store: store, dispatcher: dispatcher}
}

// ValidateOptions rejects malformed submissions before any record exists.
func ValidateOptions(opts domain.Options) error {
	if !domain.IsSupportedModel(opts.Model) {
		return fmt.Errorf("%w: unknown model %q", domain.ErrInvalidOptions, opts.Model)
	}
	if lang := strings.TrimSpace(opts.Language); lang != "" {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("%w: language %q: %v", domain.ErrInvalidOptions, lang, err)
		}
	}
	if opts.ChunkSeconds <= 0 {
		return fmt.Errorf("%w: chunk duration must be positive", domain.ErrInvalidOptions)
	}
	return nil
}

// Submit creates a queued record for the prepared input and dispatches it.
// Callers that staged the input under a job directory pass the id they
// used; otherwise a fresh one is assigned.
func (s *Service) Submit(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	if err := ValidateOptions(job.Options); err != nil {
		return nil, err
	}
	if job.InputPath == "" {
		return nil, fmt.Errorf("%w: missing input file", domain.ErrInvalidOptions)
	}
	now := time.Now().UTC()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = domain.JobStatusQueued
	job.Progress = 0
	job.Message = "Task queued"
	job.SubtitleReady = false
	job.CreatedAt = now
	job.UpdatedAt = now

	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.dispatcher.Dispatch(job.ID)
	return job, nil
}

// Get returns the current record for status polling.
func (s *Service) Get(ctx context.Context, id string) (*domain.Job, error) {
	return s.store.Get(ctx, id)
}

// Pause requests suspension at the next chunk boundary. Rejected with
// ErrJobFinished once the job is terminal; progress is left untouched.
func (s *Service) Pause(ctx context.Context, id string) (*domain.Job, error) {
	return s.store.Update(ctx, id, func(j *domain.Job) error {
		if j.Status.Terminal() {
			return domain.ErrJobFinished
		}
		j.Status = domain.JobStatusPaused
		j.Message = "Paused by user"
		return nil
	})
}

// Resume lifts a pause. Same terminal-state precondition as Pause. A job
// paused before any runner picked it up (progress still 0) goes back to
// queued rather than processing, so claim-based workers can still find it.
func (s *Service) Resume(ctx context.Context, id string) (*domain.Job, error) {
	return s.store.Update(ctx, id, func(j *domain.Job) error {
		if j.Status.Terminal() {
			return domain.ErrJobFinished
		}
		if j.Progress == 0 {
			j.Status = domain.JobStatusQueued
			j.Message = "Task queued"
		} else {
			j.Status = domain.JobStatusProcessing
			j.Message = "Resuming task"
		}
		return nil
	})
}

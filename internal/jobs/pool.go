package jobs

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Pool runs jobs on a bounded set of in-process workers. Submissions beyond
// the bound stay queued until a slot frees up; the HTTP path never blocks
// on transcription work.
type Pool struct {
	runner *Runner
	sem    *semaphore.Weighted
	ctx    context.Context
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// NewPool creates a pool of the given size bound to ctx; cancelling ctx
// stops accepting new runs.
func NewPool(ctx context.Context, runner *Runner, size int, logger zerolog.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		runner: runner,
		sem:    semaphore.NewWeighted(int64(size)),
		ctx:    ctx,
		logger: logger,
	}
}

// Dispatch schedules the job and returns immediately. The job record stays
// queued until a worker slot picks it up.
func (p *Pool) Dispatch(jobID string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			p.logger.Warn().Str("job_id", jobID).Err(err).Msg("pool shutting down, job not started")
			return
		}
		defer p.sem.Release(1)
		p.runner.Run(p.ctx, jobID)
	}()
}

// Wait blocks until all dispatched jobs have finished or been abandoned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

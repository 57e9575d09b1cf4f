package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"transcript-tool/internal/domain"
	"transcript-tool/internal/engine"
	"transcript-tool/internal/infra"
	"transcript-tool/internal/jobs"
	"transcript-tool/internal/media"
	"transcript-tool/internal/store"
)

// jobWorker claims queued jobs from a shared durable store and runs them.
// Several worker processes can poll the same store; the claim is atomic so
// a job is picked up exactly once.
type jobWorker struct {
	ctx          context.Context
	store        domain.JobStore
	runner       *jobs.Runner
	logger       zerolog.Logger
	pollInterval time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if cfg.JobStore == infra.StoreMemory {
		logger.Fatal().Msg("worker: requires a durable job store (JOB_STORE=sqlite or postgres)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to open job store")
	}
	defer jobStore.Close()

	cache := engine.NewCache(engine.NewWhisperFactory(cfg.ModelDir), logger)
	runner := jobs.NewRunner(jobStore, cache, media.NewSegmenter(), logger, cfg.PausePollInterval)

	worker := &jobWorker{
		ctx:          ctx,
		store:        jobStore,
		runner:       runner,
		logger:       logger,
		pollInterval: cfg.WorkerPollInterval,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		job, err := w.store.Claim(w.ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNoJobAvailable) {
				w.sleep()
				continue
			}
			w.logger.Error().Err(err).Msg("worker: failed to claim job")
			w.sleep()
			continue
		}

		w.logger.Info().Str("job_id", job.ID).Str("model", job.Options.Model).Msg("worker: picked job")
		w.runner.Run(w.ctx, job.ID)
	}
}

func (w *jobWorker) sleep() {
	select {
	case <-w.ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func openStore(ctx context.Context, cfg *infra.Config) (domain.JobStore, error) {
	switch cfg.JobStore {
	case infra.StorePostgres:
		return store.OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return store.OpenSQLite(cfg.SQLitePath)
	}
}

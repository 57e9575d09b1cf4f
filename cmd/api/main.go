package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"transcript-tool/internal/domain"
	"transcript-tool/internal/engine"
	"transcript-tool/internal/http/handlers"
	"transcript-tool/internal/http/httpapi"
	"transcript-tool/internal/infra"
	"transcript-tool/internal/jobs"
	"transcript-tool/internal/media"
	"transcript-tool/internal/storage"
	"transcript-tool/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open job store")
	}
	defer jobStore.Close()

	workspace, err := storage.NewWorkspace(cfg.WorkDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare workspace")
	}

	// In local dispatch mode the API process runs transcriptions itself on
	// a bounded pool. In poll mode standalone workers claim queued jobs
	// from the store and the API only records submissions.
	var dispatcher jobs.Dispatcher
	var pool *jobs.Pool
	if cfg.DispatchMode == infra.DispatchLocal {
		cache := engine.NewCache(engine.NewWhisperFactory(cfg.ModelDir), logger)
		runner := jobs.NewRunner(jobStore, cache, media.NewSegmenter(), logger, cfg.PausePollInterval)
		pool = jobs.NewPool(ctx, runner, cfg.WorkerCount, logger)
		dispatcher = pool
	} else {
		dispatcher = jobs.NopDispatcher()
	}

	registry := jobs.NewService(jobStore, dispatcher)
	app := handlers.NewApp(registry, workspace, logger, cfg.ChunkSeconds)
	router := httpapi.NewRouter(app, logger, cfg.RateLimitPerMin)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Str("dispatch", cfg.DispatchMode).Msg("api listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if pool != nil {
		pool.Wait()
	}
	logger.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg *infra.Config) (domain.JobStore, error) {
	switch cfg.JobStore {
	case infra.StoreSQLite:
		return store.OpenSQLite(cfg.SQLitePath)
	case infra.StorePostgres:
		return store.OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return store.NewMemory(), nil
	}
}

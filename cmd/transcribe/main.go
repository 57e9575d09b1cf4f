package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"transcript-tool/internal/domain"
	"transcript-tool/internal/engine"
	"transcript-tool/internal/infra"
	"transcript-tool/internal/jobs"
	"transcript-tool/internal/media"
	"transcript-tool/internal/storage"
	"transcript-tool/internal/store"
)

// One-shot transcription without the HTTP service: submit a single file,
// run it to completion in-process, and print where the artifacts landed.
func main() {
	var (
		model        = flag.String("model", "medium", "whisper model to load")
		language     = flag.String("language", "", "source language hint (BCP 47 tag)")
		keepLanguage = flag.Bool("keep-source-language", false, "transcribe instead of translating to English")
		skipSubtitle = flag.Bool("skip-subtitle", false, "write only the transcript")
		device       = flag.String("device", "", "compute device (cpu, cuda)")
		chunkSeconds = flag.Int("chunk-seconds", 0, "audio chunk length (defaults to SEGMENT_LENGTH_SECONDS)")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <media file>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	inputFile := flag.Arg(0)

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fatal(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if *chunkSeconds <= 0 {
		*chunkSeconds = cfg.ChunkSeconds
	}

	workspace, err := storage.NewWorkspace(cfg.WorkDir)
	if err != nil {
		fatal(err)
	}

	src, err := os.Open(inputFile)
	if err != nil {
		fatal(err)
	}
	defer src.Close()

	jobStore := store.NewMemory()
	defer jobStore.Close()

	cache := engine.NewCache(engine.NewWhisperFactory(cfg.ModelDir), logger)
	runner := jobs.NewRunner(jobStore, cache, media.NewSegmenter(), logger, cfg.PausePollInterval)
	registry := jobs.NewService(jobStore, jobs.NopDispatcher())

	ctx := context.Background()
	jobID := fmt.Sprintf("cli-%d", time.Now().Unix())
	filename := filepath.Base(inputFile)

	inputPath, err := workspace.SaveUpload(jobID, filename, src)
	if err != nil {
		fatal(err)
	}
	transcriptPath, err := workspace.TranscriptPath(jobID, filename)
	if err != nil {
		fatal(err)
	}
	subtitlePath, subtitleName, err := workspace.SubtitlePath(jobID, filename)
	if err != nil {
		fatal(err)
	}

	job := &domain.Job{
		ID: jobID,
		Options: domain.Options{
			Model:              *model,
			KeepSourceLanguage: *keepLanguage,
			Language:           *language,
			Device:             *device,
			SkipSubtitle:       *skipSubtitle,
			BeamSize:           5,
			ChunkSeconds:       *chunkSeconds,
		},
		InputPath:        inputPath,
		TranscriptPath:   transcriptPath,
		SubtitlePath:     subtitlePath,
		SubtitleFilename: subtitleName,
		OriginalFilename: filename,
	}
	if _, err := registry.Submit(ctx, job); err != nil {
		fatal(err)
	}

	runner.Run(ctx, jobID)

	final, err := jobStore.Get(ctx, jobID)
	if err != nil {
		fatal(err)
	}
	if final.Status != domain.JobStatusCompleted {
		fatal(fmt.Errorf("transcription failed: %s", final.Message))
	}

	fmt.Println("transcript:", final.TranscriptPath)
	if final.SubtitleReady {
		fmt.Println("subtitle:  ", final.SubtitlePath)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

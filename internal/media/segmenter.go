package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Chunk describes one fixed-duration audio slice produced by Split. The
// final chunk of a file is usually shorter than the nominal duration.
type Chunk struct {
	Index    int
	Path     string
	Duration float64
}

// SplitResult owns the temporary directory holding the chunk files.
type SplitResult struct {
	Chunks  []Chunk
	tempDir string
}

// Cleanup removes the temporary chunk directory. Safe to call more than
// once; callers defer it on every path so partial artifacts never leak.
func (r *SplitResult) Cleanup() error {
	if r == nil || r.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(r.tempDir)
	r.tempDir = ""
	return err
}

// SegmentationError reports a failed external conversion with command
// context.
type SegmentationError struct {
	Message string
	Stderr  string
	Err     error
}

func (e *SegmentationError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("segmentation: %s: %s", e.Message, strings.TrimSpace(e.Stderr))
	}
	return "segmentation: " + e.Message
}

func (e *SegmentationError) Unwrap() error { return e.Err }

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

// Segmenter converts input media to mono 16 kHz WAV and slices it into
// consecutive chunks via ffmpeg.
type Segmenter struct {
	ffmpegPath string
	runner     commandRunner
	mkdirTemp  func(dir, pattern string) (string, error)
	probe      func(path string, nominal float64) float64
}

// NewSegmenter builds a production segmenter using the ffmpeg binary on
// PATH.
func NewSegmenter() *Segmenter {
	return &Segmenter{
		ffmpegPath: "ffmpeg",
		runner:     execRunner{},
		mkdirTemp:  os.MkdirTemp,
		probe:      probeWAVDuration,
	}
}

// Split converts inputPath and slices it into chunks of chunkSeconds. Each
// chunk's internal timestamps restart at zero. The caller owns the returned
// result and must Cleanup it.
func (s *Segmenter) Split(ctx context.Context, inputPath string, chunkSeconds int) (*SplitResult, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, &SegmentationError{Message: "input path is required"}
	}
	if chunkSeconds <= 0 {
		return nil, &SegmentationError{Message: fmt.Sprintf("invalid chunk duration %d", chunkSeconds)}
	}

	tempDir, err := s.mkdirTemp("", "transcript-audio-*")
	if err != nil {
		return nil, &SegmentationError{Message: "create temporary workspace", Err: err}
	}
	result := &SplitResult{tempDir: tempDir}

	args := buildSegmentArgs(inputPath, filepath.Join(tempDir, "segment_%04d.wav"), chunkSeconds)
	stderr, runErr := s.runner.Run(ctx, s.ffmpegPath, args...)
	if runErr != nil {
		_ = result.Cleanup()
		return nil, &SegmentationError{Message: "ffmpeg audio conversion failed", Stderr: stderr, Err: runErr}
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		_ = result.Cleanup()
		return nil, &SegmentationError{Message: "read chunk directory", Err: err}
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), "segment_") && strings.HasSuffix(entry.Name(), ".wav") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		_ = result.Cleanup()
		return nil, &SegmentationError{Message: "ffmpeg produced no audio chunks", Stderr: stderr}
	}
	sort.Strings(names)

	nominal := float64(chunkSeconds)
	for i, name := range names {
		path := filepath.Join(tempDir, name)
		result.Chunks = append(result.Chunks, Chunk{
			Index:    i,
			Path:     path,
			Duration: s.probe(path, nominal),
		})
	}
	return result, nil
}

// buildSegmentArgs constructs the ffmpeg invocation: downmix to one
// channel, resample to 16 kHz, and emit consecutive segments whose
// timestamps restart at zero.
func buildSegmentArgs(inputPath, template string, chunkSeconds int) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "segment",
		"-segment_time", strconv.Itoa(chunkSeconds),
		"-reset_timestamps", "1",
		template,
	}
}

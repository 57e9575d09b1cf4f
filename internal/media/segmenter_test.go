package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner records the invocation and optionally materializes chunk files
// the way ffmpeg's segment muxer would.
type fakeRunner struct {
	name       string
	args       []string
	chunkCount int
	stderr     string
	err        error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.name = name
	f.args = args
	if f.err != nil {
		return f.stderr, f.err
	}
	dir := filepath.Dir(args[len(args)-1])
	for i := 0; i < f.chunkCount; i++ {
		path := filepath.Join(dir, fmt.Sprintf("segment_%04d.wav", i))
		if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
			return "", err
		}
	}
	return f.stderr, nil
}

func newTestSegmenter(t *testing.T, runner commandRunner) (*Segmenter, *string) {
	t.Helper()
	var tempDir string
	s := &Segmenter{
		ffmpegPath: "ffmpeg",
		runner:     runner,
		mkdirTemp: func(dir, pattern string) (string, error) {
			tempDir = t.TempDir()
			return tempDir, nil
		},
		probe: func(path string, nominal float64) float64 { return nominal },
	}
	return s, &tempDir
}

func TestSplitProducesOrderedChunks(t *testing.T) {
	runner := &fakeRunner{chunkCount: 3}
	s, _ := newTestSegmenter(t, runner)

	result, err := s.Split(context.Background(), "input.mp4", 60)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	defer result.Cleanup()

	if len(result.Chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(result.Chunks))
	}
	for i, chunk := range result.Chunks {
		if chunk.Index != i {
			t.Errorf("chunk %d has index %d", i, chunk.Index)
		}
		if chunk.Duration != 60 {
			t.Errorf("chunk %d duration = %v, want 60", i, chunk.Duration)
		}
		want := fmt.Sprintf("segment_%04d.wav", i)
		if filepath.Base(chunk.Path) != want {
			t.Errorf("chunk %d path = %s, want %s", i, chunk.Path, want)
		}
	}
}

func TestSplitFFmpegArgs(t *testing.T) {
	runner := &fakeRunner{chunkCount: 1}
	s, _ := newTestSegmenter(t, runner)

	result, err := s.Split(context.Background(), "movie.mkv", 45)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	defer result.Cleanup()

	if runner.name != "ffmpeg" {
		t.Fatalf("ran %q, want ffmpeg", runner.name)
	}
	joined := strings.Join(runner.args, " ")
	for _, want := range []string{"-i movie.mkv", "-ac 1", "-ar 16000", "-f segment", "-segment_time 45", "-reset_timestamps 1"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}

func TestSplitFailsOnFFmpegError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1"), stderr: "invalid data"}
	s, tempDir := newTestSegmenter(t, runner)

	_, err := s.Split(context.Background(), "broken.mp4", 60)
	var segErr *SegmentationError
	if !errors.As(err, &segErr) {
		t.Fatalf("error = %v, want SegmentationError", err)
	}
	if segErr.Stderr != "invalid data" {
		t.Errorf("stderr = %q", segErr.Stderr)
	}
	assertRemoved(t, *tempDir)
}

func TestSplitFailsOnZeroChunks(t *testing.T) {
	runner := &fakeRunner{chunkCount: 0}
	s, tempDir := newTestSegmenter(t, runner)

	_, err := s.Split(context.Background(), "silent.mp4", 60)
	var segErr *SegmentationError
	if !errors.As(err, &segErr) {
		t.Fatalf("error = %v, want SegmentationError", err)
	}
	assertRemoved(t, *tempDir)
}

func TestSplitRejectsBadInputs(t *testing.T) {
	s, _ := newTestSegmenter(t, &fakeRunner{chunkCount: 1})
	if _, err := s.Split(context.Background(), "  ", 60); err == nil {
		t.Error("empty input path must fail")
	}
	if _, err := s.Split(context.Background(), "a.mp4", 0); err == nil {
		t.Error("zero chunk duration must fail")
	}
}

func TestCleanupIdempotent(t *testing.T) {
	runner := &fakeRunner{chunkCount: 1}
	s, tempDir := newTestSegmenter(t, runner)

	result, err := s.Split(context.Background(), "input.mp4", 60)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if err := result.Cleanup(); err != nil {
		t.Fatalf("first cleanup: %v", err)
	}
	if err := result.Cleanup(); err != nil {
		t.Fatalf("second cleanup: %v", err)
	}
	assertRemoved(t, *tempDir)
}

func assertRemoved(t *testing.T, dir string) {
	t.Helper()
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("temp dir %s still exists", dir)
	}
}

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWorkspaceCreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "work")
	w, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	for _, dir := range []string{"uploads", "outputs/transcripts", "outputs/subtitles"} {
		if _, err := os.Stat(filepath.Join(w.Root(), filepath.FromSlash(dir))); err != nil {
			t.Errorf("missing %s: %v", dir, err)
		}
	}
}

func TestSaveUpload(t *testing.T) {
	w, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	path, err := w.SaveUpload("job-1", "talk.mp4", strings.NewReader("media bytes"))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read upload: %v", err)
	}
	if string(data) != "media bytes" {
		t.Fatalf("upload content = %q", data)
	}
	if filepath.Base(filepath.Dir(path)) != "job-1" {
		t.Fatalf("upload not under job dir: %s", path)
	}
}

func TestSaveUploadSanitizesTraversal(t *testing.T) {
	w, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	path, err := w.SaveUpload("job-1", "../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if !strings.HasPrefix(path, filepath.Join(w.Root(), "uploads", "job-1")) {
		t.Fatalf("path escaped job dir: %s", path)
	}
	if filepath.Base(path) != "passwd" {
		t.Fatalf("unexpected filename: %s", path)
	}
}

func TestArtifactPaths(t *testing.T) {
	w, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	txt, err := w.TranscriptPath("job-9", "episode.mkv")
	if err != nil {
		t.Fatalf("TranscriptPath: %v", err)
	}
	if filepath.Base(txt) != "episode.txt" {
		t.Fatalf("transcript name = %s", txt)
	}

	srtPath, srtName, err := w.SubtitlePath("job-9", "episode.mkv")
	if err != nil {
		t.Fatalf("SubtitlePath: %v", err)
	}
	if srtName != "episode.srt" {
		t.Fatalf("subtitle name = %s", srtName)
	}
	if !strings.Contains(srtPath, filepath.Join("subtitles", "job-9")) {
		t.Fatalf("subtitle path = %s", srtPath)
	}
}

func TestSanitizeFilenameRejectsEmpty(t *testing.T) {
	w, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if _, err := w.SaveUpload("job-1", "  ", strings.NewReader("x")); err == nil {
		t.Fatal("blank filename must be rejected")
	}
}

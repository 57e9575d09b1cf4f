package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Workspace owns the on-disk layout for job inputs and artifacts:
//
//	<root>/uploads/<job-id>/<original filename>       uploaded media + transcript
//	<root>/outputs/subtitles/<job-id>/<name>.srt      subtitle artifacts
//
// Filenames are sanitized so an uploaded name can never escape the job
// directory.
type Workspace struct {
	root string
}

// NewWorkspace initializes the directory layout under root.
func NewWorkspace(root string) (*Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: work dir is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve work dir: %w", err)
	}
	for _, dir := range []string{
		abs,
		filepath.Join(abs, "uploads"),
		filepath.Join(abs, "outputs", "transcripts"),
		filepath.Join(abs, "outputs", "subtitles"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: ensure %s: %w", dir, err)
		}
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string { return w.root }

// SaveUpload streams an uploaded file into the job's upload directory and
// returns its absolute path.
func (w *Workspace) SaveUpload(jobID, filename string, r io.Reader) (string, error) {
	name, err := sanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(w.root, "uploads", jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure upload dir: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: create upload: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("storage: write upload: %w", err)
	}
	return path, nil
}

// TranscriptPath places the transcript next to the upload, with the
// extension swapped to .txt.
func (w *Workspace) TranscriptPath(jobID, filename string) (string, error) {
	name, err := sanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	return filepath.Join(w.root, "uploads", jobID, swapExt(name, ".txt")), nil
}

// SubtitlePath reserves the subtitle location for a job and returns both
// the absolute path and the bare filename.
func (w *Workspace) SubtitlePath(jobID, filename string) (string, string, error) {
	name, err := sanitizeFilename(filename)
	if err != nil {
		return "", "", err
	}
	dir := filepath.Join(w.root, "outputs", "subtitles", jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("storage: ensure subtitle dir: %w", err)
	}
	srtName := swapExt(name, ".srt")
	return filepath.Join(dir, srtName), srtName, nil
}

func swapExt(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// sanitizeFilename strips any path components from an uploaded name.
func sanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean(name))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", errors.New("storage: invalid filename")
	}
	return name, nil
}

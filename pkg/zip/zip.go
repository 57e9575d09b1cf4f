package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Artifact is one file to include in a job's output archive.
type Artifact struct {
	Filename string
	Data     []byte
}

// Archive packs the artifacts into an in-memory zip. Transcription outputs
// are small relative to the media they came from, so buffering the whole
// archive is fine.
func Archive(artifacts []Artifact) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, artifact := range artifacts {
		w, err := zw.Create(artifact.Filename)
		if err != nil {
			return nil, fmt.Errorf("zip: add %s: %w", artifact.Filename, err)
		}
		if _, err := w.Write(artifact.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", artifact.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: finalize: %w", err)
	}
	return buf.Bytes(), nil
}

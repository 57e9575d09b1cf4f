package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"transcript-tool/pkg/zip"
)

// Artifacts bundles every output a completed job produced (transcript and
// subtitle) into a single zip download.
func (a *App) Artifacts(w http.ResponseWriter, r *http.Request) {
	job, err := a.Registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}

	var artifacts []zip.Artifact
	for _, path := range []string{job.TranscriptPath, job.SubtitlePath} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		artifacts = append(artifacts, zip.Artifact{Filename: filepath.Base(path), Data: data})
	}
	if len(artifacts) == 0 {
		a.error(w, http.StatusNotFound, "not_ready", "no artifacts available")
		return
	}

	archive, err := zip.Archive(artifacts)
	if err != nil {
		a.Logger.Error().Err(err).Str("task_id", job.ID).Msg("failed to build archive")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+job.ID+`.zip"`)
	_, _ = w.Write(archive)
}

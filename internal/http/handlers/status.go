package handlers

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
)

// Status reports the current job record for polling clients.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	job, err := a.Registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, serializeStatus(job))
}

// Pause requests suspension at the next chunk boundary.
func (a *App) Pause(w http.ResponseWriter, r *http.Request) {
	job, err := a.Registry.Pause(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, serializeStatus(job))
}

// Resume lifts a pause.
func (a *App) Resume(w http.ResponseWriter, r *http.Request) {
	job, err := a.Registry.Resume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, serializeStatus(job))
}

// Download streams the subtitle artifact once the job has produced one.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	job, err := a.Registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.domainError(w, err)
		return
	}
	if !job.SubtitleReady || job.SubtitlePath == "" {
		a.error(w, http.StatusNotFound, "not_ready", "subtitle not available")
		return
	}
	if _, err := os.Stat(job.SubtitlePath); err != nil {
		a.Logger.Error().Err(err).Str("task_id", job.ID).Msg("subtitle file missing")
		a.error(w, http.StatusNotFound, "not_ready", "subtitle not available")
		return
	}
	w.Header().Set("Content-Type", "application/x-subrip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+job.SubtitleFilename+`"`)
	http.ServeFile(w, r, job.SubtitlePath)
}

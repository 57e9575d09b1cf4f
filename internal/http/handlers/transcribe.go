package handlers

import (
	"net/http"
	"os"
	"strconv"

	"github.com/google/uuid"

	"transcript-tool/internal/domain"
	"transcript-tool/internal/jobs"
)

// maxUploadBytes caps one submission at 4 GiB.
const maxUploadBytes = 4 << 30

// Transcribe accepts a multipart media upload, stages it in the workspace,
// creates a queued job, and dispatches it. The response carries only the
// task id; everything else is read from the status endpoint.
func (a *App) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "missing file")
		return
	}
	defer file.Close()

	opts := domain.Options{
		Model:              formValue(r, "model", "medium"),
		KeepSourceLanguage: formBool(r, "keep_source_language"),
		SkipSubtitle:       formBool(r, "skip_subtitle"),
		Language:           r.FormValue("language"),
		Device:             r.FormValue("device"),
		Temperature:        formFloat(r, "temperature", 0),
		BeamSize:           formInt(r, "beam_size", 5),
		ChunkSeconds:       a.ChunkSeconds,
	}
	if err := jobs.ValidateOptions(opts); err != nil {
		a.domainError(w, err)
		return
	}

	jobID := uuid.NewString()
	inputPath, err := a.Workspace.SaveUpload(jobID, header.Filename, file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid filename")
		return
	}
	transcriptPath, err := a.Workspace.TranscriptPath(jobID, header.Filename)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid filename")
		return
	}
	subtitlePath, subtitleName, err := a.Workspace.SubtitlePath(jobID, header.Filename)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid filename")
		return
	}

	job := &domain.Job{
		ID:               jobID,
		Options:          opts,
		InputPath:        inputPath,
		TranscriptPath:   transcriptPath,
		SubtitlePath:     subtitlePath,
		SubtitleFilename: subtitleName,
		OriginalFilename: header.Filename,
	}
	created, err := a.Registry.Submit(r.Context(), job)
	if err != nil {
		os.Remove(inputPath)
		a.domainError(w, err)
		return
	}

	a.Logger.Info().
		Str("task_id", created.ID).
		Str("model", opts.Model).
		Str("filename", header.Filename).
		Msg("task submitted")
	a.json(w, http.StatusOK, map[string]string{"task_id": created.ID})
}

func formValue(r *http.Request, key, fallback string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return fallback
}

func formBool(r *http.Request, key string) bool {
	switch r.FormValue(key) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func formInt(r *http.Request, key string, fallback int) int {
	if v := r.FormValue(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func formFloat(r *http.Request, key string, fallback float64) float64 {
	if v := r.FormValue(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

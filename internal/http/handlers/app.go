package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"transcript-tool/internal/domain"
	"transcript-tool/internal/jobs"
	"transcript-tool/internal/storage"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Registry     *jobs.Service
	Workspace    *storage.Workspace
	Logger       zerolog.Logger
	ChunkSeconds int
}

func NewApp(registry *jobs.Service, workspace *storage.Workspace, logger zerolog.Logger, chunkSeconds int) *App {
	return &App{
		Registry:     registry,
		Workspace:    workspace,
		Logger:       logger,
		ChunkSeconds: chunkSeconds,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{
		"error":   errCode,
		"message": message,
	})
}

// domainError maps registry errors onto the control-surface status codes.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "task not found")
	case errors.Is(err, domain.ErrJobFinished):
		a.error(w, http.StatusConflict, "finished", "task already finished")
	case errors.Is(err, domain.ErrInvalidOptions):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// statusPayload is the polling contract. Consumers must tolerate unknown
// additional fields.
type statusPayload struct {
	TaskID           string `json:"task_id"`
	Status           string `json:"status"`
	Progress         int    `json:"progress"`
	Message          string `json:"message"`
	Paused           bool   `json:"paused"`
	SubtitleReady    bool   `json:"subtitle_ready"`
	SubtitleFilename string `json:"subtitle_filename,omitempty"`
	SubtitleURL      string `json:"subtitle_url,omitempty"`
	Model            string `json:"model,omitempty"`
}

func serializeStatus(job *domain.Job) statusPayload {
	p := statusPayload{
		TaskID:        job.ID,
		Status:        string(job.Status),
		Progress:      job.Progress,
		Message:       job.Message,
		Paused:        job.Status == domain.JobStatusPaused,
		SubtitleReady: job.SubtitleReady,
		Model:         job.Options.Model,
	}
	if job.SubtitleReady {
		p.SubtitleFilename = job.SubtitleFilename
		p.SubtitleURL = "/api/download/" + job.ID
	}
	return p
}

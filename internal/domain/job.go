package domain

import "time"

// JobStatus enumerates transcription job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusPaused     JobStatus = "paused"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether a status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}

// Options is the immutable parameter snapshot captured at submission time.
type Options struct {
	Model              string  `json:"model"`
	KeepSourceLanguage bool    `json:"keep_source_language"`
	Language           string  `json:"language,omitempty"`
	Device             string  `json:"device,omitempty"`
	Temperature        float64 `json:"temperature"`
	BeamSize           int     `json:"beam_size"`
	ChunkSeconds       int     `json:"chunk_seconds"`
	SkipSubtitle       bool    `json:"skip_subtitle"`
}

// Task maps the language mode onto the engine task name.
func (o Options) Task() string {
	if o.KeepSourceLanguage {
		return "transcribe"
	}
	return "translate"
}

// Job tracks one end-to-end transcription request through its state machine.
// Status, progress, message and subtitle readiness are mutated by the
// orchestrator; pause and resume requests flip the status from the control
// surface. Everything else is fixed at creation.
type Job struct {
	ID               string    `json:"id"`
	Status           JobStatus `json:"status"`
	Progress         int       `json:"progress"`
	Message          string    `json:"message"`
	Options          Options   `json:"options"`
	InputPath        string    `json:"input_path"`
	TranscriptPath   string    `json:"transcript_path"`
	SubtitlePath     string    `json:"subtitle_path,omitempty"`
	SubtitleFilename string    `json:"subtitle_filename,omitempty"`
	OriginalFilename string    `json:"original_filename"`
	SubtitleReady    bool      `json:"subtitle_ready"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

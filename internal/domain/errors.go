package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidOptions  = errors.New("invalid options")
	ErrJobFinished     = errors.New("job already finished")
	ErrNoJobAvailable  = errors.New("no job available")
	ErrEmptyTranscript = errors.New("transcription produced no text")
)

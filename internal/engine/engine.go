package engine

import (
	"context"
	"errors"
)

// ErrUnsupportedCompute marks a construction failure caused specifically by
// a compute type the device cannot run. The cache retries these once with
// the float32 fallback; any other construction error propagates unchanged.
var ErrUnsupportedCompute = errors.New("unsupported compute type")

// Span is one timed text result, relative to the start of the audio chunk
// the engine was given.
type Span struct {
	Start float64
	End   float64
	Text  string
}

// Info carries per-call engine metadata.
type Info struct {
	Language string
	Duration float64
}

// Params tunes a single transcription call. Language is a hint; empty
// means autodetect.
type Params struct {
	Task        string
	Language    string
	BeamSize    int
	Temperature float64
}

// Engine transcribes one mono 16 kHz audio file and returns its spans in
// temporal order. Implementations are shared across jobs and must be safe
// for concurrent use.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string, params Params) ([]Span, Info, error)
}

// Factory constructs an engine for a (model, device, computeType) triple.
// Construction is expensive; the cache ensures it happens at most once per
// key for the process lifetime.
type Factory func(model, device, computeType string) (Engine, error)

// ResolveComputeType picks the default numeric mode for a device.
func ResolveComputeType(device string) string {
	switch device {
	case "cuda":
		return "float16"
	case "cpu":
		return "int8"
	default:
		return "auto"
	}
}

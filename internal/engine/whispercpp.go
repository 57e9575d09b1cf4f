//go:build whisper_cpp

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	whisperpkg "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/wav"
)

// whisperEngine wraps a loaded whisper.cpp model. Model contexts are not
// safe for concurrent use, so calls are serialized per instance.
type whisperEngine struct {
	model     whisperpkg.Model
	translate bool
	threads   uint
	mu        sync.Mutex
}

// NewWhisperFactory returns a Factory that loads ggml models from modelDir
// (files named ggml-<model>.bin). whisper.cpp runs models in their stored
// precision, so only the "auto" and "float32" compute types are honored;
// anything else reports ErrUnsupportedCompute and lets the cache fall back.
func NewWhisperFactory(modelDir string) Factory {
	return func(model, device, computeType string) (Engine, error) {
		switch computeType {
		case "", "auto", "float32":
		default:
			return nil, fmt.Errorf("whisper.cpp cannot run %s on %s: %w", computeType, device, ErrUnsupportedCompute)
		}
		path := filepath.Join(modelDir, "ggml-"+model+".bin")
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("model file %s: %w", path, err)
		}
		m, err := whisperpkg.New(path)
		if err != nil {
			return nil, fmt.Errorf("load model %s: %w", path, err)
		}
		return &whisperEngine{model: m, threads: uint(runtime.NumCPU())}, nil
	}
}

func (e *whisperEngine) Transcribe(ctx context.Context, audioPath string, params Params) ([]Span, Info, error) {
	samples, err := readWAVSamples(audioPath)
	if err != nil {
		return nil, Info{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Info{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	wctx, err := e.model.NewContext()
	if err != nil {
		return nil, Info{}, fmt.Errorf("create whisper context: %w", err)
	}
	wctx.SetThreads(e.threads)
	wctx.SetTranslate(params.Task == "translate")
	if params.BeamSize > 0 {
		wctx.SetBeamSize(params.BeamSize)
	}
	lang := params.Language
	if lang == "" {
		lang = "auto"
	}
	_ = wctx.SetLanguage(lang)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, Info{}, fmt.Errorf("process audio: %w", err)
	}

	var spans []Span
	for {
		seg, err := wctx.NextSegment()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, Info{}, fmt.Errorf("read segment: %w", err)
		}
		spans = append(spans, Span{
			Start: seg.Start.Seconds(),
			End:   seg.End.Seconds(),
			Text:  strings.TrimSpace(seg.Text),
		})
	}

	info := Info{
		Language: wctx.DetectedLanguage(),
		Duration: float64(len(samples)) / 16000.0,
	}
	return spans, info, nil
}

// readWAVSamples loads a mono 16 kHz PCM file into normalized float32
// samples, the input format whisper.cpp expects.
func readWAVSamples(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("empty wav file: %s", path)
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (bitDepth - 1))
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / scale
	}
	return out, nil
}

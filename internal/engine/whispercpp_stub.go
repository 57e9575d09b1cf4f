//go:build !whisper_cpp

package engine

import "errors"

// NewWhisperFactory is the no-cgo placeholder. Builds without the
// whisper_cpp tag cannot construct a real engine; jobs submitted against
// this factory end in an error record with this message.
func NewWhisperFactory(modelDir string) Factory {
	return func(model, device, computeType string) (Engine, error) {
		return nil, errors.New("binary built without whisper_cpp support")
	}
}

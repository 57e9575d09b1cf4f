package media

import (
	"os"

	"github.com/go-audio/wav"
)

// probeWAVDuration reads the WAV header to report a chunk's actual playable
// duration. ffmpeg pads nothing, so every chunk but the last matches the
// nominal duration; the last one is usually shorter. Falls back to the
// nominal value when the header cannot be read.
func probeWAVDuration(path string, nominal float64) float64 {
	f, err := os.Open(path)
	if err != nil {
		return nominal
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nominal
	}
	d, err := dec.Duration()
	if err != nil || d <= 0 {
		return nominal
	}
	return d.Seconds()
}

package domain

// WhisperModels lists the model sizes accepted at submission time.
var WhisperModels = []string{
	"tiny",
	"base",
	"small",
	"medium",
	"large",
	"large-v2",
	"large-v3",
}

// IsSupportedModel reports whether name is a known whisper model size.
func IsSupportedModel(name string) bool {
	for _, m := range WhisperModels {
		if m == name {
			return true
		}
	}
	return false
}

package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"transcript-tool/internal/domain"
)

// Segment is one timed span of transcribed text on the original file's
// timeline.
type Segment struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// FormatTimestamp converts seconds to an SRT timestamp (HH:MM:SS,mmm).
// Rounding happens once at millisecond precision so 1.2345 becomes
// 00:00:01,235 rather than truncating.
func FormatTimestamp(seconds float64) string {
	total := int64(math.Round(seconds * 1000))
	hours := total / 3_600_000
	remainder := total % 3_600_000
	minutes := remainder / 60_000
	remainder %= 60_000
	secs := remainder / 1000
	millis := remainder % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// Document renders segments as SRT subtitle content. Cues are renumbered
// sequentially from 1; segments whose text is blank are dropped and do not
// consume a cue number. Returns the empty string when nothing survives,
// otherwise the document ends with exactly one trailing newline.
func Document(segments []Segment) string {
	var lines []string
	cue := 0
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		cue++
		lines = append(lines,
			strconv.Itoa(cue),
			FormatTimestamp(seg.Start)+" --> "+FormatTimestamp(seg.End),
			text,
			"",
		)
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}

// Transcript joins segment texts with newlines, trimmed of surrounding
// whitespace. Returns domain.ErrEmptyTranscript when no segment carries text.
func Transcript(segments []Segment) (string, error) {
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}
	out := strings.TrimSpace(strings.Join(texts, "\n"))
	if out == "" {
		return "", domain.ErrEmptyTranscript
	}
	return out, nil
}

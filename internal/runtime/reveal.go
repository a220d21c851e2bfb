package runtime

import (
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

const (
	// DefaultChunkSize is the number of whitespace-delimited tokens added per frame.
	DefaultChunkSize = 5
	// CursorMarker is appended to every frame but the last.
	CursorMarker = " |"
)

// Reveal splits the step narrative into cumulative frames of DefaultChunkSize tokens.
func Reveal(step domain.Step) []domain.RevealFrame {
	return RevealN(step, DefaultChunkSize)
}

// RevealN splits summary and detail into groups of size tokens and returns one
// frame per group, each holding the text revealed so far. Detail is separated
// from the summary by a blank line. A step with no tokens yields no frames.
func RevealN(step domain.Step, size int) []domain.RevealFrame {
	if size < 1 {
		size = DefaultChunkSize
	}

	summary := strings.Fields(step.Summary)
	detail := strings.Fields(step.Detail)
	total := len(summary) + len(detail)
	if total == 0 {
		return nil
	}

	token := func(i int) (string, string) {
		switch {
		case i == 0:
			if len(summary) > 0 {
				return "", summary[0]
			}
			return "", detail[0]
		case i < len(summary):
			return " ", summary[i]
		case i == len(summary):
			return "\n\n", detail[0]
		default:
			return " ", detail[i-len(summary)]
		}
	}

	frames := make([]domain.RevealFrame, 0, (total+size-1)/size)
	var b strings.Builder
	for start := 0; start < total; start += size {
		end := min(start+size, total)
		for i := start; i < end; i++ {
			sep, word := token(i)
			b.WriteString(sep)
			b.WriteString(word)
		}

		final := end == total
		text := b.String()
		if !final {
			text += CursorMarker
		}
		frames = append(frames, domain.RevealFrame{
			Text:    text,
			IsFinal: final,
			Seq:     len(frames),
		})
	}
	return frames
}

// FullText is the text of the final frame of a step, used when the view is
// rendered without animation.
func FullText(step domain.Step) string {
	frames := Reveal(step)
	if len(frames) == 0 {
		return ""
	}
	return frames[len(frames)-1].Text
}

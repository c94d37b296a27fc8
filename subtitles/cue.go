package subtitles

import (
	"strings"
	"time"
)

// Cue is a single timed subtitle entry.
type Cue struct {
	// Start is the inclusive start of the cue.
	Start time.Duration `json:"start"`
	// End is the exclusive end of the cue.
	End time.Duration `json:"end"`
	// Text is the displayed text, lines separated by "\n".
	Text string `json:"text"`
}

// Overlaps reports whether the half-open intervals of a and b intersect.
// Touching endpoints do not overlap.
func Overlaps(a, b Cue) bool {
	return !(a.End <= b.Start || a.Start >= b.End)
}

type cueKey struct {
	start time.Duration
	end   time.Duration
	text  string
}

func (c Cue) key() cueKey {
	return cueKey{start: c.Start, end: c.End, text: strings.TrimSpace(c.Text)}
}

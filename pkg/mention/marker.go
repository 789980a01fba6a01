package mention

import "strings"

// DefaultMarkers is the ordered candidate set used when a template does not
// force a marker. Every entry is a single UTF-16 code unit so the fixed
// length-1 entity math downstream stays valid.
var DefaultMarkers = []string{
	"​", // ZERO WIDTH SPACE
	"‌", // ZERO WIDTH NON-JOINER
	"‍", // ZERO WIDTH JOINER
	"⁠", // WORD JOINER
	"\uFEFF", // ZERO WIDTH NO-BREAK SPACE
}

// fallbackMarker is used when the candidate list is empty.
const fallbackMarker = "​"

// SelectMarker returns the first candidate that is a single UTF-16 code unit
// and does not occur in any non-empty string in avoid.
//
// Candidates longer than one code unit are skipped. If every well-formed
// candidate collides, the first well-formed one is returned anyway; the
// batcher re-checks for collisions and turns that case into a hard error.
// An empty candidate list falls back to a zero-width space.
func SelectMarker(candidates []string, avoid ...string) string {
	first := ""
	for _, c := range candidates {
		if utf16Len(c) != 1 {
			continue
		}
		if first == "" {
			first = c
		}
		if !occursIn(c, avoid) {
			return c
		}
	}
	if first != "" {
		return first
	}
	return fallbackMarker
}

func occursIn(marker string, texts []string) bool {
	for _, t := range texts {
		if t == "" {
			continue
		}
		if strings.Contains(t, marker) {
			return true
		}
	}
	return false
}

package mention

import "strings"

// ResolveAnchor returns the UTF-16 code-unit index in message at which the
// marker run is inserted. The result is always within [0, len(message)] in
// code units.
//
// Resolution order, first match wins:
//  1. rules.Index set: insert immediately after it, clamped into bounds.
//  2. rules.Chars non-empty: reverse scan, rightmost occurrence wins;
//     insertion lands before or after it per rules.Placement.
//  3. rules.Legacy set: same reverse scan with the predicate.
//  4. Otherwise rules.Fallback: 0 for start, message length for end.
//
// The reverse scan attaches mentions near the last relevant anchor (end of
// the last sentence) without indexing every match.
func ResolveAnchor(message string, rules AnchorRules) int {
	length := utf16Len(message)

	if rules.Index != nil {
		idx := *rules.Index + 1
		if idx < 0 {
			idx = 0
		}
		if idx > length {
			idx = length
		}
		return idx
	}

	match := func(r rune) bool { return strings.ContainsRune(rules.Chars, r) }
	if rules.Chars == "" {
		match = rules.Legacy
	}

	if match != nil {
		runes := []rune(message)
		end := length
		for i := len(runes) - 1; i >= 0; i-- {
			w := 1
			if runes[i] >= 0x10000 {
				w = 2
			}
			end -= w
			if !match(runes[i]) {
				continue
			}
			if rules.Placement == PlaceBefore {
				return end
			}
			return end + w
		}
	}

	if rules.Fallback == FallbackStart {
		return 0
	}
	return length
}

package mention

import "unicode/utf16"

// TextLen returns the length of s in UTF-16 code units, the unit Telegram
// uses for entity offsets and the message length limit.
func TextLen(s string) int { return utf16Len(s) }

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// utf16Units encodes s as UTF-16 code units.
func utf16Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// utf16Slice returns the substring of s covering code units [from, to).
// Bounds are clamped to the valid range.
func utf16Slice(s string, from, to int) string {
	u := utf16Units(s)
	if from < 0 {
		from = 0
	}
	if to > len(u) {
		to = len(u)
	}
	if from > to {
		from = to
	}
	return string(utf16.Decode(u[from:to]))
}

package mention

import (
	"fmt"
	"strings"
)

// BuildPayloads splits recipients into one or more payloads for chat,
// honoring both limits. Every recipient lands in exactly one payload, in
// input order. An empty recipient list yields no payloads and no error.
//
// The call either produces the full plan or fails before returning any
// payload; there is no partial result.
func BuildPayloads(chat Chat, recipients []int64, tmpl Template, limits Limits) ([]Payload, error) {
	lim, err := limits.normalized()
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	switch t := tmpl.(type) {
	case FixedAffix:
		return buildAffixed(chat, recipients, t, lim)
	case Anchored:
		return buildAnchored(chat, recipients, t, lim)
	default:
		return nil, fmt.Errorf("mention: unsupported template %T", tmpl)
	}
}

func buildAffixed(chat Chat, recipients []int64, t FixedAffix, lim Limits) ([]Payload, error) {
	marker, err := pickMarker(t.Marker, t.MarkerCandidates, t.Prefix, t.Suffix)
	if err != nil {
		return nil, err
	}

	prefixLen := utf16Len(t.Prefix)
	capacity := lim.MaxTextLen - prefixLen - utf16Len(t.Suffix)
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: prefix and suffix fill the %d code-unit limit", ErrCapacity, lim.MaxTextLen)
	}

	var out []Payload
	for cursor := 0; cursor < len(recipients); {
		take, err := batchSize(len(recipients)-cursor, capacity, lim)
		if err != nil {
			return nil, err
		}
		batch := recipients[cursor : cursor+take]
		cursor += take

		text := t.Prefix + strings.Repeat(marker, take) + t.Suffix
		mentions, err := zipMentions(prefixLen, batch)
		if err != nil {
			return nil, err
		}
		if got := utf16Len(text); got > lim.MaxTextLen {
			return nil, fmt.Errorf("mention: assembled text is %d code units, limit %d", got, lim.MaxTextLen)
		}
		out = append(out, Payload{Chat: chat, Text: text, Mentions: mentions})
	}
	return out, nil
}

func buildAnchored(chat Chat, recipients []int64, t Anchored, lim Limits) ([]Payload, error) {
	marker, err := pickMarker(t.Marker, t.MarkerCandidates, t.Base)
	if err != nil {
		return nil, err
	}

	anchor := ResolveAnchor(t.Base, t.Anchor)
	leading, trailing := "", ""
	if t.OwnLine {
		leading = "\n"
	}
	if t.TrailingBreak {
		trailing = "\n"
	}

	baseLen := utf16Len(t.Base) + utf16Len(leading) + utf16Len(trailing)
	capacity := lim.MaxTextLen - baseLen
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: padded message is %d code units, limit %d", ErrCapacity, baseLen, lim.MaxTextLen)
	}

	head := utf16Slice(t.Base, 0, anchor)
	tail := utf16Slice(t.Base, anchor, utf16Len(t.Base))

	var out []Payload
	for cursor := 0; cursor < len(recipients); {
		take, err := batchSize(len(recipients)-cursor, capacity, lim)
		if err != nil {
			return nil, err
		}
		batch := recipients[cursor : cursor+take]
		cursor += take

		text := head + leading + strings.Repeat(marker, take) + trailing + tail
		mentions, err := zipMentions(anchor+utf16Len(leading), batch)
		if err != nil {
			return nil, err
		}
		if got := utf16Len(text); got > lim.MaxTextLen {
			return nil, fmt.Errorf("mention: assembled text is %d code units, limit %d", got, lim.MaxTextLen)
		}
		out = append(out, Payload{Chat: chat, Text: text, Mentions: mentions})
	}
	return out, nil
}

// pickMarker selects (or validates a forced) marker and enforces the
// non-collision invariant against every text the marker will sit next to.
func pickMarker(forced string, candidates []string, avoid ...string) (string, error) {
	marker := forced
	if marker == "" {
		if len(candidates) == 0 {
			candidates = DefaultMarkers
		}
		marker = SelectMarker(candidates, avoid...)
	}
	if utf16Len(marker) != 1 {
		return "", fmt.Errorf("mention: marker %q is not a single code unit", marker)
	}
	if occursIn(marker, avoid) {
		return "", fmt.Errorf("%w: %q", ErrMarkerCollision, marker)
	}
	return marker, nil
}

// batchSize returns how many of the remaining recipients go into the next
// payload. Splitting on the per-message count cap is always allowed; having
// to split further on the character capacity is an overflow under the error
// policy.
func batchSize(remaining, capacity int, lim Limits) (int, error) {
	want := remaining
	if want > lim.MaxRecipients {
		want = lim.MaxRecipients
	}
	if capacity >= want {
		return want, nil
	}
	if lim.Overflow == OverflowError {
		return 0, fmt.Errorf("%w: %d recipients need %d payloads under the %d code-unit limit",
			ErrOverflow, remaining, (remaining+capacity-1)/capacity, lim.MaxTextLen)
	}
	return capacity, nil
}

// zipMentions pairs consecutive offsets starting at start with recipients.
// The count check guards against internal drift between the two lists; it
// can only fire on a programming defect, never on valid input.
func zipMentions(start int, recipients []int64) ([]Mention, error) {
	offsets := make([]int, 0, len(recipients))
	for i := range recipients {
		offsets = append(offsets, start+i)
	}
	if len(offsets) != len(recipients) {
		return nil, ErrArityMismatch
	}
	mentions := make([]Mention, len(recipients))
	for i, id := range recipients {
		mentions[i] = Mention{Offset: offsets[i], Length: 1, UserID: id}
	}
	return mentions, nil
}

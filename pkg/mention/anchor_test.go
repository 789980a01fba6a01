package mention

import (
	"testing"
	"unicode"
)

func intp(v int) *int { return &v }

func TestResolveAnchorExplicitIndex(t *testing.T) {
	msg := "hello"
	tests := []struct {
		name  string
		index int
		want  int
	}{
		{"mid", 1, 2},
		{"negative clamps to start", -10, 0},
		{"past end clamps to length", 99, 5},
		{"last char", 4, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveAnchor(msg, AnchorRules{Index: intp(tc.index)})
			if got != tc.want {
				t.Fatalf("index %d: expected %d, got %d", tc.index, tc.want, got)
			}
		})
	}
}

func TestResolveAnchorRightmostCharWins(t *testing.T) {
	msg := "one! two! three"
	got := ResolveAnchor(msg, AnchorRules{Chars: "!"})
	if got != 9 {
		t.Fatalf("expected insertion after second '!', got %d", got)
	}
	got = ResolveAnchor(msg, AnchorRules{Chars: "!", Placement: PlaceBefore})
	if got != 8 {
		t.Fatalf("expected insertion before second '!', got %d", got)
	}
}

func TestResolveAnchorCountsUTF16Units(t *testing.T) {
	// The emoji occupies two code units; the '!' after it sits at unit 5.
	msg := "Hi \U0001F600!"
	got := ResolveAnchor(msg, AnchorRules{Chars: "!"})
	if got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}
	got = ResolveAnchor(msg, AnchorRules{Chars: "!", Placement: PlaceBefore})
	if got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestResolveAnchorLegacyPredicate(t *testing.T) {
	msg := "done. next"
	got := ResolveAnchor(msg, AnchorRules{Legacy: func(r rune) bool { return unicode.IsPunct(r) }})
	if got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestResolveAnchorFallback(t *testing.T) {
	msg := "no anchors here"
	if got := ResolveAnchor(msg, AnchorRules{Chars: "!"}); got != utf16Len(msg) {
		t.Fatalf("expected end fallback %d, got %d", utf16Len(msg), got)
	}
	if got := ResolveAnchor(msg, AnchorRules{Chars: "!", Fallback: FallbackStart}); got != 0 {
		t.Fatalf("expected start fallback, got %d", got)
	}
	if got := ResolveAnchor("", AnchorRules{}); got != 0 {
		t.Fatalf("empty message: expected 0, got %d", got)
	}
}

func TestResolveAnchorIdempotent(t *testing.T) {
	msg := "Meeting starts at 10:00!"
	rules := AnchorRules{Chars: "!"}
	first := ResolveAnchor(msg, rules)
	second := ResolveAnchor(msg, rules)
	if first != second {
		t.Fatalf("resolution not idempotent: %d vs %d", first, second)
	}
}

package mention

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func ids(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i + 1)
	}
	return out
}

func TestBuildPayloadsFixedAffix(t *testing.T) {
	got, err := BuildPayloads(Chat{ID: 1}, ids(3), FixedAffix{Prefix: "A", Suffix: "B"}, Limits{})
	if err != nil {
		t.Fatalf("BuildPayloads: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(got))
	}
	p := got[0]
	if utf16Len(p.Text) != 5 {
		t.Fatalf("expected text length 5, got %d", utf16Len(p.Text))
	}
	if !strings.HasPrefix(p.Text, "A") || !strings.HasSuffix(p.Text, "B") {
		t.Fatalf("affixes lost: %q", p.Text)
	}
	for i, m := range p.Mentions {
		if m.Offset != i+1 || m.Length != 1 || m.UserID != int64(i+1) {
			t.Fatalf("mention %d wrong: %+v", i, m)
		}
	}
}

func TestBuildPayloadsAnchored(t *testing.T) {
	tmpl := Anchored{Base: "Meeting starts at 10:00!", Anchor: AnchorRules{Chars: "!"}}
	got, err := BuildPayloads(Chat{ID: 1}, ids(2), tmpl, Limits{})
	if err != nil {
		t.Fatalf("BuildPayloads: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(got))
	}
	p := got[0]
	bang := utf16Len("Meeting starts at 10:00!") - 1
	if p.Mentions[0].Offset != bang+1 || p.Mentions[1].Offset != bang+2 {
		t.Fatalf("expected offsets %d and %d, got %d and %d",
			bang+1, bang+2, p.Mentions[0].Offset, p.Mentions[1].Offset)
	}
	if !strings.HasPrefix(p.Text, "Meeting starts at 10:00!") {
		t.Fatalf("marker run not inserted after the bang: %q", p.Text)
	}
}

func TestBuildPayloadsAnchoredPadding(t *testing.T) {
	tmpl := Anchored{
		Base:          "body",
		Anchor:        AnchorRules{},
		OwnLine:       true,
		TrailingBreak: true,
	}
	got, err := BuildPayloads(Chat{ID: 1}, ids(2), tmpl, Limits{})
	if err != nil {
		t.Fatalf("BuildPayloads: %v", err)
	}
	p := got[0]
	// body(4) + "\n" + 2 markers + "\n"
	if utf16Len(p.Text) != 8 {
		t.Fatalf("expected text length 8, got %d", utf16Len(p.Text))
	}
	// Leading break shifts the first offset past the anchor.
	if p.Mentions[0].Offset != 5 || p.Mentions[1].Offset != 6 {
		t.Fatalf("unexpected offsets: %d, %d", p.Mentions[0].Offset, p.Mentions[1].Offset)
	}
}

func TestBuildPayloadsCountCapSplit(t *testing.T) {
	got, err := BuildPayloads(Chat{ID: 1}, ids(250), FixedAffix{Prefix: "cc:"}, Limits{MaxRecipients: 100})
	if err != nil {
		t.Fatalf("BuildPayloads: %v", err)
	}
	sizes := []int{100, 100, 50}
	if len(got) != len(sizes) {
		t.Fatalf("expected %d payloads, got %d", len(sizes), len(got))
	}
	var seen []int64
	for i, p := range got {
		if len(p.Mentions) != sizes[i] {
			t.Fatalf("payload %d: expected %d mentions, got %d", i, sizes[i], len(p.Mentions))
		}
		if utf16Len(p.Text) > 4096 {
			t.Fatalf("payload %d exceeds text limit", i)
		}
		for _, m := range p.Mentions {
			seen = append(seen, m.UserID)
		}
	}
	want := ids(250)
	if len(seen) != len(want) {
		t.Fatalf("coverage lost: %d of %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("recipient order broken at %d: %d != %d", i, seen[i], want[i])
		}
	}
}

func TestBuildPayloadsLengthCapSplit(t *testing.T) {
	// Capacity is 10 markers per message; the count cap is far higher.
	lim := Limits{MaxRecipients: 100, MaxTextLen: 10}
	got, err := BuildPayloads(Chat{ID: 1}, ids(25), FixedAffix{}, lim)
	if err != nil {
		t.Fatalf("BuildPayloads: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(got))
	}
	for i, p := range got {
		if utf16Len(p.Text) > 10 {
			t.Fatalf("payload %d: %d code units for a 10 unit cap", i, utf16Len(p.Text))
		}
	}
	if len(got[2].Mentions) != 5 {
		t.Fatalf("expected 5 mentions in the last payload, got %d", len(got[2].Mentions))
	}
}

func TestBuildPayloadsCapacityError(t *testing.T) {
	lim := Limits{MaxTextLen: 8}
	tmpl := FixedAffix{Prefix: "toolong!", Suffix: ""}
	_, err := BuildPayloads(Chat{ID: 1}, ids(1), tmpl, lim)
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
}

func TestBuildPayloadsOverflowPolicy(t *testing.T) {
	lim := Limits{MaxTextLen: 10, Overflow: OverflowError}
	got, err := BuildPayloads(Chat{ID: 1}, ids(25), FixedAffix{}, lim)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected zero payloads on overflow, got %d", len(got))
	}
}

func TestBuildPayloadsOverflowAllowsCountSplit(t *testing.T) {
	// Splitting on the per-message count cap alone is not an overflow.
	lim := Limits{MaxRecipients: 2, Overflow: OverflowError}
	got, err := BuildPayloads(Chat{ID: 1}, ids(5), FixedAffix{Prefix: "cc:"}, lim)
	if err != nil {
		t.Fatalf("BuildPayloads: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(got))
	}
}

func TestBuildPayloadsMarkerCollision(t *testing.T) {
	tmpl := FixedAffix{Prefix: "x​x", Marker: "​"}
	_, err := BuildPayloads(Chat{ID: 1}, ids(1), tmpl, Limits{})
	if !errors.Is(err, ErrMarkerCollision) {
		t.Fatalf("expected ErrMarkerCollision, got %v", err)
	}
}

func TestBuildPayloadsAvoidsMarkerInBase(t *testing.T) {
	tmpl := Anchored{Base: "pre​post"}
	got, err := BuildPayloads(Chat{ID: 1}, ids(1), tmpl, Limits{})
	if err != nil {
		t.Fatalf("BuildPayloads: %v", err)
	}
	if strings.Contains(got[0].Text, "‌") == false {
		t.Fatalf("expected the selector to fall through to U+200C: %q", got[0].Text)
	}
}

func TestBuildPayloadsEmptyRecipients(t *testing.T) {
	got, err := BuildPayloads(Chat{ID: 1}, nil, FixedAffix{Prefix: "hi"}, Limits{})
	if err != nil {
		t.Fatalf("BuildPayloads: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no payloads, got %d", len(got))
	}
}

func TestBuildPayloadsUnknownPolicy(t *testing.T) {
	_, err := BuildPayloads(Chat{ID: 1}, ids(1), FixedAffix{}, Limits{Overflow: "explode"})
	if !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}

func TestTemplateSpecRejectsMixedModes(t *testing.T) {
	spec := TemplateSpec{Prefix: "hi", Message: "body"}
	_, err := spec.Template()
	if !errors.Is(err, ErrMixedTemplate) {
		t.Fatalf("expected ErrMixedTemplate, got %v", err)
	}
}

func TestTemplateSpecModes(t *testing.T) {
	tmpl, err := TemplateSpec{Prefix: "cc:"}.Template()
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if _, ok := tmpl.(FixedAffix); !ok {
		t.Fatalf("expected FixedAffix, got %T", tmpl)
	}

	tmpl, err = TemplateSpec{Message: "body", AnchorChars: "!", Placement: "before", Fallback: "start"}.Template()
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	a, ok := tmpl.(Anchored)
	if !ok {
		t.Fatalf("expected Anchored, got %T", tmpl)
	}
	if a.Anchor.Placement != PlaceBefore || a.Anchor.Fallback != FallbackStart {
		t.Fatalf("rules not carried over: %+v", a.Anchor)
	}

	if _, err := (TemplateSpec{Message: "body", Placement: "sideways"}).Template(); err == nil {
		t.Fatalf("expected error for unknown placement")
	}
}

func TestPayloadJSONShape(t *testing.T) {
	p := Payload{
		Chat:     Chat{ID: -100123},
		Text:     "A​B",
		Mentions: []Mention{{Offset: 1, Length: 1, UserID: 7}},
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw struct {
		ChatID   int64  `json:"chat_id"`
		Text     string `json:"text"`
		Entities []struct {
			Type   string `json:"type"`
			Offset int    `json:"offset"`
			Length int    `json:"length"`
			User   struct {
				ID int64 `json:"id"`
			} `json:"user"`
		} `json:"entities"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw.ChatID != -100123 || raw.Text != "A​B" {
		t.Fatalf("unexpected header fields: %+v", raw)
	}
	e := raw.Entities[0]
	if e.Type != "text_mention" || e.Offset != 1 || e.Length != 1 || e.User.ID != 7 {
		t.Fatalf("unexpected entity: %+v", e)
	}

	var back Payload
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Chat.ID != -100123 || back.Mentions[0].UserID != 7 {
		t.Fatalf("round trip lost data: %+v", back)
	}

	username := Payload{Chat: Chat{Username: "@chan"}, Text: "x"}
	b, err = json.Marshal(username)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"chat_id":"@chan"`) {
		t.Fatalf("username chat_id not a string: %s", b)
	}
}

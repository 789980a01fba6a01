package blast

import (
	"context"
	"strings"
	"sync"
	"testing"

	"silentping/pkg/logx"
	"silentping/pkg/mention"
)

type fakeSubmitter struct {
	mu   sync.Mutex
	jobs []int // payload counts per submitted job
}

func (f *fakeSubmitter) Submit(name string, payloads []mention.Payload) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, len(payloads))
	return "dl:test"
}

func testBlast() Blast {
	return Blast{
		Name:       "standup",
		Chat:       mention.Chat{ID: -100},
		Recipients: []int64{1, 2, 3},
		Template:   mention.Anchored{Base: "Standup in 5!", Anchor: mention.AnchorRules{Chars: "!"}},
	}
}

func TestRunSubmitsPayloads(t *testing.T) {
	sub := &fakeSubmitter{}
	svc := New(sub, logx.Nop())
	if err := svc.Apply(context.Background(), []Blast{testBlast()}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	id, err := svc.Run(context.Background(), "standup")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if id != "dl:test" {
		t.Fatalf("unexpected job id %q", id)
	}
	if len(sub.jobs) != 1 || sub.jobs[0] != 1 {
		t.Fatalf("expected one job with one payload, got %v", sub.jobs)
	}
}

func TestRunUnknownBlast(t *testing.T) {
	svc := New(&fakeSubmitter{}, logx.Nop())
	if _, err := svc.Run(context.Background(), "nope"); err == nil || !strings.Contains(err.Error(), "unknown blast") {
		t.Fatalf("expected unknown blast error, got %v", err)
	}
}

func TestRunPropagatesBuildErrors(t *testing.T) {
	b := testBlast()
	b.Limits = mention.Limits{MaxTextLen: 5} // shorter than the base message
	sub := &fakeSubmitter{}
	svc := New(sub, logx.Nop())
	if err := svc.Apply(context.Background(), []Blast{b}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := svc.Run(context.Background(), "standup"); err == nil {
		t.Fatalf("expected capacity error")
	}
	if len(sub.jobs) != 0 {
		t.Fatalf("nothing should have been submitted, got %v", sub.jobs)
	}
}

func TestApplyRejectsBadCron(t *testing.T) {
	b := testBlast()
	b.Cron = "not a cron spec"
	svc := New(&fakeSubmitter{}, logx.Nop())
	if err := svc.Apply(context.Background(), []Blast{b}); err == nil {
		t.Fatalf("expected cron parse error")
	}
}

func TestParseSpec(t *testing.T) {
	for _, ok := range []string{"0 9 * * 1-5", "*/5 * * * * *", "@daily"} {
		if _, err := ParseSpec(ok); err != nil {
			t.Fatalf("ParseSpec(%q): %v", ok, err)
		}
	}
	if _, err := ParseSpec("whenever"); err == nil {
		t.Fatalf("expected error for bad spec")
	}
}

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"silentping/internal/services/delivery"
	"silentping/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Enabled: true, Path: filepath.Join(t.TempDir(), "log.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenDisabled(t *testing.T) {
	st, err := Open(Config{}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if st != nil {
		t.Fatalf("expected nil store when disabled")
	}
}

func TestDeliveryLogRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	now := time.Now()
	rows := []delivery.Record{
		{At: now.Add(-time.Minute), Job: "dl:1", Name: "standup", Index: 0, ChatID: -100, Mentions: 3, TextLen: 42, OK: true},
		{At: now, Job: "dl:1", Name: "standup", Index: 1, ChatID: -100, Mentions: 2, TextLen: 40, OK: false, Err: "chat not found"},
	}
	for _, r := range rows {
		if err := st.RecordDelivery(ctx, r); err != nil {
			t.Fatalf("RecordDelivery: %v", err)
		}
	}

	got, err := st.RecentDeliveries(ctx, 10)
	if err != nil {
		t.Fatalf("RecentDeliveries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	// Newest first.
	if got[0].Index != 1 || got[0].OK || got[0].Err != "chat not found" {
		t.Fatalf("unexpected newest row: %+v", got[0])
	}
	if got[1].Index != 0 || !got[1].OK || got[1].Err != "" {
		t.Fatalf("unexpected oldest row: %+v", got[1])
	}
}

func TestPruneDeliveries(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 5; i++ {
		rec := delivery.Record{At: now.Add(-time.Duration(i) * time.Hour), Job: "dl:1", Name: "x", Index: i, ChatID: 1, OK: true}
		if err := st.RecordDelivery(ctx, rec); err != nil {
			t.Fatalf("RecordDelivery: %v", err)
		}
	}

	removed, err := st.PruneDeliveries(ctx, now.Add(-90*time.Minute))
	if err != nil {
		t.Fatalf("PruneDeliveries: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 rows removed, got %d", removed)
	}
	got, err := st.RecentDeliveries(ctx, 10)
	if err != nil {
		t.Fatalf("RecentDeliveries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows left, got %d", len(got))
	}
}

package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/polyterm/polyterm/clob/types"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	placed := &types.PlacedOrder{
		OrderID:      "0xorder1",
		TokenID:      "1234",
		Side:         types.SideBuy,
		Price:        0.65,
		OriginalSize: 100,
		Status:       types.StatusLive,
		CreatedAt:    time.Now().Add(-time.Minute),
	}
	if err := j.RecordPlacement(ctx, placed); err != nil {
		t.Fatalf("record placement: %v", err)
	}
	if err := j.RecordCancel(ctx, "0xorder1"); err != nil {
		t.Fatalf("record cancel: %v", err)
	}

	entries, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	// newest first
	if entries[0].Action != "cancelled" || entries[1].Action != "placed" {
		t.Fatalf("order wrong: %s, %s", entries[0].Action, entries[1].Action)
	}
	if entries[1].OrderID != "0xorder1" || entries[1].Price != 0.65 || entries[1].Size != 100 {
		t.Fatalf("placement entry: %+v", entries[1])
	}
}

func TestJournal_RecentLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		po := &types.PlacedOrder{
			OrderID:   "0xo",
			TokenID:   "1",
			Side:      types.SideSell,
			Status:    types.StatusLive,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := j.RecordPlacement(ctx, po); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	entries, err := j.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
}

func TestJournal_NilClose(t *testing.T) {
	var j *Journal
	if err := j.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestRepo(t *testing.T) *HistoryRepo {
	t.Helper()
	repo, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenHistory() returned error: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAppendAndRecent(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	records := []Record{
		{ID: "r1", Tool: "echo", Target: "./srv", Status: "ok", ElapsedMS: 10, StartedAt: base},
		{ID: "r2", Tool: "add", Target: "./srv", Status: "error", Error: "boom", ElapsedMS: 5, StartedAt: base.Add(time.Minute)},
		{ID: "r3", Tool: "echo", Target: "./srv", Word: "admin", Status: "ok", ElapsedMS: 7, StartedAt: base.Add(2 * time.Minute)},
	}
	for _, rec := range records {
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("Append(%s) returned error: %v", rec.ID, err)
		}
	}

	got, err := repo.Recent(ctx, Filter{})
	if err != nil {
		t.Fatalf("Recent() returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent() returned %d records, want 3", len(got))
	}
	// Newest first.
	if got[0].ID != "r3" || got[2].ID != "r1" {
		t.Errorf("Recent() order = [%s %s %s], want newest first", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].Word != "admin" {
		t.Errorf("Word = %q, want admin", got[0].Word)
	}
}

func TestRecentFilters(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Now().UTC()

	seed := []Record{
		{ID: "a", Tool: "echo", Target: "t", Status: "ok", StartedAt: base},
		{ID: "b", Tool: "echo", Target: "t", Status: "error", Error: "x", StartedAt: base.Add(time.Second)},
		{ID: "c", Tool: "add", Target: "t", Status: "ok", StartedAt: base.Add(2 * time.Second)},
	}
	for _, rec := range seed {
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("Append(%s) returned error: %v", rec.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"by tool", Filter{Tool: "echo"}, []string{"b", "a"}},
		{"by status", Filter{Status: "ok"}, []string{"c", "a"}},
		{"tool and status", Filter{Tool: "echo", Status: "ok"}, []string{"a"}},
		{"limit", Filter{Limit: 1}, []string{"c"}},
		{"no match", Filter{Tool: "absent"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Recent(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Recent() returned error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Recent() returned %d records, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("Recent()[%d].ID = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestAppendAssignsMissingIDAndStart(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	// Two ID-less error records must both persist with distinct keys.
	for i := 0; i < 2; i++ {
		rec := Record{Tool: "echo", Target: "./srv", Status: "error", Error: "boom", ElapsedMS: 3}
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("Append #%d returned error: %v", i+1, err)
		}
	}

	got, err := repo.Recent(ctx, Filter{})
	if err != nil {
		t.Fatalf("Recent() returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent() returned %d records, want 2", len(got))
	}
	if got[0].ID == "" || got[1].ID == "" {
		t.Errorf("record IDs = [%q %q], want generated IDs", got[0].ID, got[1].ID)
	}
	if got[0].ID == got[1].ID {
		t.Errorf("both records share ID %q", got[0].ID)
	}
	for i, rec := range got {
		if rec.StartedAt.IsZero() {
			t.Errorf("record %d has zero StartedAt", i)
		}
	}
}

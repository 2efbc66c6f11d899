package history

import (
	"context"
	"testing"

	"github.com/mjaros/chatterm/internal/api"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Record("t1", api.RoleUser, "what is the pricing model?")
	s.Record("t1", api.RoleAssistant, "pricing is per seat")
	s.Record("t2", api.RoleUser, "unrelated question")

	hits, err := s.Search(ctx, "pricing", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	// Newest first.
	if hits[0].Role != api.RoleAssistant || hits[1].Role != api.RoleUser {
		t.Errorf("unexpected order: %+v", hits)
	}
	if hits[0].ThreadID != "t1" {
		t.Errorf("wrong thread in hit: %+v", hits[0])
	}
}

func TestSearchLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 30; i++ {
		s.Record("t1", api.RoleUser, "needle")
	}
	hits, err := s.Search(context.Background(), "needle", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 5 {
		t.Errorf("expected limit of 5, got %d", len(hits))
	}
}

func TestThreadTranscriptOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Record("t1", api.RoleUser, "one")
	s.Record("t1", api.RoleAssistant, "two")
	s.Record("t1", api.RoleUser, "three")

	entries, err := s.Thread(ctx, "t1")
	if err != nil {
		t.Fatalf("Thread failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"one", "two", "three"} {
		if entries[i].Text != want {
			t.Errorf("entry %d: got %q want %q", i, entries[i].Text, want)
		}
	}
}

func TestForgetThread(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Record("t1", api.RoleUser, "kept nowhere")
	s.Record("t2", api.RoleUser, "kept here")

	if err := s.Forget("t1"); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	entries, _ := s.Thread(ctx, "t1")
	if len(entries) != 0 {
		t.Errorf("forgotten thread still has %d entries", len(entries))
	}
	entries, _ = s.Thread(ctx, "t2")
	if len(entries) != 1 {
		t.Errorf("other thread lost entries: %d", len(entries))
	}
}

package timeline

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mjaros/chatterm/internal/api"
)

func history() []api.Message {
	return []api.Message{
		{Role: api.RoleUser, Kind: api.KindText, Content: "first"},
		{Role: api.RoleAssistant, Kind: api.KindText, Content: "reply one"},
		{Role: api.RoleUser, Kind: api.KindText, Content: "second"},
		{Role: api.RoleAssistant, Kind: api.KindImage, Content: `{"url":"/f/x.png","prompt":"x"}`,
			Image: &api.ImageContent{URL: "/f/x.png", Prompt: "x"}},
		{Role: api.RoleUser, Kind: api.KindText, Content: "third"},
		{Role: api.RoleAssistant, Kind: api.KindText, Content: "reply three"},
	}
}

func userTurnMap(t *Timeline) map[string]int {
	m := make(map[string]int)
	for _, e := range t.Entries() {
		if e.Role == api.RoleUser {
			m[e.Text] = e.Turn
		}
	}
	return m
}

func TestRebuildDerivesTurnIndices(t *testing.T) {
	tl := New()
	tl.Rebuild(history())

	want := map[string]int{"first": 1, "second": 2, "third": 3}
	if got := userTurnMap(tl); !reflect.DeepEqual(got, want) {
		t.Errorf("turn map mismatch: got %v want %v", got, want)
	}
	if tl.UserTurns() != 3 {
		t.Errorf("expected 3 user turns, got %d", tl.UserTurns())
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	tl := New()
	tl.Rebuild(history())
	first := userTurnMap(tl)

	tl.Rebuild(history())
	second := userTurnMap(tl)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("recomputing turns on identical data diverged: %v vs %v", first, second)
	}
}

func TestRebuildDecodesImageEntries(t *testing.T) {
	tl := New()
	tl.Rebuild(history())

	var img *Entry
	for i, e := range tl.Entries() {
		if e.Kind == api.KindImage {
			img = &tl.Entries()[i]
		}
	}
	if img == nil {
		t.Fatal("image entry missing")
	}
	if img.ImageURL != "/f/x.png" || img.ImagePrompt != "x" {
		t.Errorf("image entry not decoded: %+v", img)
	}
	if img.Turn != 0 {
		t.Errorf("assistant image should carry no turn index, got %d", img.Turn)
	}
}

func TestOptimisticSendLifecycleSuccess(t *testing.T) {
	tl := New()

	turn := tl.AppendUser("Hello")
	if turn != 1 {
		t.Fatalf("expected turn 1 on empty thread, got %d", turn)
	}
	id, err := tl.BeginPending()
	if err != nil {
		t.Fatalf("BeginPending failed: %v", err)
	}
	if tl.PendingCount() != 1 {
		t.Fatalf("expected exactly one placeholder, got %d", tl.PendingCount())
	}

	// A second submission while one is outstanding must be refused.
	if _, err := tl.BeginPending(); !errors.Is(err, ErrPendingExists) {
		t.Errorf("expected ErrPendingExists, got %v", err)
	}

	if err := tl.Resolve(id, "Hi there"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if tl.PendingCount() != 0 {
		t.Errorf("placeholder remained after resolution")
	}
	entries := tl.Entries()
	last := entries[len(entries)-1]
	if last.Role != api.RoleAssistant || last.Text != "Hi there" || last.State != StateConfirmed {
		t.Errorf("unexpected resolved entry: %+v", last)
	}
}

func TestOptimisticSendLifecycleFailure(t *testing.T) {
	tl := New()
	tl.AppendUser("Hello")
	id, _ := tl.BeginPending()

	if err := tl.Fail(id, errors.New("connection refused")); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	if tl.PendingCount() != 0 {
		t.Error("stale typing placeholder remained after failure")
	}
	entries := tl.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected user message + one error entry, got %d entries", len(entries))
	}
	if entries[0].Text != "Hello" || entries[0].Turn != 1 {
		t.Errorf("preceding user message corrupted: %+v", entries[0])
	}
	errEntry := entries[1]
	if !errEntry.Failed || errEntry.Role != api.RoleAssistant {
		t.Errorf("expected one error-marked assistant entry, got %+v", errEntry)
	}
	if errEntry.Text != "**Error:** connection refused" {
		t.Errorf("error entry lacks explicit marker: %q", errEntry.Text)
	}

	// Failure must not corrupt the turn sequence.
	if next := tl.AppendUser("retry"); next != 2 {
		t.Errorf("expected next turn 2 after failure, got %d", next)
	}
}

func TestResolveWrongIDRejected(t *testing.T) {
	tl := New()
	tl.AppendUser("Hello")
	tl.BeginPending()
	if err := tl.Resolve("bogus", "nope"); !errors.Is(err, ErrNoPending) {
		t.Errorf("expected ErrNoPending, got %v", err)
	}
	if !tl.HasPending() {
		t.Error("mismatched resolve should not clear the real placeholder")
	}
}

func TestRebuildDropsPending(t *testing.T) {
	tl := New()
	tl.AppendUser("Hello")
	tl.BeginPending()
	tl.Rebuild(history())
	if tl.HasPending() || tl.PendingCount() != 0 {
		t.Error("rebuild should drop any in-flight placeholder")
	}
}

func TestAppendImageHasNoPlaceholder(t *testing.T) {
	tl := New()
	tl.AppendImage("/f/gen.png", "sunset")
	if tl.PendingCount() != 0 {
		t.Error("image append must not create a placeholder")
	}
	e := tl.Entries()[0]
	if e.Kind != api.KindImage || e.ImageURL != "/f/gen.png" || e.ImagePrompt != "sunset" {
		t.Errorf("unexpected image entry: %+v", e)
	}
}

func TestClear(t *testing.T) {
	tl := New()
	tl.Rebuild(history())
	tl.Clear()
	if len(tl.Entries()) != 0 || tl.UserTurns() != 0 || tl.HasPending() {
		t.Error("clear left state behind")
	}
}

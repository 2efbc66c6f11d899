package timeline

import (
	"errors"

	"github.com/google/uuid"

	"github.com/mjaros/chatterm/internal/api"
)

// EntryState tracks the optimistic lifecycle of an entry.
type EntryState int

const (
	// StateConfirmed entries exist server-side (or are local error
	// notices that never will).
	StateConfirmed EntryState = iota
	// StatePending marks the single in-flight assistant placeholder.
	StatePending
)

// Entry is one rendered row of the conversation view. The timeline is
// the source of truth for ordering and turn derivation; the rendering
// layer only reads it.
type Entry struct {
	ID          string
	Role        api.Role
	Kind        api.Kind
	Text        string
	ImageURL    string
	ImagePrompt string
	// Turn is the 1-based user-message ordinal, derived purely from
	// position. Zero for assistant entries.
	Turn  int
	State EntryState
	// Failed marks the distinct error entry appended when a send is
	// rejected.
	Failed bool
}

// Timeline is the ordered, append-only message view for the active
// thread. At most one pending placeholder exists at a time.
type Timeline struct {
	entries []Entry
	pending string // entry ID of the in-flight placeholder, "" if none
}

// New returns an empty timeline.
func New() *Timeline {
	return &Timeline{}
}

// ErrPendingExists is returned when a second optimistic submission is
// attempted while one is still outstanding.
var ErrPendingExists = errors.New("a submission is already in flight")

// ErrNoPending is returned when resolving without an outstanding
// placeholder.
var ErrNoPending = errors.New("no submission in flight")

// Rebuild replaces the view with server-confirmed history. Turn
// indices are recomputed from scratch; rebuilding twice on the same
// input yields the same mapping. Any pending placeholder is dropped.
func (t *Timeline) Rebuild(msgs []api.Message) {
	t.entries = t.entries[:0]
	t.pending = ""
	turn := 0
	for _, m := range msgs {
		e := Entry{
			ID:    uuid.NewString(),
			Role:  m.Role,
			Kind:  m.Kind,
			Text:  m.Content,
			State: StateConfirmed,
		}
		switch {
		case m.Role == api.RoleUser && m.Kind == api.KindText:
			turn++
			e.Turn = turn
		case m.Kind == api.KindImage && m.Image != nil:
			e.ImageURL = m.Image.URL
			e.ImagePrompt = m.Image.Prompt
		}
		t.entries = append(t.entries, e)
	}
}

// Clear empties the view, used when the active thread is deleted.
func (t *Timeline) Clear() {
	t.entries = t.entries[:0]
	t.pending = ""
}

// AppendUser optimistically appends a user message and returns its
// turn index (prior user-message count plus one).
func (t *Timeline) AppendUser(text string) int {
	turn := t.UserTurns() + 1
	t.entries = append(t.entries, Entry{
		ID:    uuid.NewString(),
		Role:  api.RoleUser,
		Kind:  api.KindText,
		Text:  text,
		Turn:  turn,
		State: StateConfirmed,
	})
	return turn
}

// BeginPending appends the "typing" placeholder immediately after the
// user's message and returns its id. Fails if one is already
// outstanding.
func (t *Timeline) BeginPending() (string, error) {
	if t.pending != "" {
		return "", ErrPendingExists
	}
	id := uuid.NewString()
	t.entries = append(t.entries, Entry{
		ID:    id,
		Role:  api.RoleAssistant,
		Kind:  api.KindText,
		State: StatePending,
	})
	t.pending = id
	return id, nil
}

// Resolve swaps the placeholder's content for the confirmed reply.
func (t *Timeline) Resolve(id, reply string) error {
	if t.pending == "" || t.pending != id {
		return ErrNoPending
	}
	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries[i].Text = reply
			t.entries[i].State = StateConfirmed
			t.pending = ""
			return nil
		}
	}
	t.pending = ""
	return ErrNoPending
}

// Fail removes the placeholder entirely and appends one clearly
// marked error entry in its place. The preceding user message is left
// intact and the turn sequence is not disturbed.
func (t *Timeline) Fail(id string, err error) error {
	if t.pending == "" || t.pending != id {
		return ErrNoPending
	}
	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}
	t.pending = ""
	t.entries = append(t.entries, Entry{
		ID:     uuid.NewString(),
		Role:   api.RoleAssistant,
		Kind:   api.KindText,
		Text:   "**Error:** " + err.Error(),
		State:  StateConfirmed,
		Failed: true,
	})
	return nil
}

// AppendImage appends a confirmed image message. Image generation has
// no placeholder; the entry appears only after success.
func (t *Timeline) AppendImage(url, prompt string) {
	t.entries = append(t.entries, Entry{
		ID:          uuid.NewString(),
		Role:        api.RoleAssistant,
		Kind:        api.KindImage,
		ImageURL:    url,
		ImagePrompt: prompt,
		State:       StateConfirmed,
	})
}

// AppendNotice appends a local assistant-styled informational entry
// (upload results, extracted text, and the like).
func (t *Timeline) AppendNotice(text string) {
	t.entries = append(t.entries, Entry{
		ID:    uuid.NewString(),
		Role:  api.RoleAssistant,
		Kind:  api.KindText,
		Text:  text,
		State: StateConfirmed,
	})
}

// Entries returns the ordered view. Callers must not mutate it.
func (t *Timeline) Entries() []Entry {
	return t.entries
}

// UserTurns counts rendered user messages; the valid anchor turn range
// is 1..UserTurns().
func (t *Timeline) UserTurns() int {
	n := 0
	for _, e := range t.entries {
		if e.Role == api.RoleUser && e.Kind == api.KindText {
			n++
		}
	}
	return n
}

// HasPending reports whether an optimistic submission is outstanding;
// the send control stays disabled while it is.
func (t *Timeline) HasPending() bool {
	return t.pending != ""
}

// PendingCount counts placeholder entries, for invariant checks.
func (t *Timeline) PendingCount() int {
	n := 0
	for _, e := range t.entries {
		if e.State == StatePending {
			n++
		}
	}
	return n
}

package chat

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mjaros/chatterm/internal/api"
	"github.com/mjaros/chatterm/internal/audio"
	"github.com/mjaros/chatterm/internal/config"
	"github.com/mjaros/chatterm/internal/controller"
	"github.com/mjaros/chatterm/internal/prefs"
)

func newTestModel() *Model {
	client := api.New("http://127.0.0.1:1", zerolog.Nop())
	ctrl := controller.New(nil, zerolog.Nop())
	recorder := audio.NewRecorder(nil, client, zerolog.Nop())
	return New(&config.Config{}, client, ctrl, recorder, prefs.Default(), zerolog.Nop())
}

func TestTranscriptTriggersSend(t *testing.T) {
	m := newTestModel()

	_, cmd := m.Update(transcriptMsg{text: "Hello from voice"})

	if got := m.ctrl.Timeline().UserTurns(); got != 1 {
		t.Errorf("expected the transcript to become user turn 1, got %d turns", got)
	}
	if !m.ctrl.SendBusy() {
		t.Error("transcript did not dispatch through the send flow")
	}
	if cmd == nil {
		t.Error("expected a send command to be produced")
	}
	if m.textarea.Value() != "" {
		t.Errorf("editor not cleared after dispatch: %q", m.textarea.Value())
	}
	entries := m.ctrl.Timeline().Entries()
	if len(entries) == 0 || entries[0].Text != "Hello from voice" {
		t.Errorf("unexpected timeline after transcript send: %+v", entries)
	}
}

func TestTranscriptAppendsToTypedDraft(t *testing.T) {
	m := newTestModel()
	m.textarea.SetValue("typed so far")

	m.Update(transcriptMsg{text: "and spoken"})

	entries := m.ctrl.Timeline().Entries()
	if len(entries) == 0 || entries[0].Text != "typed so far and spoken" {
		t.Errorf("draft and transcript not combined: %+v", entries)
	}
}

func TestEmptyTranscriptDoesNotSend(t *testing.T) {
	m := newTestModel()

	_, cmd := m.Update(transcriptMsg{text: ""})

	if m.ctrl.Timeline().UserTurns() != 0 || m.ctrl.SendBusy() {
		t.Error("silence must not enter the send flow")
	}
	if cmd != nil {
		t.Error("no command expected for an empty transcript")
	}
	if m.ctrl.Status() != controller.StatusReady {
		t.Errorf("expected ready status, got %v", m.ctrl.Status())
	}
}

func TestThreadListRefreshKeepsInFlightStatus(t *testing.T) {
	m := newTestModel()
	if _, err := m.ctrl.BeginSend("hi", false, false); err != nil {
		t.Fatalf("BeginSend failed: %v", err)
	}

	m.Update(threadListMsg{threads: []api.Thread{{ID: "t1"}}})

	if m.ctrl.Status() != controller.StatusThinking {
		t.Errorf("background list refresh clobbered the activity indicator: %v", m.ctrl.Status())
	}
}

func TestThreadListRefreshClearsLoadingStatus(t *testing.T) {
	m := newTestModel()
	m.ctrl.SetStatus(controller.StatusBusy, "loading threads")

	m.Update(threadListMsg{threads: []api.Thread{{ID: "t1"}}})

	if m.ctrl.Status() != controller.StatusReady {
		t.Errorf("expected ready after an explicit load, got %v", m.ctrl.Status())
	}
}

func TestTurnLineOffsetTargetsTurnHeader(t *testing.T) {
	m := newTestModel()
	tl := m.ctrl.Timeline()
	tl.AppendUser("first question")
	tl.AppendNotice("a reply\nspanning\nseveral lines")
	tl.AppendUser("second question")

	if got := m.turnLineOffset(1); got != 0 {
		t.Errorf("turn 1 should start the transcript, got line %d", got)
	}
	off := m.turnLineOffset(2)
	if off <= 0 {
		t.Fatalf("turn 2 offset should be past turn 1, got %d", off)
	}

	// The offset must land on the rendered turn header line.
	var b strings.Builder
	for i, e := range tl.Entries() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderEntry(e))
		b.WriteString("\n")
	}
	lines := strings.Split(b.String(), "\n")
	if off >= len(lines) || !strings.Contains(lines[off], "turn 2") {
		t.Errorf("offset %d does not land on the turn 2 header", off)
	}
}

func TestAnchorGotoScrollsToTurn(t *testing.T) {
	m := newTestModel()
	m.ctrl.ApplyCreated("t1")
	tl := m.ctrl.Timeline()
	tl.AppendUser("first question")
	tl.AppendNotice("short reply")
	tl.AppendUser("second question")
	tl.AppendNotice(strings.Repeat("filler line\n", 60))
	m.refreshTranscript()

	m.ExecuteCommand("/anchor goto 2")

	want := m.turnLineOffset(2)
	if want <= 0 {
		t.Fatalf("turn 2 offset should be positive, got %d", want)
	}
	if m.viewport.YOffset != want {
		t.Errorf("viewport at line %d, want %d", m.viewport.YOffset, want)
	}

	m.ExecuteCommand("/anchor goto 1")
	if m.viewport.YOffset != 0 {
		t.Errorf("jump to turn 1 should scroll to the top, got %d", m.viewport.YOffset)
	}
}

func TestAnchorGotoRejectsOutOfRange(t *testing.T) {
	m := newTestModel()
	m.ctrl.ApplyCreated("t1")
	m.ctrl.Timeline().AppendUser("only one")
	m.refreshTranscript()

	m.ExecuteCommand("/anchor goto 5")
	if !strings.Contains(m.notice, "out of range") {
		t.Errorf("expected an out-of-range notice, got %q", m.notice)
	}
}

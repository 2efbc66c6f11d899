package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mjaros/chatterm/internal/audio"
	"github.com/mjaros/chatterm/internal/controller"
	"github.com/mjaros/chatterm/internal/prefs"
)

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(m.width)
		m.viewport.Width = m.width
		m.viewport.Height = m.transcriptHeight()
		m.completions.SetSize(m.width, m.height)
		m.dialog.SetSize(m.width, m.height)
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case threadListMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			m.dialog.pendingList = DialogNone
			return m, nil
		}
		m.ctrl.ApplyThreadList(msg.threads)
		// A background list refresh must not clobber an in-flight
		// activity indicator; only the explicit loading state resets.
		if m.ctrl.Status() == controller.StatusBusy {
			m.ctrl.SetStatus(controller.StatusReady, "")
		}
		if m.dialog.pendingList == DialogThreadList {
			items := make([]DialogItem, 0, len(msg.threads))
			for _, t := range msg.threads {
				title := t.Title
				if title == "" {
					title = t.ID
				}
				items = append(items, DialogItem{ID: t.ID, Label: title})
			}
			m.dialog.Show(DialogThreadList, "Threads", items, m.ctrl.ActiveThread())
		}

	case threadLoadedMsg:
		if m.ctrl.ApplySwitch(msg.seq, msg.id, msg.msgs, msg.err) {
			m.pipeline.Copies().Reset()
			m.notice = ""
			m.refreshTranscript()
			m.savePrefs()
			if m.anchorPanelOpen {
				cmds = append(cmds, m.refreshAnchorsCmd())
			}
		}

	case threadCreatedMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			return m, nil
		}
		m.ctrl.ApplyCreated(msg.id)
		m.pipeline.Copies().Reset()
		m.notice = ""
		m.refreshTranscript()
		m.savePrefs()
		cmds = append(cmds, m.loadThreadsCmd())

	case threadDeletedMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			return m, nil
		}
		m.ctrl.ApplyThreadDeleted(msg.id)
		m.anchorPanelOpen = false
		m.refreshTranscript()
		m.savePrefs()
		cmds = append(cmds, m.loadThreadsCmd())

	case threadRenamedMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			return m, nil
		}
		cmds = append(cmds, m.loadThreadsCmd())

	case sendDoneMsg:
		created := msg.err == nil && msg.res.Created
		m.ctrl.ApplySendResult(msg.job, msg.res, msg.err)
		m.refreshTranscript()
		if created {
			m.savePrefs()
			cmds = append(cmds, m.loadThreadsCmd())
		}
		if m.anchorPanelOpen {
			cmds = append(cmds, m.refreshAnchorsCmd())
		}

	case imageDoneMsg:
		created := msg.err == nil && msg.res.Created
		m.ctrl.ApplyImageResult(msg.job, msg.res, msg.err)
		m.refreshTranscript()
		if created {
			m.savePrefs()
			cmds = append(cmds, m.loadThreadsCmd())
		}

	case anchorRowsMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			return m, nil
		}
		m.ctrl.ApplyAnchors(msg.rows)

	case anchorSavedMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			return m, nil
		}
		// Always recompute the panel rather than patching it locally.
		m.anchorPanelOpen = true
		cmds = append(cmds, m.refreshAnchorsCmd())

	case transcriptMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			return m, nil
		}
		m.ctrl.SetStatus(controller.StatusReady, "")
		// Silence stays out of the send flow; speech populates the
		// editor and goes straight through the standard send path.
		if msg.text == "" {
			return m, nil
		}
		m.insertTranscript(msg.text)
		job, err := m.ctrl.BeginSend(m.textarea.Value(), m.prefs.Web, m.prefs.UseMemory)
		if err != nil {
			// The transcript stays in the editor for a manual retry.
			m.ctrl.SetStatus(controller.StatusError, err.Error())
			return m, nil
		}
		m.textarea.SetValue("")
		m.syncTextareaHeight()
		m.refreshTranscript()
		cmds = append(cmds, m.sendCmd(job))

	case uploadDoneMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			return m, nil
		}
		m.ctrl.SetStatus(controller.StatusReady, "")
		for _, e := range msg.entries {
			if e.IsImage {
				m.ctrl.Timeline().AppendImage(e.URL, e.Name)
			} else {
				m.ctrl.Timeline().AppendNotice("Uploaded " + e.Markdown)
			}
		}
		if len(msg.entries) > 0 {
			m.refreshTranscript()
		}

	case assetTextMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			return m, nil
		}
		m.ctrl.Timeline().AppendNotice(msg.markdown)
		m.refreshTranscript()

	case fileDeletedMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			return m, nil
		}
		_, _ = m.showNotice("File deleted.")

	case memoryListMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			return m, nil
		}
		var b strings.Builder
		b.WriteString("Memory facts\n\n")
		if len(msg.facts) == 0 {
			b.WriteString("  (none)\n")
		}
		for _, f := range msg.facts {
			b.WriteString(fmt.Sprintf("  #%d  %s\n", f.ID, f.Value))
		}
		b.WriteString("\n/memory forget <id> removes a fact")
		_, _ = m.showNotice(b.String())

	case memoryChangedMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			return m, nil
		}
		_, _ = m.showNotice(msg.note)

	case speakDoneMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			return m, nil
		}
		m.ctrl.SetStatus(controller.StatusReady, "")

	case voicesMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			m.dialog.pendingList = DialogNone
			return m, nil
		}
		if m.dialog.pendingList == DialogVoicePicker {
			items := make([]DialogItem, 0, len(msg.list.Voices))
			for _, v := range msg.list.Voices {
				items = append(items, DialogItem{ID: v, Label: v})
			}
			current := m.prefs.Voice
			if current == "" {
				current = msg.list.Default
			}
			m.dialog.Show(DialogVoicePicker, "Select Voice", items, current)
		}

	case modelsMsg:
		if msg.err != nil {
			m.ctrl.SetStatus(controller.StatusError, msg.err.Error())
			m.dialog.pendingList = DialogNone
			return m, nil
		}
		if m.dialog.pendingList == DialogModelPicker {
			items := make([]DialogItem, 0, len(msg.list.Models))
			for _, name := range msg.list.Models {
				items = append(items, DialogItem{ID: name, Label: name})
			}
			current := m.prefs.Model
			if current == "" {
				current = msg.list.Default
			}
			m.dialog.Show(DialogModelPicker, "Select Model", items, current)
		}
	}

	return m, tea.Batch(cmds...)
}

// handleKeyMsg routes key presses by UI mode: confirmation gate first,
// then open dialogs, then the completions popup, then the recorder,
// then editor shortcuts.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		m.quitting = true
		m.savePrefs()
		return m, tea.Quit
	}

	// Confirmation gate: only accept/decline get through.
	if m.ctrl.PendingCommand() != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			cmd := m.ctrl.ResolveConfirm(true)
			return m, m.dispatchConfirmed(cmd)
		case "n", "N", "esc":
			// Declining clears the gate with no further effect.
			m.ctrl.ResolveConfirm(false)
			return m, nil
		}
		return m, nil
	}

	if m.dialog.IsOpen() {
		return m.handleDialogKey(msg)
	}

	if m.completions.IsVisible() {
		switch {
		case key.Matches(msg, m.keyMap.Tab), key.Matches(msg, m.keyMap.Send):
			if sel := m.completions.Selected(); sel != nil {
				m.textarea.SetValue("/" + sel.Name + " ")
				m.textarea.CursorEnd()
			}
			m.completions.Hide()
			if key.Matches(msg, m.keyMap.Send) {
				return m.submit()
			}
			return m, nil
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "down", "esc"))):
			var cmd tea.Cmd
			m.completions, cmd = m.completions.Update(msg)
			return m, cmd
		}
	}

	// Recorder takes esc and the record key while active.
	switch m.recorder.State() {
	case audio.StateRecording:
		if key.Matches(msg, m.keyMap.Cancel) {
			if err := m.recorder.Abort(); err != nil {
				m.ctrl.SetStatus(controller.StatusError, err.Error())
			}
			return m, nil
		}
		if key.Matches(msg, m.keyMap.Record) {
			m.ctrl.SetStatus(controller.StatusTranscribing, "")
			return m, m.stopRecordingCmd()
		}
		return m, nil
	case audio.StateTranscribing:
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Record):
		if err := m.recorder.Start(context.Background()); err != nil {
			m.ctrl.SetStatus(controller.StatusError, err.Error())
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Commands):
		m.completions.Show()
		return m, nil

	case key.Matches(msg, m.keyMap.Threads):
		return m.cmdThreads()

	case key.Matches(msg, m.keyMap.NewThread):
		return m.cmdNew()

	case key.Matches(msg, m.keyMap.Anchors):
		return m.cmdAnchors()

	case key.Matches(msg, m.keyMap.ToggleWeb):
		return m.cmdWeb()

	case key.Matches(msg, m.keyMap.SwitchModel):
		return m.cmdModel(nil)

	case key.Matches(msg, m.keyMap.Speak):
		return m.cmdSpeak()

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Newline), key.Matches(msg, m.keyMap.NewlineAlt):
		m.textarea.InsertString("\n")
		m.syncTextareaHeight()
		return m, nil

	case key.Matches(msg, m.keyMap.Cancel):
		m.notice = ""
		m.completions.Hide()
		return m, nil

	case key.Matches(msg, m.keyMap.Send):
		return m.submit()
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.syncTextareaHeight()
	m.syncCompletions()
	return m, cmd
}

// handleDialogKey runs the open dialog: navigation, incremental
// filtering, selection.
func (m *Model) handleDialogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		sel := m.dialog.Selected()
		t := m.dialog.Type()
		m.dialog.Close()
		if sel == nil {
			return m, nil
		}
		return m.applyDialogSelection(t, sel)
	case "backspace":
		q := m.dialog.Query()
		if q != "" {
			m.dialog.SetQuery(q[:len(q)-1])
		}
		return m, nil
	}

	if msg.Type == tea.KeyRunes {
		m.dialog.SetQuery(m.dialog.Query() + string(msg.Runes))
		return m, nil
	}

	var cmd tea.Cmd
	m.dialog, cmd = m.dialog.Update(msg)
	return m, cmd
}

func (m *Model) applyDialogSelection(t DialogType, sel *DialogItem) (tea.Model, tea.Cmd) {
	switch t {
	case DialogThreadList:
		if sel.ID == m.ctrl.ActiveThread() {
			return m, nil
		}
		seq := m.ctrl.BeginSwitch(sel.ID)
		return m, m.loadThreadCmd(seq, sel.ID)
	case DialogVoicePicker:
		m.prefs.Voice = sel.ID
		m.savePrefs()
		return m.showNotice("Voice set to " + sel.ID + ".")
	case DialogModelPicker:
		m.prefs.Model = sel.ID
		m.savePrefs()
		return m.showNotice("Model set to " + sel.ID + ".")
	}
	return m, nil
}

// submit routes the editor content: slash input to the command table,
// anything else through the optimistic send flow.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := m.textarea.Value()
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "/") {
		m.completions.Hide()
		return m.ExecuteCommand(trimmed)
	}

	job, err := m.ctrl.BeginSend(text, m.prefs.Web, m.prefs.UseMemory)
	if err != nil {
		if errors.Is(err, controller.ErrEmptyInput) {
			return m, nil
		}
		m.ctrl.SetStatus(controller.StatusError, err.Error())
		return m, nil
	}
	m.textarea.SetValue("")
	m.syncTextareaHeight()
	m.notice = ""
	m.refreshTranscript()
	return m, m.sendCmd(job)
}

// dispatchConfirmed turns an accepted destructive command into its
// remote call.
func (m *Model) dispatchConfirmed(cmd *controller.Command) tea.Cmd {
	if cmd == nil {
		return nil
	}
	switch cmd.Kind {
	case controller.CmdDeleteThread:
		m.ctrl.SetStatus(controller.StatusBusy, "deleting thread")
		return m.deleteThreadCmd(cmd.TargetID)
	case controller.CmdDeleteFile:
		return m.deleteFileCmd(cmd.TargetID)
	case controller.CmdForgetMemory:
		id, err := strconv.ParseInt(cmd.TargetID, 10, 64)
		if err != nil {
			m.ctrl.SetStatus(controller.StatusError, "invalid memory id: "+cmd.TargetID)
			return nil
		}
		return m.forgetMemoryCmd(id)
	}
	return nil
}

// insertTranscript appends transcribed speech to the editor, after any
// text already typed.
func (m *Model) insertTranscript(text string) {
	existing := m.textarea.Value()
	if existing != "" && !strings.HasSuffix(existing, " ") {
		text = " " + text
	}
	m.textarea.SetValue(existing + text)
	m.textarea.CursorEnd()
	m.syncTextareaHeight()
}

// syncCompletions shows the command popup while the editor holds a
// slash command prefix.
func (m *Model) syncCompletions() {
	v := m.textarea.Value()
	if strings.HasPrefix(v, "/") && !strings.Contains(v, "\n") {
		m.completions.SetQuery(strings.TrimPrefix(v, "/"))
		if !m.completions.IsVisible() {
			m.completions.Show()
			m.completions.SetQuery(strings.TrimPrefix(v, "/"))
		}
	} else {
		m.completions.Hide()
	}
}

func (m *Model) syncTextareaHeight() {
	lines := strings.Count(m.textarea.Value(), "\n") + 1
	if lines > 5 {
		lines = 5
	}
	m.textarea.SetHeight(lines)
	m.viewport.Height = m.transcriptHeight()
}

func (m *Model) busy() bool {
	return m.ctrl.SendBusy() || m.ctrl.ImageBusy() ||
		m.recorder.State() != audio.StateIdle ||
		m.ctrl.Status() == controller.StatusBusy ||
		m.ctrl.Status() == controller.StatusUploading ||
		m.ctrl.Status() == controller.StatusSynthesizing
}

// savePrefs persists preference state, best effort.
func (m *Model) savePrefs() {
	m.prefs.LastThread = m.ctrl.ActiveThread()
	if err := prefs.Save(m.prefs); err != nil {
		m.log.Warn().Err(err).Msg("preference save failed")
	}
}

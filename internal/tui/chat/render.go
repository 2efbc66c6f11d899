package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/mjaros/chatterm/internal/api"
	"github.com/mjaros/chatterm/internal/audio"
	"github.com/mjaros/chatterm/internal/controller"
	"github.com/mjaros/chatterm/internal/timeline"
	"github.com/mjaros/chatterm/internal/ui"
)

// transcriptHeight is the viewport height left after the input area,
// status line and any open anchor panel.
func (m *Model) transcriptHeight() int {
	h := m.height - m.textarea.Height() - 2
	if m.anchorPanelOpen {
		h -= m.anchorPanelHeight()
	}
	if m.notice != "" {
		h -= strings.Count(m.notice, "\n") + 1
	}
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) anchorPanelHeight() int {
	rows := len(m.ctrl.AnchorRows())
	if rows > 8 {
		rows = 8
	}
	return rows + 3 // border + title
}

// refreshTranscript rebuilds the viewport content from the timeline.
// The timeline is the single source of ordering; rendering never
// reorders or patches in place.
func (m *Model) refreshTranscript() {
	entries := m.ctrl.Timeline().Entries()
	var b strings.Builder

	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderEntry(e))
		b.WriteString("\n")
	}

	m.viewport.Height = m.transcriptHeight()
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// turnLineOffset returns the content line on which the given user turn
// starts, following the same layout refreshTranscript builds. Turns
// past the end resolve to the bottom of the transcript.
func (m *Model) turnLineOffset(turn int) int {
	line := 0
	for i, e := range m.ctrl.Timeline().Entries() {
		if i > 0 {
			line++
		}
		if e.Role == api.RoleUser && e.Kind == api.KindText && e.Turn == turn {
			return line
		}
		line += strings.Count(m.renderEntry(e), "\n") + 1
	}
	return line
}

func (m *Model) renderEntry(e timeline.Entry) string {
	theme := m.styles.Theme()

	switch {
	case e.State == timeline.StatePending:
		return m.styles.Muted.Render(m.spinner.View() + " thinking…")

	case e.Kind == api.KindImage:
		label := e.ImagePrompt
		if label == "" {
			label = e.ImageURL
		}
		return m.styles.Subtitle.Render("🖼 "+label) + "\n" +
			m.styles.Muted.Render("   "+e.ImageURL)

	case e.Role == api.RoleUser:
		header := m.styles.Highlighted.Render(fmt.Sprintf("❯ turn %d", e.Turn))
		body := m.pipeline.RenderUser(e.Text, m.width-2)
		return header + "\n" + m.styles.UserMsg.Render(body)

	case e.Failed:
		return lipgloss.NewStyle().Foreground(theme.Error).Render(
			m.pipeline.RenderUser(e.Text, m.width-2))

	default:
		return m.pipeline.RenderAssistant(e.ID, e.Text, m.width)
	}
}

// renderAnchorPanel renders the turn/label table, recomputed rows
// only.
func (m *Model) renderAnchorPanel() string {
	theme := m.styles.Theme()
	rows := m.ctrl.AnchorRows()

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1).
		Width(m.width - 2)

	var b strings.Builder
	b.WriteString(m.styles.Bold.Render("Anchors"))
	b.WriteString(m.styles.Muted.Render("  /anchor <turn> [label] · /anchor goto <turn>"))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(m.styles.Muted.Render("  no turns yet"))
		return border.Render(b.String())
	}

	visible := rows
	if len(visible) > 8 {
		visible = visible[len(visible)-8:]
	}
	for _, r := range visible {
		label := r.Label
		if label == "" {
			label = "—"
		}
		label = ui.Truncate(label, m.width-12)
		b.WriteString(fmt.Sprintf("  %3d  %s\n", r.Turn, label))
	}
	return border.Render(strings.TrimRight(b.String(), "\n"))
}

// statusLine summarizes thread, activity and toggles in one line.
func (m *Model) statusLine() string {
	var parts []string

	title := "(no thread)"
	if info, ok := m.ctrl.ActiveThreadInfo(); ok {
		if info.Title != "" {
			title = info.Title
		} else {
			title = info.ID
		}
	} else if id := m.ctrl.ActiveThread(); id != "" {
		title = id
	}
	parts = append(parts, m.styles.Bold.Render(ui.Truncate(title, 30)))

	switch m.recorder.State() {
	case audio.StateRecording:
		parts = append(parts, m.styles.Recording.Render(ui.RecordIcon+" recording (ctrl+r to stop, esc to abort)"))
	case audio.StateTranscribing:
		parts = append(parts, m.styles.Spinner.Render(m.spinner.View())+m.styles.Muted.Render("transcribing…"))
	default:
		status := m.ctrl.Status()
		detail := m.ctrl.StatusDetail()
		text := status.String()
		if status == controller.StatusError && detail != "" {
			text = "error: " + detail
		}
		if m.busy() {
			parts = append(parts, m.styles.Spinner.Render(m.spinner.View())+m.styles.Muted.Render(text))
		} else if status == controller.StatusError {
			parts = append(parts, m.styles.Error.Render(text))
		} else {
			parts = append(parts, m.styles.Muted.Render(text))
		}
	}

	parts = append(parts, m.styles.Muted.Render("web ")+m.styles.FormatEnabled(m.prefs.Web))
	parts = append(parts, m.styles.Muted.Render("mem ")+m.styles.FormatEnabled(m.prefs.UseMemory))
	if m.prefs.Model != "" {
		parts = append(parts, m.styles.Muted.Render(m.prefs.Model))
	}

	line := strings.Join(parts, m.styles.Muted.Render(" · "))
	if runewidth.StringWidth(line) > m.width {
		line = runewidth.Truncate(line, m.width, "…")
	}
	return line
}

// View renders the UI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	// Confirmation gate replaces the input line until resolved.
	if cmd := m.ctrl.PendingCommand(); cmd != nil {
		var b strings.Builder
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(cmd.Prompt()))
		b.WriteString(m.styles.Muted.Render("  [y/n]"))
		return b.String()
	}

	if m.dialog.IsOpen() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.dialog.View())
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.anchorPanelOpen {
		b.WriteString(m.renderAnchorPanel())
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(m.styles.Subtitle.Render(m.notice))
		b.WriteString("\n")
	}

	if m.completions.IsVisible() {
		b.WriteString(m.completions.View())
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.textarea.View())

	return b.String()
}

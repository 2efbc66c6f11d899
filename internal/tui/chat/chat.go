// Package chat is the interactive TUI: a bubbletea program wiring the
// view controller, the render pipeline, the anchor synchronizer, the
// audio recorder and the asset panel to the remote assistant server.
// All remote I/O runs as bubbletea commands; state mutation happens
// only in Update, through the controller's begin/apply pairs.
package chat

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/mjaros/chatterm/internal/anchors"
	"github.com/mjaros/chatterm/internal/api"
	"github.com/mjaros/chatterm/internal/assets"
	"github.com/mjaros/chatterm/internal/audio"
	"github.com/mjaros/chatterm/internal/config"
	"github.com/mjaros/chatterm/internal/controller"
	"github.com/mjaros/chatterm/internal/prefs"
	"github.com/mjaros/chatterm/internal/render"
	"github.com/mjaros/chatterm/internal/ui"
)

// Model is the main chat TUI model
type Model struct {
	// Dimensions
	width  int
	height int

	// Components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   *ui.Styles
	keyMap   KeyMap

	// Wiring
	client   *api.Client
	ctrl     *controller.Controller
	pipeline *render.Pipeline
	anchors  *anchors.Synchronizer
	recorder *audio.Recorder
	assets   *assets.Panel
	config   *config.Config
	prefs    prefs.Prefs
	log      zerolog.Logger

	// Anchor panel state
	anchorPanelOpen bool

	// Transient notices shown above the input (command output, errors)
	notice string

	// Dialog components
	completions *CompletionsModel
	dialog      *DialogModel

	quitting bool
}

// Messages for tea.Program. Every remote call resolves into exactly
// one of these, applied in Update.
type (
	threadListMsg struct {
		threads []api.Thread
		err     error
	}
	threadLoadedMsg struct {
		seq  uint64
		id   string
		msgs []api.Message
		err  error
	}
	threadCreatedMsg struct {
		id  string
		err error
	}
	threadDeletedMsg struct {
		id  string
		err error
	}
	threadRenamedMsg struct {
		err error
	}
	sendDoneMsg struct {
		job *controller.SendJob
		res *api.SendResult
		err error
	}
	imageDoneMsg struct {
		job *controller.ImageJob
		res *api.ImageResult
		err error
	}
	anchorRowsMsg struct {
		rows []anchors.Row
		err  error
	}
	anchorSavedMsg struct {
		err error
	}
	transcriptMsg struct {
		text string
		err  error
	}
	uploadDoneMsg struct {
		entries []assets.Entry
		err     error
	}
	assetTextMsg struct {
		markdown string
		err      error
	}
	fileDeletedMsg struct {
		err error
	}
	memoryListMsg struct {
		facts []api.MemoryFact
		err   error
	}
	memoryChangedMsg struct {
		note string
		err  error
	}
	speakDoneMsg struct {
		err error
	}
	voicesMsg struct {
		list *api.VoiceList
		err  error
	}
	modelsMsg struct {
		list *api.ModelList
		err  error
	}
)

// New creates a new chat model
func New(cfg *config.Config, client *api.Client, ctrl *controller.Controller, recorder *audio.Recorder, p prefs.Prefs, log zerolog.Logger) *Model {
	width := 80
	height := 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	styles := ui.DefaultStyles()
	s.Style = styles.Spinner

	ta := textarea.New()
	ta.Placeholder = "Type a message, / for commands..."
	ta.Prompt = "❯ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(width)
	ta.SetHeight(1)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.Theme().Muted)
	ta.FocusedStyle.EndOfBuffer = lipgloss.NewStyle()
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(styles.Theme().Primary).Bold(true)
	ta.BlurredStyle = ta.FocusedStyle
	ta.Focus()

	vp := viewport.New(width, height-4)

	completions := NewCompletionsModel(styles)
	completions.SetSize(width, height)

	dialog := NewDialogModel(styles)
	dialog.SetSize(width, height)

	return &Model{
		width:       width,
		height:      height,
		textarea:    ta,
		viewport:    vp,
		spinner:     s,
		styles:      styles,
		keyMap:      DefaultKeyMap(),
		client:      client,
		ctrl:        ctrl,
		pipeline:    render.NewPipeline(),
		anchors:     anchors.New(client),
		recorder:    recorder,
		assets:      assets.New(client, log),
		config:      cfg,
		prefs:       p,
		log:         log,
		completions: completions,
		dialog:      dialog,
	}
}

// Prefs returns the preference state as mutated during the session, so
// the caller can persist it on exit.
func (m *Model) Prefs() prefs.Prefs {
	m.prefs.LastThread = m.ctrl.ActiveThread()
	return m.prefs
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		m.spinner.Tick,
		m.loadThreadsCmd(),
	}
	// Restore the last active thread, if any. A stale id simply fails
	// the load and leaves the empty view.
	if m.prefs.LastThread != "" {
		seq := m.ctrl.BeginSwitch(m.prefs.LastThread)
		cmds = append(cmds, m.loadThreadCmd(seq, m.prefs.LastThread))
	}
	return tea.Batch(cmds...)
}

// ---- async commands ----

func (m *Model) loadThreadsCmd() tea.Cmd {
	return func() tea.Msg {
		threads, err := m.client.ListThreads(context.Background())
		return threadListMsg{threads: threads, err: err}
	}
}

func (m *Model) loadThreadCmd(seq uint64, id string) tea.Cmd {
	return func() tea.Msg {
		msgs, err := m.client.LoadThread(context.Background(), id)
		return threadLoadedMsg{seq: seq, id: id, msgs: msgs, err: err}
	}
}

func (m *Model) createThreadCmd() tea.Cmd {
	return func() tea.Msg {
		id, err := m.client.CreateThread(context.Background())
		return threadCreatedMsg{id: id, err: err}
	}
}

func (m *Model) deleteThreadCmd(id string) tea.Cmd {
	return func() tea.Msg {
		err := m.client.DeleteThread(context.Background(), id)
		return threadDeletedMsg{id: id, err: err}
	}
}

func (m *Model) renameThreadCmd(id, title string) tea.Cmd {
	return func() tea.Msg {
		return threadRenamedMsg{err: m.client.RenameThread(context.Background(), id, title)}
	}
}

func (m *Model) sendCmd(job *controller.SendJob) tea.Cmd {
	return func() tea.Msg {
		res, err := m.client.Send(context.Background(), job.Request)
		return sendDoneMsg{job: job, res: res, err: err}
	}
}

func (m *Model) imageCmd(job *controller.ImageJob) tea.Cmd {
	return func() tea.Msg {
		res, err := m.client.GenerateImage(context.Background(), job.ThreadID, job.Prompt)
		return imageDoneMsg{job: job, res: res, err: err}
	}
}

func (m *Model) anchorRowsCmd(threadID string, turnCount int) tea.Cmd {
	return func() tea.Msg {
		rows, err := m.anchors.Panel(context.Background(), threadID, turnCount)
		return anchorRowsMsg{rows: rows, err: err}
	}
}

func (m *Model) anchorEditCmd(threadID string, turn int, input string) tea.Cmd {
	return func() tea.Msg {
		return anchorSavedMsg{err: m.anchors.Edit(context.Background(), threadID, turn, input)}
	}
}

func (m *Model) stopRecordingCmd() tea.Cmd {
	return func() tea.Msg {
		text, err := m.recorder.Stop(context.Background())
		return transcriptMsg{text: text, err: err}
	}
}

func (m *Model) uploadCmd(paths []string) tea.Cmd {
	return func() tea.Msg {
		entries, err := m.assets.Upload(context.Background(), paths)
		return uploadDoneMsg{entries: entries, err: err}
	}
}

func (m *Model) extractTextCmd(id string) tea.Cmd {
	return func() tea.Msg {
		md, err := m.assets.ExtractText(context.Background(), id)
		return assetTextMsg{markdown: md, err: err}
	}
}

func (m *Model) ocrCmd(id, lang string) tea.Cmd {
	return func() tea.Msg {
		md, err := m.assets.OCR(context.Background(), id, lang)
		return assetTextMsg{markdown: md, err: err}
	}
}

func (m *Model) deleteFileCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return fileDeletedMsg{err: m.assets.Delete(context.Background(), id)}
	}
}

func (m *Model) memoryListCmd() tea.Cmd {
	return func() tea.Msg {
		facts, err := m.client.ListMemory(context.Background(), true)
		return memoryListMsg{facts: facts, err: err}
	}
}

func (m *Model) forgetMemoryCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		return memoryChangedMsg{note: "Memory fact forgotten.", err: m.client.ForgetMemory(context.Background(), id)}
	}
}

func (m *Model) speakCmd(text, voice string) tea.Cmd {
	return func() tea.Msg {
		data, err := m.client.Synthesize(context.Background(), text, voice)
		if err != nil {
			return speakDoneMsg{err: err}
		}
		return speakDoneMsg{err: audio.Play(m.config.Audio.Player, data)}
	}
}

func (m *Model) voicesCmd() tea.Cmd {
	return func() tea.Msg {
		list, err := m.client.Voices(context.Background())
		return voicesMsg{list: list, err: err}
	}
}

func (m *Model) modelsCmd() tea.Cmd {
	return func() tea.Msg {
		list, err := m.client.Models(context.Background())
		return modelsMsg{list: list, err: err}
	}
}

func (m *Model) refreshFilesCmd() tea.Cmd {
	return func() tea.Msg {
		return uploadDoneMsg{err: m.assets.Refresh(context.Background())}
	}
}

func (m *Model) setUseMemory(id string, enable bool) error {
	return m.client.SetUseMemory(context.Background(), id, enable)
}

func (m *Model) addMemory(value string) error {
	return m.client.AddMemory(context.Background(), nil, value, "global")
}

func (m *Model) restoreMemory(id int64) error {
	return m.client.RestoreMemory(context.Background(), id)
}

// refreshAnchorsCmd recomputes the anchor panel from scratch for the
// current thread and turn count. Always a full recompute, never a
// local patch.
func (m *Model) refreshAnchorsCmd() tea.Cmd {
	id := m.ctrl.ActiveThread()
	if id == "" {
		return nil
	}
	return m.anchorRowsCmd(id, m.ctrl.Timeline().UserTurns())
}

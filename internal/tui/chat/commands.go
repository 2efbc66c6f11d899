package chat

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/mjaros/chatterm/internal/assets"
	"github.com/mjaros/chatterm/internal/clipboard"
	"github.com/mjaros/chatterm/internal/controller"
	"github.com/mjaros/chatterm/internal/ui"
)

// Command represents a slash command
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
}

// AllCommands returns all available slash commands
func AllCommands() []Command {
	return []Command{
		{
			Name:        "help",
			Aliases:     []string{"h", "?"},
			Description: "Show help and available commands",
			Usage:       "/help",
		},
		{
			Name:        "new",
			Aliases:     []string{"n"},
			Description: "Start a new thread",
			Usage:       "/new",
		},
		{
			Name:        "threads",
			Aliases:     []string{"t", "ls"},
			Description: "Browse and switch threads",
			Usage:       "/threads",
		},
		{
			Name:        "rename",
			Description: "Rename the active thread",
			Usage:       "/rename <title>",
		},
		{
			Name:        "delete",
			Aliases:     []string{"rm"},
			Description: "Delete the active thread",
			Usage:       "/delete",
		},
		{
			Name:        "anchors",
			Aliases:     []string{"a", "toc"},
			Description: "Toggle the anchor panel",
			Usage:       "/anchors",
		},
		{
			Name:        "anchor",
			Description: "Label a turn, or jump to one with goto",
			Usage:       "/anchor <turn> [label] | goto <turn>",
		},
		{
			Name:        "image",
			Aliases:     []string{"img"},
			Description: "Generate an image from a prompt",
			Usage:       "/image <prompt>",
		},
		{
			Name:        "web",
			Aliases:     []string{"search"},
			Description: "Toggle web search on/off",
			Usage:       "/web",
		},
		{
			Name:        "memory",
			Description: "Memory facts (list, on, off, add, forget, restore)",
			Usage:       "/memory [list|on|off|add <text>|forget <id>|restore <id>]",
		},
		{
			Name:        "files",
			Aliases:     []string{"f"},
			Description: "List uploaded files",
			Usage:       "/files",
		},
		{
			Name:        "upload",
			Aliases:     []string{"u"},
			Description: "Upload file(s) to the server",
			Usage:       "/upload <path> [path...]",
		},
		{
			Name:        "paste",
			Description: "Upload an image from the clipboard",
			Usage:       "/paste",
		},
		{
			Name:        "text",
			Description: "Extract text from an uploaded file",
			Usage:       "/text <file-id>",
		},
		{
			Name:        "ocr",
			Description: "Run OCR on an uploaded image",
			Usage:       "/ocr <file-id> [languages]",
		},
		{
			Name:        "rmfile",
			Description: "Delete an uploaded file",
			Usage:       "/rmfile <file-id>",
		},
		{
			Name:        "copy",
			Aliases:     []string{"cp"},
			Description: "Copy a code block to the clipboard",
			Usage:       "/copy [n]",
		},
		{
			Name:        "speak",
			Aliases:     []string{"say"},
			Description: "Read the last reply aloud",
			Usage:       "/speak",
		},
		{
			Name:        "voice",
			Description: "Pick a synthesis voice",
			Usage:       "/voice [name]",
		},
		{
			Name:        "model",
			Aliases:     []string{"m"},
			Description: "Pick a completion model",
			Usage:       "/model [name]",
		},
		{
			Name:        "quit",
			Aliases:     []string{"q", "exit"},
			Description: "Exit chat",
			Usage:       "/quit",
		},
	}
}

// CommandSource implements fuzzy.Source for command searching
type CommandSource []Command

func (c CommandSource) String(i int) string {
	return c[i].Name
}

func (c CommandSource) Len() int {
	return len(c)
}

// FilterCommands returns commands matching the query using fuzzy search
func FilterCommands(query string) []Command {
	commands := AllCommands()
	if query == "" {
		return commands
	}

	query = strings.TrimPrefix(query, "/")

	// Exact name/alias match short-circuits, but only for
	// multi-character queries (so "/m" still shows model and memory)
	queryLower := strings.ToLower(query)
	if len(query) > 1 {
		for _, cmd := range commands {
			if cmd.Name == queryLower || slices.Contains(cmd.Aliases, queryLower) {
				return []Command{cmd}
			}
		}
	}

	source := CommandSource(commands)
	matches := fuzzy.FindFrom(query, source)

	var result []Command
	for _, match := range matches {
		result = append(result, commands[match.Index])
	}

	// If no fuzzy matches, also check prefixes
	if len(result) == 0 {
		for _, cmd := range commands {
			if strings.HasPrefix(cmd.Name, queryLower) {
				result = append(result, cmd)
			}
		}
	}

	return result
}

// ExecuteCommand handles slash command execution
func (m *Model) ExecuteCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	cmdName := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := parts[1:]

	var cmd *Command
	for _, c := range AllCommands() {
		if c.Name == cmdName || slices.Contains(c.Aliases, cmdName) {
			cmd = &c
			break
		}
	}

	if cmd == nil {
		var prefixMatches []Command
		for _, c := range AllCommands() {
			if strings.HasPrefix(c.Name, cmdName) {
				prefixMatches = append(prefixMatches, c)
			}
		}
		switch len(prefixMatches) {
		case 0:
			return m.showNotice(fmt.Sprintf("Unknown command: /%s. Type /help for available commands.", cmdName))
		case 1:
			cmd = &prefixMatches[0]
		default:
			var names []string
			for _, c := range prefixMatches {
				names = append(names, "/"+c.Name)
			}
			return m.showNotice(fmt.Sprintf("Ambiguous command: /%s. Did you mean: %s?", cmdName, strings.Join(names, ", ")))
		}
	}

	switch cmd.Name {
	case "help":
		return m.cmdHelp()
	case "new":
		return m.cmdNew()
	case "threads":
		return m.cmdThreads()
	case "rename":
		return m.cmdRename(args)
	case "delete":
		return m.cmdDelete()
	case "anchors":
		return m.cmdAnchors()
	case "anchor":
		return m.cmdAnchor(args)
	case "image":
		return m.cmdImage(args)
	case "web":
		return m.cmdWeb()
	case "memory":
		return m.cmdMemory(args)
	case "files":
		return m.cmdFiles()
	case "upload":
		return m.cmdUpload(args)
	case "paste":
		return m.cmdPaste()
	case "text":
		return m.cmdText(args)
	case "ocr":
		return m.cmdOCR(args)
	case "rmfile":
		return m.cmdRmFile(args)
	case "copy":
		return m.cmdCopy(args)
	case "speak":
		return m.cmdSpeak()
	case "voice":
		return m.cmdVoice(args)
	case "model":
		return m.cmdModel(args)
	case "quit":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// Command implementations

// showNotice renders transient command output above the input line.
func (m *Model) showNotice(content string) (tea.Model, tea.Cmd) {
	m.textarea.SetValue("")
	m.notice = m.pipeline.RenderUser(content, m.width)
	return m, nil
}

func (m *Model) cmdHelp() (tea.Model, tea.Cmd) {
	var b strings.Builder
	b.WriteString("Available commands\n\n")
	for _, cmd := range AllCommands() {
		b.WriteString(fmt.Sprintf("  %-40s %s", cmd.Usage, cmd.Description))
		if len(cmd.Aliases) > 0 {
			b.WriteString(" (aliases: " + strings.Join(cmd.Aliases, ", ") + ")")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nShortcuts\n\n")
	b.WriteString("  enter send · ctrl+j newline · ctrl+r record · esc abort recording\n")
	b.WriteString("  ctrl+t threads · ctrl+n new thread · ctrl+a anchors · ctrl+s web\n")
	b.WriteString("  ctrl+l model · ctrl+o speak · pgup/pgdn scroll · ctrl+c quit\n")
	return m.showNotice(b.String())
}

func (m *Model) cmdNew() (tea.Model, tea.Cmd) {
	m.textarea.SetValue("")
	m.ctrl.SetStatus(controller.StatusBusy, "creating thread")
	return m, m.createThreadCmd()
}

func (m *Model) cmdThreads() (tea.Model, tea.Cmd) {
	m.textarea.SetValue("")
	m.ctrl.SetStatus(controller.StatusBusy, "loading threads")
	m.dialog.pendingList = DialogThreadList
	return m, m.loadThreadsCmd()
}

func (m *Model) cmdRename(args []string) (tea.Model, tea.Cmd) {
	id, err := m.ctrl.RequireActiveThread()
	if err != nil {
		return m.showNotice("No active thread to rename.")
	}
	if len(args) == 0 {
		return m.showNotice("Usage: /rename <title>")
	}
	title := strings.Join(args, " ")
	m.textarea.SetValue("")
	return m, m.renameThreadCmd(id, title)
}

func (m *Model) cmdDelete() (tea.Model, tea.Cmd) {
	id, err := m.ctrl.RequireActiveThread()
	if err != nil {
		return m.showNotice("No active thread to delete.")
	}
	display := id
	if info, ok := m.ctrl.ActiveThreadInfo(); ok && info.Title != "" {
		display = info.Title
	}
	m.ctrl.RequestConfirm(controller.Command{
		Kind:     controller.CmdDeleteThread,
		TargetID: id,
		Display:  display,
	})
	m.textarea.SetValue("")
	return m, nil
}

func (m *Model) cmdAnchors() (tea.Model, tea.Cmd) {
	m.textarea.SetValue("")
	if m.anchorPanelOpen {
		m.anchorPanelOpen = false
		return m, nil
	}
	if _, err := m.ctrl.RequireActiveThread(); err != nil {
		return m.showNotice("No active thread.")
	}
	m.anchorPanelOpen = true
	return m, m.refreshAnchorsCmd()
}

func (m *Model) cmdAnchor(args []string) (tea.Model, tea.Cmd) {
	id, err := m.ctrl.RequireActiveThread()
	if err != nil {
		return m.showNotice("No active thread.")
	}
	if len(args) == 0 {
		return m.showNotice("Usage: /anchor <turn> [label] (no label removes the anchor), /anchor goto <turn>")
	}
	jump := false
	if args[0] == "goto" {
		if len(args) < 2 {
			return m.showNotice("Usage: /anchor goto <turn>")
		}
		jump = true
		args = args[1:]
	}
	turn, err := strconv.Atoi(args[0])
	if err != nil || turn < 1 {
		return m.showNotice(fmt.Sprintf("Invalid turn index: %s", args[0]))
	}
	if turn > m.ctrl.Timeline().UserTurns() {
		return m.showNotice(fmt.Sprintf("Turn %d is out of range (thread has %d).", turn, m.ctrl.Timeline().UserTurns()))
	}
	m.textarea.SetValue("")
	if jump {
		m.viewport.SetYOffset(m.turnLineOffset(turn))
		return m, nil
	}
	label := strings.Join(args[1:], " ")
	return m, m.anchorEditCmd(id, turn, label)
}

func (m *Model) cmdImage(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m.showNotice("Usage: /image <prompt>")
	}
	prompt := strings.Join(args, " ")
	job, err := m.ctrl.BeginImage(prompt)
	if err != nil {
		return m.showNotice(err.Error())
	}
	m.textarea.SetValue("")
	return m, m.imageCmd(job)
}

func (m *Model) cmdWeb() (tea.Model, tea.Cmd) {
	m.prefs.Web = !m.prefs.Web
	m.textarea.SetValue("")
	status := "off"
	if m.prefs.Web {
		status = "on"
	}
	return m.showNotice("Web search " + status + ".")
}

func (m *Model) cmdMemory(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 || args[0] == "list" {
		m.textarea.SetValue("")
		return m, m.memoryListCmd()
	}
	switch args[0] {
	case "on", "off":
		enable := args[0] == "on"
		m.prefs.UseMemory = enable
		m.textarea.SetValue("")
		// Persist on the active thread too, when there is one.
		if id, err := m.ctrl.RequireActiveThread(); err == nil {
			return m, func() tea.Msg {
				return memoryChangedMsg{
					note: "Memory use " + args[0] + ".",
					err:  m.setUseMemory(id, enable),
				}
			}
		}
		return m.showNotice("Memory use " + args[0] + " (for new threads).")
	case "add":
		if len(args) < 2 {
			return m.showNotice("Usage: /memory add <text>")
		}
		value := strings.Join(args[1:], " ")
		m.textarea.SetValue("")
		return m, func() tea.Msg {
			return memoryChangedMsg{note: "Memory fact added.", err: m.addMemory(value)}
		}
	case "forget":
		if len(args) < 2 {
			return m.showNotice("Usage: /memory forget <id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return m.showNotice("Invalid memory id: " + args[1])
		}
		m.ctrl.RequestConfirm(controller.Command{
			Kind:     controller.CmdForgetMemory,
			TargetID: args[1],
			Display:  fmt.Sprintf("#%d", id),
		})
		m.textarea.SetValue("")
		return m, nil
	case "restore":
		if len(args) < 2 {
			return m.showNotice("Usage: /memory restore <id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return m.showNotice("Invalid memory id: " + args[1])
		}
		m.textarea.SetValue("")
		return m, func() tea.Msg {
			return memoryChangedMsg{note: "Memory fact restored.", err: m.restoreMemory(id)}
		}
	}
	return m.showNotice("Usage: /memory [list|on|off|add <text>|forget <id>|restore <id>]")
}

func (m *Model) cmdFiles() (tea.Model, tea.Cmd) {
	files := m.assets.Files()
	if len(files) == 0 {
		m.textarea.SetValue("")
		return m, m.refreshFilesCmd()
	}
	var b strings.Builder
	b.WriteString("Uploaded files\n\n")
	for _, f := range files {
		b.WriteString(fmt.Sprintf("  %s  %s (%s, %d bytes)\n", f.ID, f.Name, f.Mime, f.Size))
	}
	return m.showNotice(b.String())
}

func (m *Model) cmdUpload(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m.showNotice("Usage: /upload <path> [path...]")
	}
	m.textarea.SetValue("")
	m.ctrl.SetStatus(controller.StatusUploading, "")
	return m, m.uploadCmd(args)
}

func (m *Model) cmdPaste() (tea.Model, tea.Cmd) {
	data, err := clipboard.ReadImage()
	if err != nil {
		return m.showNotice(err.Error())
	}
	path, err := clipboard.SaveImageToTemp(data)
	if err != nil {
		return m.showNotice(err.Error())
	}
	m.textarea.SetValue("")
	m.ctrl.SetStatus(controller.StatusUploading, "")
	return m, m.uploadCmd([]string{path})
}

func (m *Model) cmdText(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m.showNotice("Usage: /text <file-id>")
	}
	m.textarea.SetValue("")
	return m, m.extractTextCmd(args[0])
}

func (m *Model) cmdOCR(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m.showNotice("Usage: /ocr <file-id> [languages]")
	}
	lang := assets.DefaultOCRLanguages
	if len(args) > 1 {
		lang = args[1]
	}
	m.textarea.SetValue("")
	return m, m.ocrCmd(args[0], lang)
}

func (m *Model) cmdRmFile(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m.showNotice("Usage: /rmfile <file-id>")
	}
	display := args[0]
	if f, ok := m.assets.Find(args[0]); ok {
		display = f.Name
	}
	m.ctrl.RequestConfirm(controller.Command{
		Kind:     controller.CmdDeleteFile,
		TargetID: args[0],
		Display:  display,
	})
	m.textarea.SetValue("")
	return m, nil
}

func (m *Model) cmdCopy(args []string) (tea.Model, tea.Cmd) {
	copies := m.pipeline.Copies()
	var block string
	if len(args) > 0 {
		slot, err := strconv.Atoi(args[0])
		if err != nil {
			return m.showNotice("Usage: /copy [n]")
		}
		b, ok := copies.Get(slot)
		if !ok {
			return m.showNotice(fmt.Sprintf("No code block #%d.", slot))
		}
		block = b.Code
	} else {
		b, ok := copies.Last()
		if !ok {
			return m.showNotice("No code blocks to copy yet.")
		}
		block = b.Code
	}
	if err := clipboard.WriteText(block); err != nil {
		return m.showNotice(err.Error())
	}
	return m.showNotice(ui.SuccessIcon + " Copied to clipboard.")
}

func (m *Model) cmdSpeak() (tea.Model, tea.Cmd) {
	text, ok := m.ctrl.LastReply()
	if !ok {
		return m.showNotice("Nothing to speak yet.")
	}
	m.textarea.SetValue("")
	m.ctrl.SetStatus(controller.StatusSynthesizing, "")
	return m, m.speakCmd(text, m.prefs.Voice)
}

func (m *Model) cmdVoice(args []string) (tea.Model, tea.Cmd) {
	if len(args) > 0 {
		m.prefs.Voice = args[0]
		m.textarea.SetValue("")
		return m.showNotice("Voice set to " + args[0] + ".")
	}
	m.textarea.SetValue("")
	m.dialog.pendingList = DialogVoicePicker
	return m, m.voicesCmd()
}

func (m *Model) cmdModel(args []string) (tea.Model, tea.Cmd) {
	if len(args) > 0 {
		m.prefs.Model = args[0]
		m.textarea.SetValue("")
		return m.showNotice("Model set to " + args[0] + ".")
	}
	m.textarea.SetValue("")
	m.dialog.pendingList = DialogModelPicker
	return m, m.modelsCmd()
}

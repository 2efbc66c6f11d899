package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mjaros/chatterm/internal/audio"
	"github.com/mjaros/chatterm/internal/controller"
	"github.com/mjaros/chatterm/internal/history"
	"github.com/mjaros/chatterm/internal/prefs"
	"github.com/mjaros/chatterm/internal/tui/chat"
)

func init() {
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat TUI (the default command)",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	client := newClient()

	// Local transcript archive; optional, never fatal.
	var recorder controller.Recorder
	var store *history.Store
	if cfg.History.Enabled {
		s, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn().Err(err).Msg("history archive unavailable")
		} else {
			store = s
			recorder = s
			defer store.Close()
		}
	}

	var capture audio.Capture
	if pc, err := audio.NewProcessCapture(); err != nil {
		logger.Warn().Err(err).Msg("voice capture unavailable")
	} else {
		capture = pc
	}
	rec := audio.NewRecorder(capture, client, logger)

	ctrl := controller.New(recorder, logger)
	model := chat.New(cfg, client, ctrl, rec, prefs.Load(), logger)

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}

	if m, ok := final.(*chat.Model); ok {
		if err := prefs.Save(m.Prefs()); err != nil {
			logger.Warn().Err(err).Msg("preference save on exit failed")
		}
	}
	return nil
}

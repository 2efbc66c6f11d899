package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mjaros/chatterm/internal/api"
	"github.com/mjaros/chatterm/internal/config"
	"github.com/mjaros/chatterm/internal/debuglog"
	"github.com/mjaros/chatterm/internal/ui"
)

var (
	cfg    *config.Config
	logger zerolog.Logger

	serverURL string
	debugFlag bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Assistant server URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Write a debug log to the data dir")
}

var rootCmd = &cobra.Command{
	Use:   "chatterm",
	Short: "Terminal client for a conversational assistant server",
	Long: `chatterm is a terminal front end for an assistant chat server:
threads, markdown replies, turn anchors, voice input, image
generation and file uploads, all from one TUI.

Examples:
  chatterm                       # open the chat TUI
  chatterm threads               # list threads
  chatterm speak "hello there"   # synthesize speech
  chatterm history search query  # search the local archive`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if serverURL != "" {
			cfg.Server.URL = serverURL
		}
		logger = debuglog.New(cfg.Debug.Enabled || debugFlag)
		ui.InitTheme(cfg.Theme)
		return nil
	},
	RunE: runChat,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *api.Client {
	return api.New(cfg.Server.URL, logger)
}

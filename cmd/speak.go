package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mjaros/chatterm/internal/audio"
	"github.com/mjaros/chatterm/internal/prefs"
	"github.com/mjaros/chatterm/internal/signal"
	"github.com/mjaros/chatterm/internal/ui"
)

var (
	speakVoice  string
	speakOutput string
)

func init() {
	speakCmd.Flags().StringVar(&speakVoice, "voice", "", "Synthesis voice (default from preferences)")
	speakCmd.Flags().StringVarP(&speakOutput, "output", "o", "", "Write audio to a file instead of playing it")
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(voicesCmd)
	rootCmd.AddCommand(modelsCmd)
}

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "Synthesize speech from text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		voice := speakVoice
		if voice == "" {
			voice = prefs.Load().Voice
		}

		ctx, stop := signal.NotifyContext()
		defer stop()

		client := newClient()
		data, err := client.Synthesize(ctx, strings.Join(args, " "), voice)
		if err != nil {
			return err
		}

		if speakOutput != "" {
			if err := os.WriteFile(speakOutput, data, 0o644); err != nil {
				return fmt.Errorf("write audio: %w", err)
			}
			fmt.Println(ui.DefaultStyles().FormatResult(true, "Wrote "+speakOutput))
			return nil
		}
		return audio.Play(cfg.Audio.Player, data)
	},
}

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List available synthesis voices",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		list, err := client.Voices(context.Background())
		if err != nil {
			return err
		}
		styles := ui.DefaultStyles()
		for _, v := range list.Voices {
			if v == list.Default {
				fmt.Println(styles.Highlighted.Render(v) + styles.Muted.Render(" (default)"))
			} else {
				fmt.Println(v)
			}
		}
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available completion models",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		list, err := client.Models(context.Background())
		if err != nil {
			return err
		}
		styles := ui.DefaultStyles()
		for _, m := range list.Models {
			if m == list.Default {
				fmt.Println(styles.Highlighted.Render(m) + styles.Muted.Render(" (default)"))
			} else {
				fmt.Println(m)
			}
		}
		return nil
	},
}

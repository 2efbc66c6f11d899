package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mjaros/chatterm/internal/signal"
)

func init() {
	rootCmd.AddCommand(transcribeCmd)
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file>",
	Short: "Transcribe an audio file through the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext()
		defer stop()

		client := newClient()
		text, err := client.Transcribe(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

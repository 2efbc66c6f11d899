package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mjaros/chatterm/internal/anchors"
	"github.com/mjaros/chatterm/internal/ui"
)

func init() {
	anchorsCmd.AddCommand(anchorsSetCmd)
	anchorsCmd.AddCommand(anchorsRmCmd)
	rootCmd.AddCommand(anchorsCmd)
}

var anchorsCmd = &cobra.Command{
	Use:   "anchors <thread-id>",
	Short: "List a thread's turn anchors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		list, err := client.ListAnchors(context.Background(), args[0])
		if err != nil {
			return err
		}
		styles := ui.DefaultStyles()
		if len(list) == 0 {
			fmt.Println(styles.Muted.Render("No anchors."))
			return nil
		}
		for _, a := range list {
			fmt.Printf("%4d  %s\n", a.TurnIndex, a.Label)
		}
		return nil
	},
}

var anchorsSetCmd = &cobra.Command{
	Use:   "set <thread-id> <turn> <label>",
	Short: "Set or replace a turn's anchor label",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		turn, err := strconv.Atoi(args[1])
		if err != nil || turn < 1 {
			return fmt.Errorf("invalid turn index %q", args[1])
		}
		sync := anchors.New(newClient())
		label := strings.Join(args[2:], " ")
		if err := sync.Edit(context.Background(), args[0], turn, label); err != nil {
			return err
		}
		fmt.Println(ui.DefaultStyles().FormatResult(true, "Anchor saved."))
		return nil
	},
}

var anchorsRmCmd = &cobra.Command{
	Use:   "rm <thread-id> <turn>",
	Short: "Remove a turn's anchor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		turn, err := strconv.Atoi(args[1])
		if err != nil || turn < 1 {
			return fmt.Errorf("invalid turn index %q", args[1])
		}
		// An empty label is the delete path.
		sync := anchors.New(newClient())
		if err := sync.Edit(context.Background(), args[0], turn, ""); err != nil {
			return err
		}
		fmt.Println(ui.DefaultStyles().FormatResult(true, "Anchor removed."))
		return nil
	},
}

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mjaros/chatterm/internal/ui"
)

func init() {
	threadsRmCmd.Flags().BoolVarP(&threadsRmYes, "yes", "y", false, "Skip the confirmation prompt")
	threadsCmd.AddCommand(threadsNewCmd)
	threadsCmd.AddCommand(threadsRmCmd)
	threadsCmd.AddCommand(threadsRenameCmd)
	threadsCmd.AddCommand(threadsMemoryCmd)
	threadsCmd.AddCommand(threadsShowCmd)
	rootCmd.AddCommand(threadsCmd)
}

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "List and manage conversation threads",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		threads, err := client.ListThreads(context.Background())
		if err != nil {
			return err
		}

		styles := ui.DefaultStyles()
		if len(threads) == 0 {
			fmt.Println(styles.Muted.Render("No threads yet. Start one with: chatterm"))
			return nil
		}
		for _, t := range threads {
			title := t.Title
			if title == "" {
				title = "(untitled)"
			}
			mem := " "
			if t.UseMemory {
				mem = styles.Success.Render(ui.EnabledIcon)
			}
			fmt.Printf("%s  %s %s\n", styles.Muted.Render(t.ID), mem, title)
		}
		return nil
	},
}

var threadsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a thread",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		id, err := client.CreateThread(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var threadsRmYes bool

var threadsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !threadsRmYes {
			prompt := fmt.Sprintf("Delete thread %s? [y/N]: ", args[0])
			if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
				fmt.Println("Aborted.")
				return nil
			}
		}
		client := newClient()
		if err := client.DeleteThread(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println(ui.DefaultStyles().FormatResult(true, "Thread deleted."))
		return nil
	},
}

var threadsRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a thread",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		title := strings.Join(args[1:], " ")
		if err := client.RenameThread(context.Background(), args[0], title); err != nil {
			return err
		}
		fmt.Println(ui.DefaultStyles().FormatResult(true, "Thread renamed."))
		return nil
	},
}

var threadsMemoryCmd = &cobra.Command{
	Use:   "memory <id> <on|off>",
	Short: "Toggle memory use for a thread",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var enable bool
		switch args[1] {
		case "on":
			enable = true
		case "off":
			enable = false
		default:
			return fmt.Errorf("expected on or off, got %q", args[1])
		}
		client := newClient()
		if err := client.SetUseMemory(context.Background(), args[0], enable); err != nil {
			return err
		}
		styles := ui.DefaultStyles()
		fmt.Printf("Memory use: %s\n", styles.FormatEnabled(enable))
		return nil
	},
}

var threadsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a thread's messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		msgs, err := client.LoadThread(context.Background(), args[0])
		if err != nil {
			return err
		}
		styles := ui.DefaultStyles()
		for _, m := range msgs {
			if m.Image != nil {
				fmt.Printf("%s %s (%s)\n", styles.Subtitle.Render(string(m.Role)+":"), m.Image.URL, m.Image.Prompt)
				continue
			}
			fmt.Printf("%s %s\n", styles.Subtitle.Render(string(m.Role)+":"), m.Content)
		}
		return nil
	},
}

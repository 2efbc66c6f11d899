package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mjaros/chatterm/internal/ui"
)

var memoryShowInactive bool

func init() {
	memoryCmd.Flags().BoolVar(&memoryShowInactive, "all", false, "Include forgotten facts")
	memoryCmd.AddCommand(memoryAddCmd)
	memoryCmd.AddCommand(memoryForgetCmd)
	memoryCmd.AddCommand(memoryRestoreCmd)
	rootCmd.AddCommand(memoryCmd)
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "List and manage the assistant's memory facts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		facts, err := client.ListMemory(context.Background(), !memoryShowInactive)
		if err != nil {
			return err
		}
		styles := ui.DefaultStyles()
		if len(facts) == 0 {
			fmt.Println(styles.Muted.Render("No memory facts."))
			return nil
		}
		for _, f := range facts {
			scope := ""
			if f.Scope != "" {
				scope = styles.Muted.Render(" [" + f.Scope + "]")
			}
			fmt.Printf("%s  %s%s\n", styles.Muted.Render(fmt.Sprintf("#%d", f.ID)), f.Value, scope)
		}
		return nil
	},
}

var memoryAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a memory fact",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		value := strings.Join(args, " ")
		if err := client.AddMemory(context.Background(), nil, value, "global"); err != nil {
			return err
		}
		fmt.Println(ui.DefaultStyles().FormatResult(true, "Memory fact added."))
		return nil
	},
}

var memoryForgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Forget a memory fact (soft delete)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid memory id %q", args[0])
		}
		client := newClient()
		if err := client.ForgetMemory(context.Background(), id); err != nil {
			return err
		}
		fmt.Println(ui.DefaultStyles().FormatResult(true, "Memory fact forgotten."))
		return nil
	},
}

var memoryRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a forgotten memory fact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid memory id %q", args[0])
		}
		client := newClient()
		if err := client.RestoreMemory(context.Background(), id); err != nil {
			return err
		}
		fmt.Println(ui.DefaultStyles().FormatResult(true, "Memory fact restored."))
		return nil
	},
}

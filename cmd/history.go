package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mjaros/chatterm/internal/history"
	"github.com/mjaros/chatterm/internal/ui"
)

var historyLimit int

func init() {
	historySearchCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum results")
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Search the local transcript archive",
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search archived messages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.History.Enabled {
			return fmt.Errorf("history archive is disabled (history.enabled: false)")
		}
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		hits, err := store.Search(context.Background(), strings.Join(args, " "), historyLimit)
		if err != nil {
			return err
		}
		styles := ui.DefaultStyles()
		if len(hits) == 0 {
			fmt.Println(styles.Muted.Render("No matches."))
			return nil
		}
		for _, h := range hits {
			snippet := strings.ReplaceAll(h.Text, "\n", " ")
			fmt.Printf("%s %s %s\n",
				styles.Muted.Render(h.CreatedAt.Format("2006-01-02 15:04")),
				styles.Subtitle.Render("["+h.ThreadID+" "+string(h.Role)+"]"),
				ui.Truncate(snippet, 100))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <thread-id>",
	Short: "Print a thread's archived transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.History.Enabled {
			return fmt.Errorf("history archive is disabled (history.enabled: false)")
		}
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Thread(context.Background(), args[0])
		if err != nil {
			return err
		}
		styles := ui.DefaultStyles()
		for _, e := range entries {
			fmt.Printf("%s %s\n", styles.Subtitle.Render(string(e.Role)+":"), e.Text)
		}
		return nil
	},
}

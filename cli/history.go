package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookhaven/bookhaven-cli/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent activity",
	Long:  `List recent searches and downloads recorded on this machine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.history.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No activity recorded yet.")
			return nil
		}

		fmt.Println("Recent Activity:")
		fmt.Println("----------------")
		for _, e := range entries {
			ts := e.CreatedAt.Format("2006-01-02 15:04")
			switch e.Kind {
			case history.KindDownload:
				fmt.Printf("[%s] downloaded %s -> %s\n", ts, e.BookID, e.Detail)
			case history.KindSearch:
				fmt.Printf("[%s] searched %q\n", ts, e.Detail)
			default:
				fmt.Printf("[%s] %s %s\n", ts, e.Kind, e.Detail)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of entries to show")
}

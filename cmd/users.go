package cmd

import (
	"fmt"

	"github.com/theirongolddev/tutstat/internal/cli"
	"github.com/theirongolddev/tutstat/internal/pipeline"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Per-user views and average session duration",
	RunE:  runUsers,
}

var usersLimit int

func init() {
	usersCmd.Flags().IntVarP(&usersLimit, "limit", "l", 20, "Number of users to show (0 for all)")
	rootCmd.AddCommand(usersCmd)
}

func runUsers(_ *cobra.Command, _ []string) error {
	_, w, err := loadWindow()
	if err != nil {
		return err
	}

	stats := pipeline.UserStats(w.Sessions)
	if len(stats) == 0 {
		printEmpty()
		return nil
	}
	total := len(stats)
	if usersLimit > 0 && len(stats) > usersLimit {
		stats = stats[:usersLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("USERS  %s (showing %d of %d)", w.Label, len(stats), total)))
	fmt.Println()

	rows := make([][]string, 0, len(stats))
	for _, u := range stats {
		rows = append(rows, []string{
			truncate(u.UserID, 24),
			cli.FormatNumber(int64(u.Views)),
			cli.FormatMinutes(u.AvgMinutes),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"User", "Views", "Avg Session"},
		Rows:    rows,
	}))
	return nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}

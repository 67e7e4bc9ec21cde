package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/tutstat/internal/cli"
	"github.com/theirongolddev/tutstat/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals and averages for the selected range",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	result, w, err := loadWindow()
	if err != nil {
		return err
	}

	stats := pipeline.Summary(w.Sessions)
	if stats.TotalSessions == 0 {
		printEmpty()
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("TUTORIAL SESSIONS  " + w.Label))
	fmt.Println()

	rows := [][]string{
		{"Sessions", cli.FormatNumber(int64(stats.TotalSessions))},
		{"Users", cli.FormatNumber(int64(stats.DistinctUsers))},
		{"Tutorials", cli.FormatNumber(int64(stats.DistinctTutorials))},
		{"Active Days", cli.FormatNumber(int64(stats.ActiveDays))},
		{"---"},
		{"Total Time", cli.FormatDuration(stats.TotalDuration)},
		{"Avg Session", cli.FormatMinutes(stats.AvgSessionMinutes)},
		{"Sessions/day", cli.FormatFloat(stats.SessionsPerDay)},
		{"Views/user", cli.FormatFloat(stats.ViewsPerUser)},
		{"---"},
		{"First Session End", cli.FormatTime(stats.FirstEnd)},
		{"Last Session End", cli.FormatTime(stats.LastEnd)},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if result.Rejected > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d sessions with negative duration were skipped\n", result.Rejected)
	}
	return nil
}

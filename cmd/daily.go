package cmd

import (
	"fmt"

	"github.com/theirongolddev/tutstat/internal/cli"
	"github.com/theirongolddev/tutstat/internal/pipeline"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily activity table",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	_, w, err := loadWindow()
	if err != nil {
		return err
	}

	days := pipeline.DailyActivity(w.Sessions)
	if len(days) == 0 {
		printEmpty()
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("DAILY ACTIVITY  " + w.Label))
	fmt.Println()

	counts := make([]float64, 0, len(days))
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		counts = append(counts, float64(d.Sessions))
		rows = append(rows, []string{
			cli.FormatDate(d.Date),
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			cli.FormatNumber(int64(d.Sessions)),
			cli.FormatNumber(int64(d.DistinctUsers)),
			cli.FormatMinutes(d.AvgSessionMinutes),
			cli.FormatFloat(d.SessionsPerUser),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Sessions", "Users", "Avg Session", "Per User"},
		Rows:    rows,
	}))

	if len(days) > 1 {
		fmt.Println()
		fmt.Printf("  Sessions %s\n", cli.RenderSparkline(counts))
	}
	return nil
}

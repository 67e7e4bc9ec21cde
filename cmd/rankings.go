package cmd

import (
	"fmt"

	"github.com/theirongolddev/tutstat/internal/cli"
	"github.com/theirongolddev/tutstat/internal/model"
	"github.com/theirongolddev/tutstat/internal/pipeline"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Most viewed tags per day",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runRanking(cmd, "TOP TAGS", "Tag", pipeline.TopTagsFor)
	},
}

var tutorialsCmd = &cobra.Command{
	Use:   "tutorials",
	Short: "Most viewed tutorials per day",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runRanking(cmd, "TOP TUTORIALS", "Tutorial", pipeline.TopTutorialsFor)
	},
}

var flagTop int

func init() {
	for _, c := range []*cobra.Command{tagsCmd, tutorialsCmd} {
		c.Flags().IntVarP(&flagTop, "top", "n", 0, "Entries per day (default from config)")
		rootCmd.AddCommand(c)
	}
}

func runRanking(cmd *cobra.Command, title, nameHeader string, rank func([]model.JoinedSession, int) []model.RankEntry) error {
	result, w, err := loadWindow()
	if err != nil {
		return err
	}

	topN := appCfg.Rankings.TopN
	if cmd.Flags().Changed("top") {
		topN = flagTop
	}

	entries := rank(pipeline.Join(result.Dataset, w.Sessions), topN)
	if len(entries) == 0 {
		printEmpty()
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s (top %d/day)", title, w.Label, topN)))
	fmt.Println()

	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		if i > 0 && !e.Date.Equal(entries[i-1].Date) {
			rows = append(rows, []string{"---"})
		}
		name := truncate(e.Name, 36)
		if e.Unresolved {
			name = "(unknown)"
		}
		rows = append(rows, []string{
			cli.FormatDate(e.Date),
			name,
			cli.FormatNumber(int64(e.Count)),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", nameHeader, "Sessions"},
		Rows:    rows,
	}))
	return nil
}

package cmd

import (
	"fmt"

	"github.com/theirongolddev/tutstat/internal/cli"
	"github.com/theirongolddev/tutstat/internal/pipeline"

	"github.com/spf13/cobra"
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Distribution of tutorial views per user",
	RunE:  runViews,
}

var viewsSpec bucketFlags

func init() {
	viewsSpec.register(viewsCmd.Flags(), "views")
	rootCmd.AddCommand(viewsCmd)
}

func runViews(_ *cobra.Command, _ []string) error {
	spec, err := viewsSpec.resolve(appCfg.Histograms.Views)
	if err != nil {
		return err
	}
	_, w, err := loadWindow()
	if err != nil {
		return err
	}

	views := pipeline.ViewsByUser(w.Sessions)
	if len(views) == 0 {
		printEmpty()
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("VIEWS PER USER  " + w.Label))
	fmt.Println()
	fmt.Print(cli.RenderHistogram(pipeline.ViewCountHistogram(views, spec), "views", 40))
	fmt.Println()
	return nil
}

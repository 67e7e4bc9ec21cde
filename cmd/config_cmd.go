package cmd

import (
	"fmt"

	"github.com/theirongolddev/tutstat/internal/config"
	"github.com/theirongolddev/tutstat/internal/model"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	if src := config.GetSource(cfg); src != "" {
		fmt.Printf("    Source:                  %s\n", src)
	} else {
		fmt.Println("    Source:                  not configured")
	}
	fmt.Printf("    Reject negative durations: %v\n", cfg.General.RejectNegativeDurations)
	fmt.Println()

	fmt.Println("  [Rankings]")
	fmt.Printf("    Top N per day: %d\n", cfg.Rankings.TopN)
	fmt.Println()

	fmt.Println("  [Histograms]")
	fmt.Printf("    Durations (min): %s\n", formatSpec(cfg.Histograms.Durations))
	fmt.Printf("    Views:           %s\n", formatSpec(cfg.Histograms.Views))
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address: %s\n", cfg.Daemon.Addr)
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Level:  %s\n", cfg.Logging.Level)
	fmt.Printf("    Format: %s\n", cfg.Logging.Format)
	fmt.Println()

	fmt.Println("  Run `tutstat setup` to reconfigure.")
	return nil
}

func formatSpec(s model.HistogramSpec) string {
	return fmt.Sprintf("[%g, %g) step %g", s.Start, s.End, s.Size)
}

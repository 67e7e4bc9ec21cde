package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/theirongolddev/tutstat/internal/cli"
	"github.com/theirongolddev/tutstat/internal/config"
	"github.com/theirongolddev/tutstat/internal/source"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)
	cfg := appCfg

	fmt.Println()
	fmt.Println("  Welcome to tutstat!")
	fmt.Println()

	// 1. Dataset source
	fmt.Println("  1. Dataset location")
	fmt.Println("     A zip archive or directory holding sessions.csv, tutorials.csv and tags.csv.")
	if cfg.General.Source != "" {
		fmt.Printf("     Current: %s\n", cfg.General.Source)
	}
	fmt.Print("     > ")
	src := readLine(reader)
	if src != "" {
		cfg.General.Source = src
	}
	if cfg.General.Source != "" {
		if a, err := source.Discover(cfg.General.Source); err != nil {
			fmt.Print(cli.RenderWarning(fmt.Sprintf("   %v", err)))
		} else {
			_, size := a.Fingerprint()
			fmt.Printf("     Found all tables (%s bytes)\n", cli.FormatNumber(size))
			_ = a.Close()
		}
	}
	fmt.Println()

	// 2. Negative durations
	fmt.Println("  2. Sessions that end before they start")
	fmt.Println("     (1) Skip and count them [default]")
	fmt.Println("     (2) Keep them")
	fmt.Print("     > ")
	cfg.General.RejectNegativeDurations = readLine(reader) != "2"
	fmt.Println()

	// 3. Ranking depth
	fmt.Printf("  3. Entries per day in top tags/tutorials [%d]\n", cfg.Rankings.TopN)
	fmt.Print("     > ")
	if v := readLine(reader); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.New("top N must be a positive integer")
		}
		cfg.Rankings.TopN = n
	}
	fmt.Println()

	// 4. Daemon address
	fmt.Printf("  4. Daemon listen address [%s]\n", cfg.Daemon.Addr)
	fmt.Print("     > ")
	if v := readLine(reader); v != "" {
		cfg.Daemon.Addr = v
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `tutstat setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

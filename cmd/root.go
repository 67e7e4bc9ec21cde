// Package cmd implements the tutstat CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/tutstat/internal/cli"
	"github.com/theirongolddev/tutstat/internal/config"
	"github.com/theirongolddev/tutstat/internal/logger"
	"github.com/theirongolddev/tutstat/internal/model"
	"github.com/theirongolddev/tutstat/internal/pipeline"
	"github.com/theirongolddev/tutstat/internal/source"
	"github.com/theirongolddev/tutstat/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagSource   string
	flagFrom     string
	flagTo       string
	flagYear     int
	flagMonth    int
	flagDay      int
	flagNoCache  bool
	flagQuiet    bool
	flagLogLevel string
)

var (
	appCfg = config.DefaultConfig()
	log    = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:               "tutstat",
	Short:             "Tutorial session analytics CLI",
	Long:              "Aggregate tutorial viewing sessions: daily activity, per-user distributions and top tags and tutorials.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagSource, "source", "s", "", "Dataset zip archive or directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagFrom, "from", "", "Range start, YYYY-MM-DD[ HH:MM:SS] (default: first session)")
	rootCmd.PersistentFlags().StringVar(&flagTo, "to", "", "Range end, inclusive (default: last session)")
	rootCmd.PersistentFlags().IntVar(&flagYear, "year", 0, "Select a calendar year (overrides --from/--to)")
	rootCmd.PersistentFlags().IntVar(&flagMonth, "month", 0, "Select a month of --year (1-12)")
	rootCmd.PersistentFlags().IntVar(&flagDay, "day", 0, "Select a day of --month")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse the source")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
}

// setup loads the config file and builds the logger before any command runs.
func setup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", config.Path(), err)
	}
	appCfg = cfg

	level := cfg.Logging.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if flagQuiet && flagLogLevel == "" {
		level = "error"
	}
	l, err := logger.New(os.Stderr, level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	log = l
	return nil
}

func sourcePath() (string, error) {
	if flagSource != "" {
		return flagSource, nil
	}
	if src := config.GetSource(appCfg); src != "" {
		return src, nil
	}
	return "", errors.New("no dataset source: pass --source, set TUTSTAT_SOURCE or run `tutstat setup`")
}

func loadOptions() source.Options {
	return source.Options{RejectNegativeDurations: appCfg.General.RejectNegativeDurations}
}

// loadData is the shared data loading path used by all commands.
// Uses SQLite cache when available for fast subsequent runs.
func loadData() (*pipeline.LoadResult, error) {
	path, err := sourcePath()
	if err != nil {
		return nil, err
	}
	opts := loadOptions()

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Loading %s...\n", path)
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Parsing tables %s", cli.RenderProgressBar(current, total, 12))
	}

	result, err := loadWithCacheOrParse(path, opts, progressFn)
	if err != nil {
		return nil, err
	}

	if result.Rejected > 0 {
		log.Warnw("rejected sessions with negative duration", "count", result.Rejected, "source", path)
	}
	return result, nil
}

func loadWithCacheOrParse(path string, opts source.Options, progressFn pipeline.ProgressFunc) (*pipeline.LoadResult, error) {
	// Try cached load unless --no-cache
	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			// Cache open failed, fall back to uncached
			log.Warnw("cache unavailable, doing full parse", "error", err)
		} else {
			defer cache.Close()

			cr, err := pipeline.LoadWithCache(path, opts, cache, progressFn)
			switch {
			case err == nil:
				if cr.CacheErr != nil {
					log.Warnw("dataset cache not updated", "error", cr.CacheErr)
				}
				if !flagQuiet {
					how := "parsed"
					if cr.FromCache {
						how = "loaded from cache"
					}
					fmt.Fprintf(os.Stderr, "\r  %s sessions %s    \n",
						cli.FormatNumber(int64(len(cr.Dataset.Sessions()))), how)
				}
				return &cr.LoadResult, nil
			case errors.Is(err, source.ErrSourceUnavailable), errors.Is(err, source.ErrSchemaMismatch):
				return nil, err
			default:
				log.Warnw("cache error, falling back to full parse", "error", err)
			}
		}
	}

	// Uncached path
	result, err := pipeline.Load(path, opts, progressFn)
	if err != nil {
		return nil, err
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "\r  Parsed %s sessions    \n",
			cli.FormatNumber(int64(len(result.Dataset.Sessions()))))
	}
	return result, nil
}

// window is the selected time range and the sessions ending within it.
type window struct {
	Start    time.Time
	End      time.Time
	Label    string
	Sessions []model.Session
}

// selectWindow applies the calendar or range flags to the dataset.
func selectWindow(ds *model.Dataset) (window, error) {
	if flagDay != 0 && flagMonth == 0 {
		return window{}, errors.New("--day needs --month")
	}
	if flagYear != 0 {
		cal := model.Calendar{Year: flagYear, Month: time.Month(flagMonth), Day: flagDay}
		if !cal.Valid() {
			return window{}, fmt.Errorf("invalid calendar selection year=%d month=%d day=%d", flagYear, flagMonth, flagDay)
		}
		start, end := cal.Bounds()
		return window{
			Start:    start,
			End:      end,
			Label:    calendarLabel(cal),
			Sessions: pipeline.SelectByCalendar(ds.Sessions(), cal),
		}, nil
	}
	if flagMonth != 0 || flagDay != 0 {
		return window{}, errors.New("--month and --day need --year")
	}

	start, end := ds.Span()
	if flagFrom == "" && flagTo == "" {
		// No bounds: every session, including any that end before the
		// earliest start.
		return window{
			Start:    start,
			End:      end,
			Label:    fmt.Sprintf("%s to %s", cli.FormatDate(start), cli.FormatDate(end)),
			Sessions: ds.Sessions(),
		}, nil
	}
	if flagFrom != "" {
		t, err := pipeline.ParseBound(flagFrom, false)
		if err != nil {
			return window{}, fmt.Errorf("--from: %w", err)
		}
		start = t
	}
	if flagTo != "" {
		t, err := pipeline.ParseBound(flagTo, true)
		if err != nil {
			return window{}, fmt.Errorf("--to: %w", err)
		}
		end = t
	}

	return window{
		Start:    start,
		End:      end,
		Label:    fmt.Sprintf("%s to %s", cli.FormatDate(start), cli.FormatDate(end)),
		Sessions: pipeline.SelectRange(ds.Sessions(), start, end),
	}, nil
}

func calendarLabel(c model.Calendar) string {
	switch {
	case c.Month == 0:
		return fmt.Sprintf("%04d", c.Year)
	case c.Day == 0:
		return fmt.Sprintf("%04d-%02d", c.Year, int(c.Month))
	default:
		return fmt.Sprintf("%04d-%02d-%02d", c.Year, int(c.Month), c.Day)
	}
}

// loadWindow loads the dataset and applies the selection flags.
func loadWindow() (*pipeline.LoadResult, window, error) {
	result, err := loadData()
	if err != nil {
		return nil, window{}, err
	}
	w, err := selectWindow(result.Dataset)
	if err != nil {
		return nil, window{}, err
	}
	return result, w, nil
}

func printEmpty() {
	fmt.Println()
	fmt.Print(cli.RenderWarning("No sessions in the selected range."))
}

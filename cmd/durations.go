package cmd

import (
	"fmt"

	"github.com/theirongolddev/tutstat/internal/cli"
	"github.com/theirongolddev/tutstat/internal/model"
	"github.com/theirongolddev/tutstat/internal/pipeline"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var durationsCmd = &cobra.Command{
	Use:   "durations",
	Short: "Distribution of per-user average session duration",
	RunE:  runDurations,
}

var durationsSpec bucketFlags

func init() {
	durationsSpec.register(durationsCmd.Flags(), "minutes")
	rootCmd.AddCommand(durationsCmd)
}

// bucketFlags overrides the configured histogram domain from the command line.
type bucketFlags struct {
	start, end, size float64
	flags            *pflag.FlagSet
}

func (b *bucketFlags) register(fs *pflag.FlagSet, unit string) {
	fs.Float64Var(&b.start, "start", 0, "Histogram lower bound in "+unit+" (default from config)")
	fs.Float64Var(&b.end, "end", 0, "Histogram upper bound in "+unit+", exclusive (default from config)")
	fs.Float64Var(&b.size, "size", 0, "Bucket width in "+unit+" (default from config)")
	b.flags = fs
}

// resolve applies any flags the user set on top of base.
func (b *bucketFlags) resolve(base model.HistogramSpec) (model.HistogramSpec, error) {
	spec := base
	if b.flags.Changed("start") {
		spec.Start = b.start
	}
	if b.flags.Changed("end") {
		spec.End = b.end
	}
	if b.flags.Changed("size") {
		spec.Size = b.size
	}
	if !spec.Valid() {
		return spec, fmt.Errorf("invalid histogram: start=%g end=%g size=%g (need start < end, 0 < size, at most %d buckets)",
			spec.Start, spec.End, spec.Size, model.MaxHistogramBuckets)
	}
	return spec, nil
}

func runDurations(_ *cobra.Command, _ []string) error {
	spec, err := durationsSpec.resolve(appCfg.Histograms.Durations)
	if err != nil {
		return err
	}
	_, w, err := loadWindow()
	if err != nil {
		return err
	}

	avg := pipeline.AvgDurationByUser(w.Sessions)
	if len(avg) == 0 {
		printEmpty()
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("AVG SESSION DURATION PER USER  " + w.Label))
	fmt.Println()
	fmt.Print(cli.RenderHistogram(pipeline.DurationHistogram(avg, spec), "min", 40))
	fmt.Println()
	return nil
}

package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voluzi/peakmem/pkg/environ"
	"github.com/voluzi/peakmem/pkg/procinfo"
	"github.com/voluzi/peakmem/pkg/sampler"
	"github.com/voluzi/peakmem/pkg/tracer"
)

var sampleInterval float64
var sampleMaxLines int
var sampleKeepLines int

var sampleCmd = &cobra.Command{
	Use:   "sample <pid>... <output>",
	Short: "Records peak memory of processes into a file until terminated",
	Long: `Polls the resident memory of the given processes every interval and appends
their peaks, followed by the peak of their sum, as one line to output. Runs
until it receives a termination signal.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output := args[len(args)-1]
		pids, err := parsePids(args[:len(args)-1])
		if err != nil {
			log.Fatal(err)
		}

		s := sampler.New(pids, output, procinfo.NewInspector(procinfo.DefaultCmdlineTTL),
			sampler.WithInterval(sampler.IntervalFromMillis(sampleInterval)),
			sampler.WithMaxLines(sampleMaxLines),
			sampler.WithKeepLines(sampleKeepLines),
		)
		if err := s.Run(context.Background()); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	sampleCmd.Flags().Float64Var(&sampleInterval, "interval",
		environ.GetFloat64("PEAKMEM_INTERVAL", tracer.DefaultInterval),
		"Interval in milliseconds between two samples",
	)
	sampleCmd.Flags().IntVar(&sampleMaxLines, "max-lines",
		environ.GetInt("PEAKMEM_MAX_LINES", sampler.DefaultMaxLines),
		"Number of appended lines after which the output is compacted",
	)
	sampleCmd.Flags().IntVar(&sampleKeepLines, "keep-lines",
		environ.GetInt("PEAKMEM_KEEP_LINES", sampler.DefaultKeepLines),
		"Number of lines kept when the output is compacted",
	)
}

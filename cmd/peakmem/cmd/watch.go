package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voluzi/peakmem/pkg/report"
	"github.com/voluzi/peakmem/pkg/sampler"
)

var watchPids int
var watchOutput string

var watchCmd = &cobra.Command{
	Use:   "watch <log>",
	Short: "Follows a peak log written by a running sampler",
	Long: `Prints every record appended to a peak log. The log is reopened when the
sampler compacts it, so the retained records are printed again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchOutput != string(report.FormatText) && watchOutput != string(report.FormatJSON) {
			return errors.Errorf("unsupported output format %q", watchOutput)
		}

		follower, err := sampler.NewFollower(args[0], watchPids)
		if err != nil {
			return errors.WrapIff(err, "failed to follow %s", args[0])
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigs)
		go func() {
			<-sigs
			if err := follower.Stop(); err != nil {
				log.Debugf("failed to stop follower: %v", err)
			}
		}()
		go follower.Start()

		enc := json.NewEncoder(cmd.OutOrStdout())
		for record := range follower.Records {
			if record.Err != nil {
				log.Warnf("skipping record: %v", record.Err)
				continue
			}
			if watchOutput == string(report.FormatJSON) {
				if err := enc.Encode(record.Record); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatRecord(record.Record))
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchPids, "pids", -1,
		"Number of tracked processes per record. Negative accepts any",
	)
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", string(report.FormatText),
		"Output format. One of text, json",
	)
}

func formatRecord(r sampler.Record) string {
	peaks := make([]string, 0, len(r.Peaks))
	for _, p := range r.Peaks {
		peaks = append(peaks, report.FormatBytes(p))
	}
	return fmt.Sprintf("peaks: [%s] total: %s", strings.Join(peaks, ", "), report.FormatBytes(r.Total))
}

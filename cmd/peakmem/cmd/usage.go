package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emperror.dev/errors"
	"github.com/spf13/cobra"
	"k8s.io/utils/ptr"

	"github.com/voluzi/peakmem/pkg/environ"
	"github.com/voluzi/peakmem/pkg/procinfo"
	"github.com/voluzi/peakmem/pkg/report"
)

var usageFlags reportFlags
var usageEvery time.Duration

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Reports the current memory usage of the notebook and jupyter processes",
	Example: `  peakmem usage -n -j
  peakmem usage -j --every 5s -o prom`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		usageFlags.applyConfig(cmd, cfg)
		if !usageFlags.notebook && !usageFlags.jupyter {
			return errors.New("at least one of --notebook or --jupyter is required")
		}
		format, err := report.ParseFormat(usageFlags.output)
		if err != nil {
			return err
		}

		inspector := procinfo.NewInspector(procinfo.DefaultCmdlineTTL)
		if usageEvery <= 0 {
			rep, err := currentUsage(inspector)
			if err != nil {
				return err
			}
			return rep.Write(cmd.OutOrStdout(), format, usageFlags.table)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return repeat(ctx, usageEvery, func() error {
			rep, err := currentUsage(inspector)
			if err != nil {
				return err
			}
			return rep.Write(cmd.OutOrStdout(), format, usageFlags.table)
		})
	},
}

func init() {
	usageFlags.register(usageCmd)
	usageCmd.Flags().DurationVar(&usageEvery, "every",
		environ.GetDuration("PEAKMEM_EVERY", 0),
		"Print the report repeatedly at this interval until interrupted",
	)
}

func currentUsage(inspector *procinfo.Inspector) (*report.Report, error) {
	rep := &report.Report{}
	if usageFlags.notebook {
		current, err := inspector.ResidentMemory(usageFlags.notebookPid)
		if err != nil {
			return nil, err
		}
		rep.Notebook = &report.Usage{Current: ptr.To(current)}
	}
	if usageFlags.jupyter {
		pids, err := jupyterPids(inspector, usageFlags.match, int32(os.Getpid()))
		if err != nil {
			return nil, err
		}
		rep.Jupyter = &report.Usage{Current: ptr.To(inspector.TotalResidentMemory(pids))}
	}
	return rep, nil
}

// repeat calls fn right away and then on every tick until ctx is done.
func repeat(ctx context.Context, every time.Duration, fn func() error) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if err := fn(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

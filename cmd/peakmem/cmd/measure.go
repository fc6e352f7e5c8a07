package cmd

import (
	"context"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"k8s.io/utils/ptr"

	"github.com/voluzi/peakmem/pkg/environ"
	"github.com/voluzi/peakmem/pkg/procinfo"
	"github.com/voluzi/peakmem/pkg/report"
	"github.com/voluzi/peakmem/pkg/tracer"
)

// MinInterval is the smallest sampling interval accepted by measure, in
// milliseconds.
const MinInterval = 10.0

var measureFlags reportFlags
var measureInterval float64
var measureQuiet bool
var measureStartupDelay time.Duration

var measureCmd = &cobra.Command{
	Use:   "measure [flags] -- <command> [args...]",
	Short: "Runs a command and reports its peak memory usage",
	Long: `Runs a command while a sampler records the peak resident memory of the
command and, with --notebook and --jupyter, of the notebook process and of all
jupyter processes. The report is printed once the command exits.`,
	Example: `  peakmem measure -- python -c 'x = list(range(10**6))'
  peakmem measure -n -j -t -i 20 -- ./train.sh`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		measureFlags.applyConfig(cmd, cfg)
		if !cmd.Flags().Changed("interval") && cfg.Interval != 0 {
			measureInterval = cfg.Interval
		}
		if !cmd.Flags().Changed("startup-delay") && cfg.StartupDelay != "" {
			d, err := cfg.StartupDelayDuration()
			if err != nil {
				return err
			}
			measureStartupDelay = d
		}

		if measureInterval < MinInterval {
			return errors.Errorf("interval must be greater than or equal to %v milliseconds", MinInterval)
		}
		format, err := report.ParseFormat(measureFlags.output)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rep, err := measure(ctx, cmd, args)
		if err != nil {
			return err
		}
		return rep.Write(cmd.OutOrStdout(), format, measureFlags.table)
	},
}

func init() {
	measureFlags.register(measureCmd)
	measureCmd.Flags().Float64VarP(&measureInterval, "interval", "i",
		environ.GetFloat64("PEAKMEM_INTERVAL", tracer.DefaultInterval),
		"Interval in milliseconds between two samples",
	)
	measureCmd.Flags().BoolVarP(&measureQuiet, "quiet", "q", false,
		"Discard the standard output of the command",
	)
	measureCmd.Flags().DurationVar(&measureStartupDelay, "startup-delay",
		environ.GetDuration("PEAKMEM_STARTUP_DELAY", tracer.DefaultStartupDelay),
		"Maximum time to wait for the sampler before starting the command",
	)
}

func measure(ctx context.Context, cmd *cobra.Command, args []string) (*report.Report, error) {
	inspector := procinfo.NewInspector(procinfo.DefaultCmdlineTTL)
	self := int32(os.Getpid())

	var stdout io.Writer = cmd.OutOrStdout()
	if measureQuiet {
		stdout = io.Discard
	}
	w := &workload{cmd: exec.Command(args[0], args[1:]...)}
	w.cmd.Stdin = os.Stdin
	w.cmd.Stdout = stdout
	w.cmd.Stderr = cmd.ErrOrStderr()

	if err := w.cmd.Start(); err != nil {
		return nil, errors.WrapIff(err, "failed to start %s", args[0])
	}
	pid := int32(w.cmd.Process.Pid)

	go func() {
		<-ctx.Done()
		if !w.exited() {
			_ = w.cmd.Process.Signal(syscall.SIGTERM)
		}
	}()

	pids := []int32{pid}
	if measureFlags.notebook {
		pids = appendUnique(pids, measureFlags.notebookPid)
	}
	var jupyter []int32
	if measureFlags.jupyter {
		found, err := jupyterPids(inspector, measureFlags.match, self, pid)
		if err != nil {
			_ = w.cmd.Process.Kill()
			_ = w.reap()
			return nil, err
		}
		jupyter = found
	}

	log.WithFields(log.Fields{
		"command":  args[0],
		"pid":      pid,
		"tracked":  pids,
		"jupyter":  jupyter,
		"interval": measureInterval,
	}).Debug("measuring command")

	sessions, err := traceSessions(ctx, pids, jupyter, measureFlags.jupyter, func(ctx context.Context) error {
		return w.waitExited()
	}, tracer.WithInterval(measureInterval), tracer.WithStartupDelay(measureStartupDelay))
	if err != nil {
		_ = w.cmd.Process.Kill()
		_ = w.reap()
		return nil, err
	}
	if err := w.reap(); err != nil {
		return nil, errors.WrapIff(err, "%s failed", args[0])
	}

	var notebookCurrent, jupyterCurrent *uint64
	if measureFlags.notebook {
		current, err := inspector.ResidentMemory(measureFlags.notebookPid)
		if err != nil {
			return nil, err
		}
		notebookCurrent = ptr.To(current)
	}
	if measureFlags.jupyter {
		jupyterCurrent = ptr.To(inspector.TotalResidentMemory(jupyter))
	}
	return commandReport(pid, measureFlags.notebookPid, sessions, notebookCurrent, jupyterCurrent), nil
}

// sessionResults holds the peaks of the command session and, when jupyter
// processes are reported, of the separate jupyter session.
type sessionResults struct {
	tracked *tracer.Result
	jupyter *tracer.Result
}

// traceSessions runs fn while tracing pids. With withJupyter, the jupyter
// pids are traced by their own sampler so their aggregate peak only covers
// them.
func traceSessions(ctx context.Context, pids, jupyter []int32, withJupyter bool, fn func(context.Context) error, opts ...tracer.Option) (*sessionResults, error) {
	results := &sessionResults{}
	if !withJupyter {
		tracked, err := tracer.Trace(ctx, pids, fn, opts...)
		if err != nil {
			return nil, err
		}
		results.tracked = tracked
		return results, nil
	}

	jupyterResult, err := tracer.Trace(ctx, jupyter, func(ctx context.Context) error {
		tracked, err := tracer.Trace(ctx, pids, fn, opts...)
		results.tracked = tracked
		return err
	}, opts...)
	if err != nil {
		return nil, err
	}
	results.jupyter = jupyterResult
	return results, nil
}

// commandReport builds the measure report. Nil currents leave out the
// notebook and jupyter rows.
func commandReport(pid, notebookPid int32, sessions *sessionResults, notebookCurrent, jupyterCurrent *uint64) *report.Report {
	rep := &report.Report{
		Kind:     "command",
		Workload: &report.Usage{Peak: ptr.To(sessions.tracked.Peaks[pid])},
	}
	if notebookCurrent != nil {
		rep.Notebook = &report.Usage{
			Current: notebookCurrent,
			Peak:    ptr.To(sessions.tracked.Peaks[notebookPid]),
		}
	}
	if jupyterCurrent != nil && sessions.jupyter != nil {
		rep.Jupyter = &report.Usage{
			Current: jupyterCurrent,
			Peak:    ptr.To(sessions.jupyter.Total),
		}
	}
	return rep
}

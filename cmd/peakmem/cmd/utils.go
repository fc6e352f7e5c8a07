package cmd

import (
	"os"
	"slices"
	"strconv"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"github.com/voluzi/peakmem/internal/config"
	"github.com/voluzi/peakmem/pkg/environ"
	"github.com/voluzi/peakmem/pkg/procinfo"
	"github.com/voluzi/peakmem/pkg/report"
)

func parsePids(args []string) ([]int32, error) {
	pids := make([]int32, 0, len(args))
	for _, arg := range args {
		pid, err := strconv.ParseInt(arg, 10, 32)
		if err != nil || pid <= 0 {
			return nil, errors.Errorf("invalid process id %q", arg)
		}
		pids = append(pids, int32(pid))
	}
	return pids, nil
}

func appendUnique(pids []int32, more ...int32) []int32 {
	for _, p := range more {
		if !slices.Contains(pids, p) {
			pids = append(pids, p)
		}
	}
	return pids
}

func without(pids []int32, excluded ...int32) []int32 {
	var out []int32
	for _, p := range pids {
		if !slices.Contains(excluded, p) {
			out = append(out, p)
		}
	}
	return out
}

// reportFlags are shared by the commands that print a usage report.
type reportFlags struct {
	notebook    bool
	jupyter     bool
	table       bool
	notebookPid int32
	match       []string
	output      string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.notebook, "notebook", "n", false,
		"Report memory of the notebook process",
	)
	cmd.Flags().BoolVarP(&f.jupyter, "jupyter", "j", false,
		"Report memory of all jupyter processes",
	)
	cmd.Flags().BoolVarP(&f.table, "table", "t",
		environ.GetBool("PEAKMEM_TABLE", false),
		"Print the report as a table",
	)
	cmd.Flags().Int32Var(&f.notebookPid, "notebook-pid", int32(os.Getppid()),
		"Process id of the notebook process. Defaults to the parent process",
	)
	cmd.Flags().StringSliceVar(&f.match, "match",
		[]string{environ.GetString("PEAKMEM_MATCH", procinfo.DefaultPattern)},
		"Command line substring identifying jupyter processes",
	)
	cmd.Flags().StringVarP(&f.output, "output", "o",
		environ.GetString("PEAKMEM_OUTPUT", string(report.FormatText)),
		"Output format. One of text, json, yaml, prom",
	)
}

// applyConfig fills flags that were not set on the command line from the
// configuration file.
func (f *reportFlags) applyConfig(cmd *cobra.Command, c *config.Config) {
	if !cmd.Flags().Changed("table") && c.Table {
		f.table = true
	}
	if !cmd.Flags().Changed("match") && len(c.Match) > 0 {
		f.match = c.Match
	}
	if !cmd.Flags().Changed("output") && c.Output != "" {
		f.output = c.Output
	}
}

// jupyterPids finds the jupyter processes, leaving out the given pids.
func jupyterPids(inspector *procinfo.Inspector, match []string, excluded ...int32) ([]int32, error) {
	found, err := inspector.Find(match...)
	if err != nil {
		return nil, err
	}
	return without(found, excluded...), nil
}

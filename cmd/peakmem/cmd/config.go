package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voluzi/peakmem/internal/config"
	"github.com/voluzi/peakmem/pkg/procinfo"
	"github.com/voluzi/peakmem/pkg/report"
	"github.com/voluzi/peakmem/pkg/tracer"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := effectiveConfig(cfg, logLevel).Encode()
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

// effectiveConfig fills the unset fields of c with the built-in defaults.
func effectiveConfig(c *config.Config, level string) *config.Config {
	out := *c
	out.LogLevel = level
	if out.Interval == 0 {
		out.Interval = tracer.DefaultInterval
	}
	if out.StartupDelay == "" {
		out.StartupDelay = tracer.DefaultStartupDelay.String()
	}
	if len(out.Match) == 0 {
		out.Match = []string{procinfo.DefaultPattern}
	}
	if out.Output == "" {
		out.Output = string(report.FormatText)
	}
	return &out
}

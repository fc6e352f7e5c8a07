package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voluzi/peakmem/internal/config"
	"github.com/voluzi/peakmem/pkg/environ"
)

var logLevel string
var configPath string
var cfg = &config.Config{}

var rootCmd = &cobra.Command{
	Use:   "peakmem",
	Short: "Reports peak memory usage of commands and notebook processes",
	Long: `peakmem measures the resident memory of a command while it runs, optionally
together with the notebook process that started it and every jupyter process
on the host. Peaks are collected by a separate sampler process.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
			logLevel = cfg.LogLevel
		}
		logLvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log.SetLevel(logLvl)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel,
		"log-level",
		environ.GetString("LOG_LEVEL", "info"),
		"Log level. One of trace, debug, info, warn, error, fatal, panic.",
	)
	rootCmd.PersistentFlags().StringVar(&configPath,
		"config",
		environ.GetString("PEAKMEM_CONFIG", ""),
		"TOML file with defaults for flags that are not set explicitly",
	)

	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(measureCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

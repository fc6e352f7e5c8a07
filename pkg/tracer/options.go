package tracer

import "time"

const (
	// DefaultInterval is the sampling interval in milliseconds.
	DefaultInterval     = 10.0
	DefaultStartupDelay = 100 * time.Millisecond
	DefaultSubcommand   = "sample"
)

func defaultOptions() *Options {
	return &Options{
		Interval:     DefaultInterval,
		StartupDelay: DefaultStartupDelay,
		Args:         []string{DefaultSubcommand},
	}
}

type Options struct {
	// Interval in milliseconds between two samples.
	Interval float64
	// StartupDelay bounds how long Start waits for the first record.
	StartupDelay time.Duration
	// Executable runs the sampler. Defaults to the running binary.
	Executable string
	// Args are passed to Executable before the pids.
	Args    []string
	Env     []string
	TempDir string
}

type Option func(*Options)

func WithInterval(ms float64) Option {
	return func(opts *Options) {
		opts.Interval = ms
	}
}

func WithStartupDelay(d time.Duration) Option {
	return func(opts *Options) {
		opts.StartupDelay = d
	}
}

func WithExecutable(path string) Option {
	return func(opts *Options) {
		opts.Executable = path
	}
}

func WithArgs(args ...string) Option {
	return func(opts *Options) {
		opts.Args = args
	}
}

// WithEnv adds environment variables to the sampler process.
func WithEnv(env ...string) Option {
	return func(opts *Options) {
		opts.Env = append(opts.Env, env...)
	}
}

func WithTempDir(dir string) Option {
	return func(opts *Options) {
		opts.TempDir = dir
	}
}

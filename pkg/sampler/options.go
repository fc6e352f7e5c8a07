package sampler

import "time"

const (
	DefaultInterval  = 10 * time.Millisecond
	DefaultMaxLines  = 1000
	DefaultKeepLines = 10
)

func defaultOptions() *Options {
	return &Options{
		Interval:  DefaultInterval,
		MaxLines:  DefaultMaxLines,
		KeepLines: DefaultKeepLines,
	}
}

type Options struct {
	Interval  time.Duration
	MaxLines  int
	KeepLines int
}

type Option func(*Options)

func WithInterval(d time.Duration) Option {
	return func(opts *Options) {
		opts.Interval = d
	}
}

// WithMaxLines sets how many lines may be appended before the log is compacted.
func WithMaxLines(n int) Option {
	return func(opts *Options) {
		opts.MaxLines = n
	}
}

// WithKeepLines sets how many of the most recent lines survive compaction.
func WithKeepLines(n int) Option {
	return func(opts *Options) {
		opts.KeepLines = n
	}
}

// IntervalFromMillis converts a fractional millisecond interval.
func IntervalFromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

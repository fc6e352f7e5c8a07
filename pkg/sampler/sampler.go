package sampler

import (
	"context"
	"time"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
)

// MemoryReader reads the resident memory of a process in bytes.
type MemoryReader interface {
	ResidentMemory(pid int32) (uint64, error)
}

// Sampler polls the resident memory of a fixed set of processes and appends
// the running peaks to a Log once per interval.
type Sampler struct {
	pids     []int32
	reader   MemoryReader
	log      *Log
	peaks    *Peaks
	readings []uint64
	opts     *Options
}

func New(pids []int32, output string, reader MemoryReader, opts ...Option) *Sampler {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Sampler{
		pids:     pids,
		reader:   reader,
		log:      NewLog(output, options.MaxLines, options.KeepLines),
		peaks:    NewPeaks(len(pids)),
		readings: make([]uint64, len(pids)),
		opts:     options,
	}
}

// Step takes one round of readings and appends the updated peaks. Failing to
// inspect any tracked process is an error: the pids are expected to be alive.
func (s *Sampler) Step() error {
	for i, pid := range s.pids {
		rss, err := s.reader.ResidentMemory(pid)
		if err != nil {
			return errors.WrapIff(err, "failed to read memory of process %d", pid)
		}
		s.readings[i] = rss
	}
	if err := s.peaks.Observe(s.readings); err != nil {
		return err
	}
	return s.log.Append(s.peaks.Record())
}

// Peaks returns the peaks recorded so far.
func (s *Sampler) Peaks() Record {
	return s.peaks.Record()
}

// Run samples until ctx is cancelled or a step fails.
func (s *Sampler) Run(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pids":     s.pids,
		"file":     s.log.Path(),
		"interval": s.opts.Interval,
	}).Debug("sampler started")

	for {
		if err := s.Step(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.opts.Interval):
		}
	}
}

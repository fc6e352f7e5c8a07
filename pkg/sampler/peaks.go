package sampler

import "emperror.dev/errors"

// Peaks tracks running maxima for a fixed set of processes. The aggregate
// peak is the largest sum of a single round of readings, which can be lower
// than the sum of the per-process peaks.
type Peaks struct {
	perProcess []uint64
	total      uint64
}

func NewPeaks(n int) *Peaks {
	return &Peaks{perProcess: make([]uint64, n)}
}

// Observe folds one round of readings into the peaks.
func (p *Peaks) Observe(readings []uint64) error {
	if len(readings) != len(p.perProcess) {
		return errors.Errorf("expected %d readings, got %d", len(p.perProcess), len(readings))
	}

	var sum uint64
	for i, r := range readings {
		if r > p.perProcess[i] {
			p.perProcess[i] = r
		}
		sum += r
	}
	if sum > p.total {
		p.total = sum
	}
	return nil
}

// Record returns a snapshot of the current peaks.
func (p *Peaks) Record() Record {
	peaks := make([]uint64, len(p.perProcess))
	copy(peaks, p.perProcess)
	return Record{Peaks: peaks, Total: p.total}
}

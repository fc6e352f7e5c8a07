package cmd

import (
	"os/exec"
	"sync"
)

// workload is the measured command. Its exit is observed before it is
// reaped so the sampler can keep reading it until it is stopped.
type workload struct {
	cmd *exec.Cmd

	lock    sync.Mutex
	done    bool
	reaped  bool
	waitErr error
}

func (w *workload) exited() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.done
}

func (w *workload) markExited() {
	w.lock.Lock()
	w.done = true
	w.lock.Unlock()
}

// reap collects the exit status of the command.
func (w *workload) reap() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if !w.reaped {
		w.waitErr = w.cmd.Wait()
		w.reaped = true
		w.done = true
	}
	return w.waitErr
}

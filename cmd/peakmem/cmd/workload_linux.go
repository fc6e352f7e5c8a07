package cmd

import (
	"golang.org/x/sys/unix"
)

// waitExited blocks until the command exits but leaves it unreaped.
func (w *workload) waitExited() error {
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, w.cmd.Process.Pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		if err == unix.EINTR {
			continue
		}
		if err == nil {
			w.markExited()
		}
		return err
	}
}

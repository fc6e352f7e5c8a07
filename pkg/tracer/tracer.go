package tracer

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"emperror.dev/errors"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/peakmem/pkg/sampler"
	"github.com/voluzi/peakmem/pkg/utils"
)

// MemoryTracer runs a sampler process over a set of pids and harvests the
// peaks it recorded once stopped.
type MemoryTracer struct {
	pids []int32
	opts *Options

	cmd     *exec.Cmd
	exited  chan struct{}
	waitErr error
	file    *os.File
	stdout  bytes.Buffer
	stderr  bytes.Buffer
}

// Result holds the harvested peaks in bytes.
type Result struct {
	Peaks map[int32]uint64 `json:"peaks"`
	Total uint64           `json:"total"`
}

// Peak returns the peak of pid, if it was tracked.
func (r *Result) Peak(pid int32) (uint64, bool) {
	v, ok := r.Peaks[pid]
	return v, ok
}

func New(pids []int32, opts ...Option) *MemoryTracer {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &MemoryTracer{
		pids: pids,
		opts: options,
	}
}

// Start launches the sampler writing into a fresh temporary file and waits
// until it wrote its first record or the startup delay elapsed.
func (t *MemoryTracer) Start(ctx context.Context) error {
	if t.cmd != nil {
		return errors.New("memory tracer already running")
	}

	executable := t.opts.Executable
	if executable == "" {
		self, err := os.Executable()
		if err != nil {
			return errors.Combine(ErrLaunch, errors.WrapIf(err, "failed to locate sampler executable"))
		}
		executable = self
	}

	file, err := os.CreateTemp(t.opts.TempDir, "peakmem-*.log")
	if err != nil {
		return errors.WrapIf(err, "failed to create peak log")
	}

	args := append([]string{}, t.opts.Args...)
	for _, pid := range t.pids {
		args = append(args, strconv.FormatInt(int64(pid), 10))
	}
	args = append(args, file.Name(), "--interval", strconv.FormatFloat(t.opts.Interval, 'f', -1, 64))

	t.stdout.Reset()
	t.stderr.Reset()
	cmd := exec.Command(executable, args...)
	cmd.Env = append(os.Environ(), t.opts.Env...)
	cmd.Stdout = &t.stdout
	cmd.Stderr = &t.stderr
	// keep terminal signals sent to our process group away from the sampler
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		file.Close()
		os.Remove(file.Name())
		return errors.Combine(ErrLaunch, errors.WrapIf(err, "failed to start sampler"))
	}
	t.cmd = cmd
	t.file = file
	t.exited = make(chan struct{})
	go func() {
		t.waitErr = cmd.Wait()
		close(t.exited)
	}()

	log.WithFields(log.Fields{
		"pid":      cmd.Process.Pid,
		"file":     file.Name(),
		"interval": t.opts.Interval,
		"tracked":  t.pids,
	}).Debug("sampler started")

	waitForFirstRecord(ctx, file.Name(), t.opts.StartupDelay, t.exited)
	return nil
}

// Stop terminates the sampler, waits for it to exit and parses the last
// record it wrote. The temporary file is removed whatever the outcome.
func (t *MemoryTracer) Stop() (*Result, error) {
	if t.cmd == nil {
		return nil, ErrNotStarted
	}
	cmd := t.cmd
	t.cmd = nil
	defer t.cleanup()

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		log.WithField("pid", cmd.Process.Pid).Warnf("failed to signal sampler: %v", err)
	}

	<-t.exited
	var exitErr *exec.ExitError
	if err := t.waitErr; err != nil && !errors.As(err, &exitErr) {
		return nil, errors.WrapIf(err, "failed to wait for sampler")
	}
	if !terminatedOnRequest(cmd.ProcessState) {
		return nil, &AbnormalExitError{
			State:  cmd.ProcessState.String(),
			Stderr: strings.TrimSpace(t.stderr.String()),
		}
	}

	line, err := utils.LastLine(t.file.Name(), true)
	if err != nil {
		return nil, errors.WrapIf(err, "failed to read peak log")
	}
	record, err := sampler.ParseRecord(line, len(t.pids))
	if err != nil {
		return nil, err
	}

	result := &Result{
		Peaks: make(map[int32]uint64, len(t.pids)),
		Total: record.Total,
	}
	for i, pid := range t.pids {
		result.Peaks[pid] = record.Peaks[i]
	}

	log.WithFields(log.Fields{
		"peaks": result.Peaks,
		"total": result.Total,
	}).Debug("sampler harvested")
	return result, nil
}

func (t *MemoryTracer) cleanup() {
	if t.file == nil {
		return
	}
	name := t.file.Name()
	if err := t.file.Close(); err != nil {
		log.WithField("file", name).Debugf("failed to close peak log: %v", err)
	}
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		log.WithField("file", name).Warnf("failed to remove peak log: %v", err)
	}

	leftovers, err := sampler.CompactionFiles(name)
	if err != nil {
		log.WithField("file", name).Debugf("failed to list compaction files: %v", err)
	}
	for _, f := range leftovers {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			log.WithField("file", f).Warnf("failed to remove compaction file: %v", err)
		}
	}
	t.file = nil
}

// Trace runs fn while tracing pids. The sampler is always stopped and its
// file removed before Trace returns, even if fn fails or panics. No result is
// returned unless both fn and the harvest succeed.
func Trace(ctx context.Context, pids []int32, fn func(context.Context) error, opts ...Option) (res *Result, err error) {
	t := New(pids, opts...)
	if err := t.Start(ctx); err != nil {
		return nil, err
	}

	defer func() {
		r, stopErr := t.Stop()
		if err != nil || stopErr != nil {
			res, err = nil, errors.Combine(err, stopErr)
			return
		}
		res = r
	}()

	return nil, fn(ctx)
}

func terminatedOnRequest(state *os.ProcessState) bool {
	if state == nil {
		return false
	}
	status, ok := state.Sys().(syscall.WaitStatus)
	return ok && status.Signaled() && status.Signal() == syscall.SIGTERM
}

// waitForFirstRecord returns once path has been written to, the sampler
// exited, the timeout elapsed or ctx is done.
func waitForFirstRecord(ctx context.Context, path string, timeout time.Duration, exited <-chan struct{}) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Debugf("cannot watch peak log, sleeping instead: %v", err)
		sleep(ctx, timer, exited)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		log.Debugf("cannot watch peak log, sleeping instead: %v", err)
		sleep(ctx, timer, exited)
		return
	}
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				sleep(ctx, timer, exited)
				return
			}
			if event.Has(fsnotify.Write) {
				return
			}
		case err, ok := <-watcher.Errors:
			if ok {
				log.Debugf("peak log watcher failed: %v", err)
			}
			sleep(ctx, timer, exited)
			return
		case <-exited:
			return
		case <-timer.C:
			return
		case <-ctx.Done():
			return
		}
	}
}

func sleep(ctx context.Context, timer *time.Timer, exited <-chan struct{}) {
	select {
	case <-timer.C:
	case <-exited:
	case <-ctx.Done():
	}
}

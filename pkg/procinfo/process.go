package procinfo

import (
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/jellydator/ttlcache/v3"
	"github.com/shirou/gopsutil/process"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultPattern selects notebook server and kernel processes.
	DefaultPattern = "jupyter"

	DefaultCmdlineTTL = 30 * time.Second
)

// Inspector reads process information from the operating system.
type Inspector struct {
	cmdlines *ttlcache.Cache[int32, string]
}

// NewInspector returns an Inspector that caches process command lines for
// ttl. A pid is unlikely to be reused within that window.
func NewInspector(ttl time.Duration) *Inspector {
	return &Inspector{
		cmdlines: ttlcache.New[int32, string](
			ttlcache.WithTTL[int32, string](ttl),
		),
	}
}

// Pids lists all processes currently running on the host.
func (i *Inspector) Pids() ([]int32, error) {
	pids, err := process.Pids()
	if err != nil {
		return nil, errors.WrapIf(err, "failed to list processes")
	}
	return pids, nil
}

// CommandLine returns the command line of pid with arguments joined by spaces.
func (i *Inspector) CommandLine(pid int32) (string, error) {
	if item := i.cmdlines.Get(pid); item != nil {
		return item.Value(), nil
	}

	proc, err := process.NewProcess(pid)
	if err != nil {
		return "", errors.WrapIff(err, "process %d not found", pid)
	}
	cmdline, err := proc.Cmdline()
	if err != nil {
		return "", errors.WrapIff(err, "failed to get command line of process %d", pid)
	}

	i.cmdlines.Set(pid, cmdline, ttlcache.DefaultTTL)
	return cmdline, nil
}

// ResidentMemory returns the resident set size of pid in bytes.
func (i *Inspector) ResidentMemory(pid int32) (uint64, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return 0, errors.WrapIff(err, "process %d not found", pid)
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return 0, errors.WrapIff(err, "failed to get memory info of process %d", pid)
	}
	return mem.RSS, nil
}

// Find returns the pids whose lower-cased command line contains any of the
// patterns. Processes that vanish or cannot be inspected while enumerating
// are skipped.
func (i *Inspector) Find(patterns ...string) ([]int32, error) {
	pids, err := i.Pids()
	if err != nil {
		return nil, err
	}
	i.cmdlines.DeleteExpired()

	var found []int32
	for _, pid := range pids {
		cmdline, err := i.CommandLine(pid)
		if err != nil {
			log.WithField("pid", pid).Tracef("skipping process: %v", err)
			continue
		}
		if matchesAny(strings.ToLower(cmdline), patterns) {
			found = append(found, pid)
		}
	}
	return found, nil
}

// TotalResidentMemory sums the resident memory of pids. Processes that are
// gone contribute nothing.
func (i *Inspector) TotalResidentMemory(pids []int32) uint64 {
	var total uint64
	for _, pid := range pids {
		rss, err := i.ResidentMemory(pid)
		if err != nil {
			log.WithField("pid", pid).Debugf("skipping process: %v", err)
			continue
		}
		total += rss
	}
	return total
}

func matchesAny(cmdline string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(cmdline, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

package sampler

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"
)

// CompactionSuffix marks the temporary file a compaction writes next to the
// log. One may be left behind when the sampler is killed mid-compaction.
const CompactionSuffix = ".compact-"

// CompactionFiles lists the leftover compaction files of the log at path.
func CompactionFiles(path string) ([]string, error) {
	dir, base := filepath.Split(path)
	entries, err := os.ReadDir(filepath.Clean(dir))
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), base+CompactionSuffix) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// Log is an append-only peak log that compacts itself to its most recent
// lines once too many have accumulated.
type Log struct {
	path      string
	maxLines  int
	keepLines int

	// appended counts lines written since the last compaction.
	appended int
}

func NewLog(path string, maxLines, keepLines int) *Log {
	return &Log{
		path:      path,
		maxLines:  maxLines,
		keepLines: keepLines,
	}
}

func (l *Log) Path() string {
	return l.path
}

// Append writes r as a single line. The file is opened and closed on every
// call, so it is always consistent when the writer is killed between calls.
func (l *Log) Append(r Record) error {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return errors.WrapIf(err, "failed to open peak log")
	}
	if _, err := f.WriteString(r.String() + "\n"); err != nil {
		f.Close()
		return errors.WrapIf(err, "failed to append to peak log")
	}
	if err := f.Close(); err != nil {
		return errors.WrapIf(err, "failed to close peak log")
	}

	l.appended++
	if l.appended > l.maxLines {
		if err := l.compact(); err != nil {
			return err
		}
		l.appended = 0
	}
	return nil
}

// compact rewrites the log with only its last keepLines lines. The new
// content is renamed over the old file so readers never see it half written.
func (l *Log) compact() error {
	lines, err := tailLines(l.path, l.keepLines)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+CompactionSuffix+"*")
	if err != nil {
		return errors.WrapIf(err, "failed to create compaction file")
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		_, _ = w.WriteString(line)
		_ = w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return errors.WrapIf(err, "failed to write compaction file")
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIf(err, "failed to close compaction file")
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return errors.WrapIf(err, "failed to replace peak log")
	}

	log.WithFields(log.Fields{
		"file": l.path,
		"kept": len(lines),
	}).Debug("compacted peak log")
	return nil
}

// tailLines returns the last n lines of the file at path.
func tailLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIf(err, "failed to open peak log")
	}
	defer f.Close()

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if n == 0 {
			continue
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapIf(err, "failed to read peak log")
	}
	return ring, nil
}

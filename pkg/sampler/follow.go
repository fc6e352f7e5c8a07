package sampler

import (
	"strings"

	"github.com/nxadm/tail"
)

// Follower streams the records of a peak log as they are written. The log is
// reopened when compaction replaces it, which replays the retained lines.
type Follower struct {
	tail    *tail.Tail
	n       int
	Records chan *FollowedRecord
}

type FollowedRecord struct {
	Record
	Err error `json:"-"`
}

// NewFollower follows the log at path, expecting records for n processes.
// A negative n accepts records of any width.
func NewFollower(path string, n int) (*Follower, error) {
	t, err := tail.TailFile(path, tail.Config{
		ReOpen:    true,
		Follow:    true,
		Poll:      true,
		MustExist: false,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, err
	}

	return &Follower{
		tail:    t,
		n:       n,
		Records: make(chan *FollowedRecord),
	}, nil
}

func (f *Follower) Stop() error {
	return f.tail.Stop()
}

// Start blocks delivering records until the follower is stopped, then closes
// Records.
func (f *Follower) Start() {
	defer close(f.Records)

	for line := range f.tail.Lines {
		if line.Err != nil {
			f.Records <- &FollowedRecord{Err: line.Err}
			continue
		}

		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		r, err := ParseRecord(line.Text, f.n)
		if err != nil {
			f.Records <- &FollowedRecord{Err: err}
			continue
		}
		f.Records <- &FollowedRecord{Record: r}
	}
}

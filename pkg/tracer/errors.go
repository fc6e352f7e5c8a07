package tracer

import (
	"fmt"

	"emperror.dev/errors"
)

const (
	ErrLaunch     = errors.Sentinel("failed to launch sampler")
	ErrNotStarted = errors.Sentinel("memory tracer is not running")
)

// AbnormalExitError reports a sampler that did not exit because of the
// termination request.
type AbnormalExitError struct {
	State  string
	Stderr string
}

func (e *AbnormalExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("sampler exited unexpectedly (%s)", e.State)
	}
	return fmt.Sprintf("sampler exited unexpectedly (%s): %s", e.State, e.Stderr)
}

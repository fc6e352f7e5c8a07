package sampler

import (
	"strconv"
	"strings"

	"emperror.dev/errors"
)

// ErrMalformedRecord is returned when a peak log line cannot be parsed.
const ErrMalformedRecord = errors.Sentinel("malformed peak record")

// Record is one line of the peak log: the peak resident memory of every
// tracked process, in tracking order, followed by the aggregate peak.
type Record struct {
	Peaks []uint64 `json:"peaks"`
	Total uint64   `json:"total"`
}

// String renders the record as space separated decimal fields.
func (r Record) String() string {
	var b strings.Builder
	for _, p := range r.Peaks {
		b.WriteString(strconv.FormatUint(p, 10))
		b.WriteByte(' ')
	}
	b.WriteString(strconv.FormatUint(r.Total, 10))
	return b.String()
}

// ParseRecord parses a peak log line for n tracked processes. A negative n
// accepts any number of per-process fields.
func ParseRecord(line string, n int) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Record{}, errors.WithMessage(ErrMalformedRecord, "empty line")
	}
	if n >= 0 && len(fields) != n+1 {
		return Record{}, errors.WithMessagef(ErrMalformedRecord, "expected %d fields, got %d", n+1, len(fields))
	}

	values := make([]uint64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return Record{}, errors.WithMessage(ErrMalformedRecord, err.Error())
		}
		values[i] = v
	}

	last := len(values) - 1
	return Record{
		Peaks: values[:last:last],
		Total: values[last],
	}, nil
}

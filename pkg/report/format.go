package report

import (
	"math"
	"strconv"

	"github.com/c2h5oh/datasize"
)

var units = []struct {
	size datasize.ByteSize
	name string
}{
	{datasize.B, "B"},
	{datasize.KB, "KiB"},
	{datasize.MB, "MiB"},
	{datasize.GB, "GiB"},
	{datasize.TB, "TiB"},
}

// FormatBytes renders n in the largest binary unit that keeps the value
// below 1024, rounded to two decimals.
func FormatBytes(n uint64) string {
	size := datasize.ByteSize(n)
	unit := units[0]
	for _, u := range units[1:] {
		if size < u.size {
			break
		}
		unit = u
	}

	if unit.size == datasize.B {
		return strconv.FormatUint(n, 10) + " B"
	}
	v := math.Round(float64(size)/float64(unit.size)*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + unit.name
}

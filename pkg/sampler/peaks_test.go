package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeaks_Observe(t *testing.T) {
	tests := []struct {
		name     string
		readings [][]uint64
		expected Record
	}{
		{
			name:     "two processes",
			readings: [][]uint64{{10, 20}, {30, 5}, {15, 15}},
			expected: Record{Peaks: []uint64{30, 20}, Total: 35},
		},
		{
			name:     "aggregate is not the sum of peaks",
			readings: [][]uint64{{100, 0}, {0, 100}},
			expected: Record{Peaks: []uint64{100, 100}, Total: 100},
		},
		{
			name:     "single process",
			readings: [][]uint64{{5}, {3}, {9}, {1}},
			expected: Record{Peaks: []uint64{9}, Total: 9},
		},
		{
			name:     "no processes",
			readings: [][]uint64{{}, {}},
			expected: Record{Peaks: []uint64{}, Total: 0},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			peaks := NewPeaks(len(test.readings[0]))
			for _, r := range test.readings {
				require.NoError(t, peaks.Observe(r))
			}
			assert.Equal(t, test.expected, peaks.Record())
		})
	}
}

func TestPeaks_Monotonic(t *testing.T) {
	readings := [][]uint64{
		{7, 1, 3}, {2, 9, 3}, {0, 0, 0}, {8, 2, 11}, {1, 1, 1}, {7, 9, 2},
	}

	peaks := NewPeaks(3)
	var prev Record
	for k, r := range readings {
		require.NoError(t, peaks.Observe(r))
		cur := peaks.Record()

		var bestSum uint64
		for i := 0; i <= k; i++ {
			var sum uint64
			for j, v := range readings[i] {
				sum += v
				assert.GreaterOrEqual(t, cur.Peaks[j], v)
			}
			if sum > bestSum {
				bestSum = sum
			}
		}
		assert.Equal(t, bestSum, cur.Total)

		if k > 0 {
			for j := range cur.Peaks {
				assert.GreaterOrEqual(t, cur.Peaks[j], prev.Peaks[j])
			}
			assert.GreaterOrEqual(t, cur.Total, prev.Total)
		}
		prev = cur
	}
}

func TestPeaks_ReadingCountMismatch(t *testing.T) {
	peaks := NewPeaks(2)
	assert.Error(t, peaks.Observe([]uint64{1}))
	assert.Equal(t, Record{Peaks: []uint64{0, 0}}, peaks.Record())
}

func TestPeaks_RecordIsSnapshot(t *testing.T) {
	peaks := NewPeaks(1)
	require.NoError(t, peaks.Observe([]uint64{4}))
	snapshot := peaks.Record()
	require.NoError(t, peaks.Observe([]uint64{8}))
	assert.Equal(t, uint64(4), snapshot.Peaks[0])
}

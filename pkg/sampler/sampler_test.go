package sampler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voluzi/peakmem/pkg/utils"
)

// scriptedReader replays a fixed sequence of readings per pid and then
// repeats the last one.
type scriptedReader struct {
	lock     sync.Mutex
	readings map[int32][]uint64
	calls    map[int32]int
	fail     map[int32]bool
}

func newScriptedReader(readings map[int32][]uint64) *scriptedReader {
	return &scriptedReader{
		readings: readings,
		calls:    make(map[int32]int),
		fail:     make(map[int32]bool),
	}
}

func (r *scriptedReader) ResidentMemory(pid int32) (uint64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.fail[pid] {
		return 0, fmt.Errorf("process %d does not exist", pid)
	}
	seq, ok := r.readings[pid]
	if !ok || len(seq) == 0 {
		return 0, fmt.Errorf("process %d does not exist", pid)
	}
	i := r.calls[pid]
	r.calls[pid]++
	if i >= len(seq) {
		i = len(seq) - 1
	}
	return seq[i], nil
}

func TestSampler_Step(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peaks.log")
	reader := newScriptedReader(map[int32][]uint64{
		101: {10, 30, 15},
		202: {20, 5, 15},
	})
	s := New([]int32{101, 202}, path, reader)

	expected := []string{"10 20 30", "30 20 35", "30 20 35"}
	for i, want := range expected {
		require.NoError(t, s.Step())
		line, err := utils.LastLine(path, true)
		require.NoError(t, err)
		assert.Equal(t, want, line, "interval %d", i+1)
	}
	assert.Equal(t, Record{Peaks: []uint64{30, 20}, Total: 35}, s.Peaks())
}

func TestSampler_StepWithoutProcesses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peaks.log")
	s := New(nil, path, newScriptedReader(nil))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Step())
	}

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0\n0\n0\n", string(content))
}

func TestSampler_StepFailsOnMissingProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peaks.log")
	reader := newScriptedReader(map[int32][]uint64{101: {10}})
	s := New([]int32{101, 202}, path, reader)

	assert.Error(t, s.Step())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSampler_StepCompacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peaks.log")
	reader := newScriptedReader(map[int32][]uint64{7: {1}})
	s := New([]int32{7}, path, reader, WithMaxLines(20), WithKeepLines(3))

	for i := 0; i < 21; i++ {
		require.NoError(t, s.Step())
	}
	assert.Equal(t, []string{"1 1", "1 1", "1 1"}, readLines(t, path))
}

func TestSampler_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peaks.log")
	reader := newScriptedReader(map[int32][]uint64{
		1: {10, 30, 15},
		2: {20, 5, 15},
	})
	s := New([]int32{1, 2}, path, reader, WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		line, err := utils.LastLine(path, true)
		return err == nil && line == "30 20 35"
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for sampler to stop")
	}
}

func TestSampler_RunStopsOnReadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peaks.log")
	reader := newScriptedReader(map[int32][]uint64{1: {10}})
	s := New([]int32{1}, path, reader, WithInterval(time.Millisecond))

	reader.lock.Lock()
	reader.fail[1] = true
	reader.lock.Unlock()

	err := s.Run(context.Background())
	assert.Error(t, err)
}

func TestIntervalFromMillis(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, IntervalFromMillis(10))
	assert.Equal(t, 2500*time.Microsecond, IntervalFromMillis(2.5))
}

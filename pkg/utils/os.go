package utils

import (
	"bytes"
	"io"
	"os"

	"emperror.dev/errors"
)

// lastLineChunk is how many bytes are read per step while scanning backwards.
const lastLineChunk = 4096

// LastLine returns the last line of the file at path without reading the
// whole file. When skipEmpty is set a single trailing newline is ignored, so
// the last non-blank line is returned instead of an empty string. A file with
// no earlier line break is returned whole.
func LastLine(path string, skipEmpty bool) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	size := info.Size()
	if size == 0 {
		return "", nil
	}

	limit := size
	if skipEmpty {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			return "", errors.WrapIf(err, "failed to read end of file")
		}
		if last[0] == '\n' {
			limit = size - 1
		}
	}

	start, err := lastLineStart(f, limit)
	if err != nil {
		return "", err
	}

	buf := make([]byte, size-start)
	if _, err := f.ReadAt(buf, start); err != nil && !errors.Is(err, io.EOF) {
		return "", errors.WrapIf(err, "failed to read last line")
	}
	return string(bytes.Trim(buf, "\n")), nil
}

// lastLineStart returns the offset following the last '\n' found before limit,
// or 0 if there is none.
func lastLineStart(r io.ReaderAt, limit int64) (int64, error) {
	buf := make([]byte, lastLineChunk)
	for end := limit; end > 0; {
		begin := end - lastLineChunk
		if begin < 0 {
			begin = 0
		}
		chunk := buf[:end-begin]
		if _, err := r.ReadAt(chunk, begin); err != nil && !errors.Is(err, io.EOF) {
			return 0, errors.WrapIf(err, "failed to scan file backwards")
		}
		if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
			return begin + int64(i) + 1, nil
		}
		end = begin
	}
	return 0, nil
}

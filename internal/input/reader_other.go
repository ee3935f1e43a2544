//go:build !unix

package input

import (
	"fmt"
	"os"
)

// NewReader returns a Reader backed by os.ReadFile. The mmap threshold is
// ignored on this platform.
func NewReader(mmapThreshold, maxSize int64) Reader {
	return &fileReader{maxSize: maxSize}
}

type fileReader struct {
	maxSize int64
}

func (r *fileReader) Read(path string) (Data, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Data{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return Data{}, fmt.Errorf("read %s: not a regular file", path)
	}
	if r.maxSize > 0 && info.Size() > r.maxSize {
		return Data{}, fmt.Errorf("read %s: %d bytes exceeds limit of %d: %w", path, info.Size(), r.maxSize, ErrTooLarge)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Data{Bytes: b, ModTime: info.ModTime(), Close: noopCloser}, nil
}

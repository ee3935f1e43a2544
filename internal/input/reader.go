// Package input loads files for analysis and expands command line
// arguments into a file list.
package input

import (
	"errors"
	"time"
)

// ErrTooLarge is returned for files above the configured size limit.
var ErrTooLarge = errors.New("file too large")

// Data holds the bytes of one file and the function that releases them.
// Bytes must not be used after Close.
type Data struct {
	Bytes   []byte
	ModTime time.Time
	Close   func() error
}

// Reader reads file content into a byte slice.
type Reader interface {
	Read(path string) (Data, error)
}

// noopCloser is a package-level no-op closer to avoid allocating a func literal per file.
func noopCloser() error { return nil }

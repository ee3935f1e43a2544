//go:build unix

package input

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// bufPool pools read buffers to reduce per-file heap allocations.
var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 64*1024)
		return &b
	},
}

// NewReader returns a Reader that opens the file once, checks its size with
// fstat and then maps files of at least mmapThreshold bytes and preads
// smaller ones. Files larger than maxSize are refused with ErrTooLarge.
func NewReader(mmapThreshold, maxSize int64) Reader {
	return &adaptiveReader{threshold: mmapThreshold, maxSize: maxSize}
}

type adaptiveReader struct {
	threshold int64
	maxSize   int64
}

func (r *adaptiveReader) Read(path string) (Data, error) {
	fd, err := openFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("open %s: %w", path, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return Data{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFREG {
		unix.Close(fd)
		return Data{}, fmt.Errorf("read %s: not a regular file", path)
	}

	size := stat.Size
	if r.maxSize > 0 && size > r.maxSize {
		unix.Close(fd)
		return Data{}, fmt.Errorf("read %s: %d bytes exceeds limit of %d: %w", path, size, r.maxSize, ErrTooLarge)
	}
	modTime := time.Unix(stat.Mtim.Unix())
	if size == 0 {
		unix.Close(fd)
		return Data{ModTime: modTime, Close: noopCloser}, nil
	}

	read := readBuffered
	if size >= r.threshold {
		read = readMmap
	}
	data, err := read(fd, size)
	if err != nil {
		return Data{}, fmt.Errorf("read %s: %w", path, err)
	}
	data.ModTime = modTime
	return data, nil
}

// readMmap maps an already-opened fd of known size read-only. It takes
// ownership of fd and falls back to a buffered read if mapping fails.
func readMmap(fd int, size int64) (Data, error) {
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return readBuffered(fd, size)
	}
	unix.Close(fd)

	// extractors jump around the file
	_ = unix.Madvise(data, unix.MADV_RANDOM)

	return Data{
		Bytes: data,
		Close: func() error {
			return unix.Munmap(data)
		},
	}, nil
}

// readBuffered reads a file from an already-open fd into a pooled buffer.
// Takes ownership of fd.
func readBuffered(fd int, size int64) (Data, error) {
	defer unix.Close(fd)

	bp := bufPool.Get().(*[]byte)
	buf := *bp
	if int64(cap(buf)) < size {
		buf = make([]byte, size)
	} else {
		buf = buf[:size]
	}

	var total int
	for total < int(size) {
		n, err := unix.Pread(fd, buf[total:], int64(total))
		if err != nil {
			*bp = buf
			bufPool.Put(bp)
			return Data{}, fmt.Errorf("pread: %w", err)
		}
		if n == 0 {
			break // file shrank
		}
		total += n
	}

	return Data{
		Bytes: buf[:total],
		Close: func() error {
			*bp = buf
			bufPool.Put(bp)
			return nil
		},
	}, nil
}

func openFile(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC|openNoATime, 0)
	if err != nil && openNoATime != 0 {
		// O_NOATIME is refused for files the caller does not own
		fd, err = unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	}
	return fd, err
}

//go:build unix

package input

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReader_Modes(t *testing.T) {
	dir := t.TempDir()
	small := writeFile(t, dir, "small.bin", []byte("tiny"))
	big := make([]byte, 4096)
	for i := range big {
		big[i] = byte(i)
	}
	large := writeFile(t, dir, "large.bin", big)

	tests := []struct {
		name      string
		threshold int64
		path      string
		want      []byte
	}{
		{"pread below threshold", 1024, small, []byte("tiny")},
		{"mmap at threshold", 4096, large, big},
		{"mmap everything", 0, small, []byte("tiny")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewReader(tt.threshold, 1<<20).Read(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, data.Bytes)
			assert.NoError(t, data.Close())
		})
	}
}

func TestReader_EmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty", nil)

	data, err := NewReader(0, 10).Read(path)
	require.NoError(t, err)
	assert.Empty(t, data.Bytes)
	assert.NoError(t, data.Close())
}

func TestReader_TooLarge(t *testing.T) {
	path := writeFile(t, t.TempDir(), "big", make([]byte, 100))

	_, err := NewReader(1<<20, 99).Read(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = NewReader(1<<20, 100).Read(path)
	assert.NoError(t, err)
}

func TestReader_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewReader(1024, 1024).Read(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	_, err = NewReader(1024, 1024).Read(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}

func TestReader_BufferReuse(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", []byte("first file"))
	b := writeFile(t, dir, "b", []byte("2nd"))
	r := NewReader(1<<20, 1<<20)

	da, err := r.Read(a)
	require.NoError(t, err)
	assert.Equal(t, "first file", string(da.Bytes))
	require.NoError(t, da.Close())

	db, err := r.Read(b)
	require.NoError(t, err)
	assert.Equal(t, "2nd", string(db.Bytes))
	require.NoError(t, db.Close())
}

func TestReader_ModTime(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Date(2023, 11, 4, 8, 30, 15, 0, time.UTC)
	for _, name := range []string{"empty", "small", "large"} {
		size := map[string]int{"empty": 0, "small": 10, "large": 8192}[name]
		path := writeFile(t, dir, name, make([]byte, size))
		require.NoError(t, os.Chtimes(path, mtime, mtime))

		data, err := NewReader(4096, 1<<20).Read(path)
		require.NoError(t, err, name)
		assert.True(t, mtime.Equal(data.ModTime), "%s: got %v", name, data.ModTime)
		require.NoError(t, data.Close())
	}
}

// Package byteview provides bounds-checked, endianness-aware access to an
// in-memory byte buffer. Every read either succeeds entirely within the
// buffer or fails with ErrOutOfRange; nothing here can index past the end.
package byteview

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// ErrOutOfRange is returned by every read that would leave the buffer.
var ErrOutOfRange = errors.New("read out of range")

// View is a read-only borrow of a byte slice.
type View struct {
	b []byte
}

// New wraps b. The bytes are not copied and must not change while the view
// is in use.
func New(b []byte) View {
	return View{b: b}
}

// Len returns the buffer length.
func (v View) Len() int {
	return len(v.b)
}

// Has reports whether width bytes starting at off lie inside the buffer.
func (v View) Has(off, width int) bool {
	return off >= 0 && width >= 0 && off <= len(v.b)-width
}

func (v View) check(off, width int) error {
	if !v.Has(off, width) {
		return errors.Wrapf(ErrOutOfRange, "%d bytes at offset %d (length %d)", width, off, len(v.b))
	}
	return nil
}

func read[T constraints.Unsigned](v View, off, width int, little bool) (T, error) {
	if err := v.check(off, width); err != nil {
		return 0, err
	}
	var x T
	for i := 0; i < width; i++ {
		b := v.b[off+i]
		if little {
			b = v.b[off+width-1-i]
		}
		x = x<<8 | T(b)
	}
	return x, nil
}

// Uint8 reads one byte.
func (v View) Uint8(off int) (uint8, error) {
	return read[uint8](v, off, 1, false)
}

// Uint16 reads two bytes in the requested byte order.
func (v View) Uint16(off int, little bool) (uint16, error) {
	return read[uint16](v, off, 2, little)
}

// Uint32 reads four bytes in the requested byte order.
func (v View) Uint32(off int, little bool) (uint32, error) {
	return read[uint32](v, off, 4, little)
}

// Uint64 reads eight bytes in the requested byte order.
func (v View) Uint64(off int, little bool) (uint64, error) {
	return read[uint64](v, off, 8, little)
}

// Bytes returns the n bytes at off without copying. The result has its
// capacity clipped so appends cannot write into the rest of the buffer.
func (v View) Bytes(off, n int) ([]byte, error) {
	if err := v.check(off, n); err != nil {
		return nil, err
	}
	return v.b[off : off+n : off+n], nil
}

// CString reads a NUL-terminated string starting at off. The scan stops at
// the first NUL, after max bytes, or at the end of the buffer, whichever
// comes first. off itself must be inside the buffer.
func (v View) CString(off, max int) (string, error) {
	if err := v.check(off, 1); err != nil {
		return "", err
	}
	end := off
	for end < len(v.b) && end-off < max && v.b[end] != 0 {
		end++
	}
	return string(v.b[off:end]), nil
}

// Unpack decodes the fixed-layout struct pointed to by data from the bytes
// at off. The struct size is taken from its struc layout and checked against
// the buffer before anything is decoded.
func (v View) Unpack(off int, data interface{}, order binary.ByteOrder) error {
	size, err := struc.Sizeof(data)
	if err != nil {
		return errors.Wrap(err, "struct layout")
	}
	b, err := v.Bytes(off, size)
	if err != nil {
		return err
	}
	return struc.UnpackWithOrder(bytes.NewReader(b), data, order)
}

// Offset sums file-supplied offset components into an int index. The sum
// saturates at math.MaxInt, so overflowing arithmetic fails the next bounds
// check instead of wrapping around to a valid-looking index.
func Offset(parts ...uint64) int {
	var sum uint64
	for _, p := range parts {
		if sum+p < sum {
			return math.MaxInt
		}
		sum += p
	}
	if sum > math.MaxInt {
		return math.MaxInt
	}
	return int(sum)
}

// Order maps a little-endian flag to a binary.ByteOrder.
func Order(little bool) binary.ByteOrder {
	if little {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

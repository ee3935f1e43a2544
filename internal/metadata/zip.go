package metadata

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/hexdance/hexdance/internal/byteview"
)

const (
	zipLocalHeaderSize    = 30
	zipFlagDataDescriptor = 0x0008
	zipMethodStore        = 0
)

var (
	zipLocalMagic      = []byte("PK\x03\x04")
	zipDescriptorMagic = []byte("PK\x07\x08")
)

// localFileHeader is the fixed part of a ZIP local file header.
type localFileHeader struct {
	Signature        uint32
	Version          uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLength       uint16
	ExtraLength      uint16
}

// ArchiveEntry is one member found by ScanZIP.
type ArchiveEntry struct {
	Path             string
	UncompressedSize uint64
	CompressedSize   uint64
	Method           uint16
	IsCompressed     bool
	IsDirectory      bool
}

// ScanZIP walks local file headers from the start of b. It does not consult
// the central directory, so a header signature stored uncompressed inside a
// member that uses a data descriptor can show up as an extra entry.
//
// The scan stops at the first header whose name runs past the buffer or
// whose payload would end beyond it.
func ScanZIP(b []byte) []ArchiveEntry {
	v := byteview.New(b)

	var entries []ArchiveEntry
	off := 0
	for off < len(b) {
		idx := bytes.Index(b[off:], zipLocalMagic)
		if idx < 0 {
			break
		}
		off += idx

		var h localFileHeader
		if err := v.Unpack(off, &h, binary.LittleEndian); err != nil {
			break
		}
		nameOff := off + zipLocalHeaderSize
		name, err := v.Bytes(nameOff, int(h.NameLength))
		if err != nil {
			break
		}
		path := strings.ToValidUTF8(string(name), "\uFFFD")
		e := ArchiveEntry{
			Path:             path,
			UncompressedSize: uint64(h.UncompressedSize),
			CompressedSize:   uint64(h.CompressedSize),
			Method:           h.Method,
			IsCompressed:     h.Method != zipMethodStore,
			IsDirectory:      strings.HasSuffix(path, "/"),
		}

		dataOff := byteview.Offset(uint64(nameOff), uint64(h.NameLength), uint64(h.ExtraLength))
		if dataOff > len(b) {
			entries = append(entries, e)
			break
		}

		if h.Flags&zipFlagDataDescriptor != 0 && h.CompressedSize == 0 {
			// sizes trail the payload; pick them up from the descriptor and
			// resume scanning right after the header
			readDataDescriptor(v, b, dataOff, &e)
			entries = append(entries, e)
			off = dataOff
			continue
		}

		entries = append(entries, e)
		next := byteview.Offset(uint64(dataOff), uint64(h.CompressedSize))
		if next > len(b) {
			break
		}
		off = next
	}
	return entries
}

// readDataDescriptor fills in e's sizes from the first data descriptor that
// precedes the next local header. The descriptor search never reaches past
// that header, so a run of streamed headers is scanned once overall.
func readDataDescriptor(v byteview.View, b []byte, dataOff int, e *ArchiveEntry) {
	rest := b[dataOff:]
	if next := bytes.Index(rest, zipLocalMagic); next >= 0 {
		rest = rest[:next]
	}
	d := bytes.Index(rest, zipDescriptorMagic)
	if d < 0 {
		return
	}
	csize, err := v.Uint32(dataOff+d+8, true)
	if err != nil {
		return
	}
	usize, err := v.Uint32(dataOff+d+12, true)
	if err != nil {
		return
	}
	e.CompressedSize, e.UncompressedSize = uint64(csize), uint64(usize)
}

// ZIP summarizes the archive members and renders them as a tree.
func ZIP(b []byte) ([]Field, string) {
	entries := ScanZIP(b)

	var files, dirs, compressed int
	var total uint64
	for _, e := range entries {
		if e.IsDirectory {
			dirs++
			continue
		}
		files++
		total += e.UncompressedSize
		if e.IsCompressed {
			compressed++
		}
	}

	var fields fieldList
	fields.addf("Entries", "%d", len(entries))
	fields.addf("Files", "%d", files)
	fields.addf("Directories", "%d", dirs)
	fields.add("Total Size", FormatBytes(int64(total)))
	fields.addf("Compressed Entries", "%d", compressed)
	return fields, Tree(entries)
}

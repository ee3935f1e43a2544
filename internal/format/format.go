package format

import (
	"bytes"
	"encoding/binary"

	"github.com/hexdance/hexdance/internal/byteview"
)

// Tag represents the detected format of a buffer
type Tag string

const (
	MachO   Tag = "Mach-O"
	PE      Tag = "PE"
	ELF     Tag = "ELF"
	PNG     Tag = "PNG"
	JPEG    Tag = "JPEG"
	GIF     Tag = "GIF"
	PDF     Tag = "PDF"
	ZIP     Tag = "ZIP"
	Unknown Tag = "Unknown"
)

// Mach-O magic numbers as read big-endian from offset 0
const (
	MagicMachO32     uint32 = 0xFEEDFACE
	MagicMachO64     uint32 = 0xFEEDFACF
	MagicMachO32Rev  uint32 = 0xCEFAEDFE
	MagicMachO64Rev  uint32 = 0xCFFAEDFE
	MagicUniversal   uint32 = 0xCAFEBABE
	MagicUniversalLE uint32 = 0xBEBAFECA
)

const (
	magicELF  uint32 = 0x7F454C46
	magicPNG  uint32 = 0x89504E47
	magicGIF  uint32 = 0x47494638
	magicZIP  uint32 = 0x504B0304
	magicJPEG uint16 = 0xFFD8

	peHeaderPointer = 0x3C
)

var (
	pdfSignature = []byte("%PDF-")
	peSignature  = []byte("PE\x00\x00")
)

// Prelude holds the values read while sniffing, so extractors and the basic
// metadata fallback do not need to read them again.
type Prelude struct {
	// Magic is the big-endian uint32 at offset 0. Buffers shorter than four
	// bytes are zero-padded on the right.
	Magic uint32
	// Head16 is the big-endian uint16 at offset 0.
	Head16 uint16
}

// IsMachOMagic reports whether magic is one of the six Mach-O magics,
// thin or universal, in either byte order.
func IsMachOMagic(magic uint32) bool {
	switch magic {
	case MagicMachO32, MagicMachO64, MagicMachO32Rev, MagicMachO64Rev, MagicUniversal, MagicUniversalLE:
		return true
	}
	return false
}

// Detect classifies b by its leading bytes. Checks run in a fixed priority
// order and the first match wins; a buffer matching nothing is Unknown.
func Detect(b []byte) (Tag, Prelude) {
	v := byteview.New(b)

	var head [4]byte
	copy(head[:], b)
	p := Prelude{
		Magic:  binary.BigEndian.Uint32(head[:]),
		Head16: binary.BigEndian.Uint16(head[:2]),
	}

	if v.Len() < 2 {
		return Unknown, p
	}

	if v.Len() >= 4 && IsMachOMagic(p.Magic) {
		return MachO, p
	}

	if HasPESignature(v) {
		return PE, p
	}

	if v.Len() >= 4 {
		switch p.Magic {
		case magicELF:
			return ELF, p
		case magicPNG:
			return PNG, p
		}
	}

	if p.Head16 == magicJPEG {
		return JPEG, p
	}

	if v.Len() >= 4 && p.Magic == magicGIF {
		return GIF, p
	}

	if head, err := v.Bytes(0, len(pdfSignature)); err == nil && bytes.Equal(head, pdfSignature) {
		return PDF, p
	}

	if v.Len() >= 4 && p.Magic == magicZIP {
		return ZIP, p
	}

	return Unknown, p
}

// HasPESignature checks for "MZ" at offset 0 and "PE\0\0" at the offset
// stored in e_lfanew.
func HasPESignature(v byteview.View) bool {
	mz, err := v.Bytes(0, 2)
	if err != nil || mz[0] != 'M' || mz[1] != 'Z' {
		return false
	}
	lfanew, err := v.Uint32(peHeaderPointer, true)
	if err != nil {
		return false
	}
	sig, err := v.Bytes(byteview.Offset(uint64(lfanew)), len(peSignature))
	if err != nil {
		return false
	}
	return bytes.Equal(sig, peSignature)
}

// PEHeaderOffset returns e_lfanew once Detect has classified b as PE.
func PEHeaderOffset(v byteview.View) (int, error) {
	lfanew, err := v.Uint32(peHeaderPointer, true)
	if err != nil {
		return 0, err
	}
	return byteview.Offset(uint64(lfanew)), nil
}

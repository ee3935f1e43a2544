package symbols

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/hexdance/hexdance/internal/byteview"
	"github.com/hexdance/hexdance/internal/format"
)

const (
	peSignatureSize   = 4
	coffHeaderSize    = 20
	sectionHeaderSize = 40

	optionalMagicPE32Plus = 0x20B
	dataDirectoryOffset32 = 96
	dataDirectoryOffset64 = 112

	// The Windows loader refuses images with more sections than this.
	maxPESections = 96

	exportNumberOfNames   = 24
	exportAddressOfNames  = 32
	exportNamePointerSize = 4

	maxPENameLen = 256
)

type coffHeader struct {
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

type dataDirectory struct {
	VirtualAddress uint32
	Size           uint32
}

type sectionHeader struct {
	Name                 [8]byte
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLinenumbers uint32
	NumberOfRelocations  uint16
	NumberOfLinenumbers  uint16
	Characteristics      uint32
}

// sectionMapping translates one section's address range to file offsets.
type sectionMapping struct {
	virtualAddress uint32
	rawOffset      uint32
	size           uint32
}

type sectionTable []sectionMapping

// fileOffset converts an RVA to a file offset through the section that
// contains it. ok is false when no section does.
func (t sectionTable) fileOffset(rva uint32) (off int, ok bool) {
	for _, s := range t {
		if rva >= s.virtualAddress && uint64(rva) < uint64(s.virtualAddress)+uint64(s.size) {
			return byteview.Offset(uint64(s.rawOffset), uint64(rva-s.virtualAddress)), true
		}
	}
	return 0, false
}

// ExtractPE returns the sorted "name (E)" records for the names in a PE
// image's export directory. An image without an export directory yields an
// empty result; names whose RVA cannot be resolved are skipped.
func ExtractPE(b []byte) ([]string, error) {
	v := byteview.New(b)

	if !format.HasPESignature(v) {
		return nil, errors.Wrap(ErrMalformedHeader, "missing MZ or PE signature")
	}
	peOff, err := format.PEHeaderOffset(v)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, err.Error())
	}

	var coff coffHeader
	if err := v.Unpack(peOff+peSignatureSize, &coff, binary.LittleEndian); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, err.Error())
	}

	optOff := peOff + peSignatureSize + coffHeaderSize
	optMagic, err := v.Uint16(optOff, true)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, err.Error())
	}
	ddOff := optOff + dataDirectoryOffset32
	if optMagic == optionalMagicPE32Plus {
		ddOff = optOff + dataDirectoryOffset64
	}

	var exports dataDirectory
	if err := v.Unpack(ddOff, &exports, binary.LittleEndian); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, err.Error())
	}

	set := NewSet()
	if exports.VirtualAddress == 0 {
		return set.Sorted(), nil
	}

	sections := readSectionTable(v, optOff+int(coff.SizeOfOptionalHeader), coff.NumberOfSections)

	dirOff, ok := sections.fileOffset(exports.VirtualAddress)
	if !ok {
		return set.Sorted(), nil
	}
	numberOfNames, err := v.Uint32(dirOff+exportNumberOfNames, true)
	if err != nil {
		return set.Sorted(), nil
	}
	namesRVA, err := v.Uint32(dirOff+exportAddressOfNames, true)
	if err != nil {
		return set.Sorted(), nil
	}
	tableOff, ok := sections.fileOffset(namesRVA)
	if !ok {
		return set.Sorted(), nil
	}

	byteview.Bounded(uint64(numberOfNames), v.Records(tableOff, exportNamePointerSize), func(i int) bool {
		nameRVA, err := v.Uint32(tableOff+i*exportNamePointerSize, true)
		if err != nil {
			return false
		}
		nameOff, ok := sections.fileOffset(nameRVA)
		if !ok {
			return true
		}
		name, err := v.CString(nameOff, maxPENameLen)
		if err != nil {
			return true
		}
		set.Add(name, KindExported)
		return true
	})

	return set.Sorted(), nil
}

// readSectionTable reads up to count section headers starting at off,
// stopping at the first one that does not fit in the buffer.
func readSectionTable(v byteview.View, off int, count uint16) sectionTable {
	limit := min(maxPESections, v.Records(off, sectionHeaderSize))
	table := make(sectionTable, 0, min(int(count), limit))
	byteview.Bounded(uint64(count), limit, func(i int) bool {
		var sh sectionHeader
		if err := v.Unpack(off+i*sectionHeaderSize, &sh, binary.LittleEndian); err != nil {
			return false
		}
		table = append(table, sectionMapping{
			virtualAddress: sh.VirtualAddress,
			rawOffset:      sh.PointerToRawData,
			size:           max(sh.VirtualSize, sh.SizeOfRawData),
		})
		return true
	})
	return table
}

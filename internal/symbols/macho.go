package symbols

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"github.com/hexdance/hexdance/internal/byteview"
	"github.com/hexdance/hexdance/internal/format"
)

const (
	fatHeaderSize = 8
	fatArchSize   = 20

	machoHeaderSize32 = 28
	machoHeaderSize64 = 32
	machoNcmdsOffset  = 16

	maxLoadCommands = 1000
	loadCmdMinSize  = 8
	lcSymtab        = 0x2

	nlistSize32 = 12
	nlistSize64 = 16

	nStab = 0xE0 // debugging entry mask
	nType = 0x0E // type bits
	nExt  = 0x01 // external

	maxMachONameLen = 1024
)

// fatArch is one architecture record of a universal header. Fields are
// always big-endian.
type fatArch struct {
	CPUType    uint32
	CPUSubtype uint32
	Offset     uint32
	Size       uint32
	Align      uint32
}

// symtabCommand is LC_SYMTAB.
type symtabCommand struct {
	Cmd     uint32
	Cmdsize uint32
	Symoff  uint32
	Nsyms   uint32
	Stroff  uint32
	Strsize uint32
}

// machoArch is the single image selected for parsing.
type machoArch struct {
	offset int
	magic  uint32
	is64   bool
	little bool
}

func (a machoArch) headerSize() int {
	if a.is64 {
		return machoHeaderSize64
	}
	return machoHeaderSize32
}

func (a machoArch) nlistSize() int {
	if a.is64 {
		return nlistSize64
	}
	return nlistSize32
}

// ExtractMachO returns the sorted "name (T|U)" records from the symbol
// tables of a Mach-O image. For universal binaries only the first
// architecture is read.
//
// Damaged load commands and symbols are skipped; only a header that cannot
// be read at all produces an error.
func ExtractMachO(b []byte) ([]string, error) {
	v := byteview.New(b)

	arch, err := resolveMachOArch(v)
	if err != nil {
		return nil, err
	}

	if !v.Has(arch.offset, arch.headerSize()) {
		return nil, errors.Wrapf(ErrMalformedHeader, "mach-o header needs %d bytes at offset %d, file has %d",
			arch.headerSize(), arch.offset, v.Len())
	}

	ncmds, err := v.Uint32(arch.offset+machoNcmdsOffset, arch.little)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, err.Error())
	}
	if ncmds == 0 || ncmds > maxLoadCommands {
		return nil, errors.Wrapf(ErrMalformedHeader, "invalid number of load commands: %d", ncmds)
	}

	set := NewSet()
	off := arch.offset + arch.headerSize()
	byteview.Bounded(uint64(ncmds), maxLoadCommands, func(int) bool {
		cmd, err := v.Uint32(off, arch.little)
		if err != nil {
			return false
		}
		size, err := v.Uint32(off+4, arch.little)
		if err != nil {
			return false
		}
		cmdSize := byteview.Offset(uint64(size))
		if size < loadCmdMinSize || !v.Has(off, cmdSize) {
			return false
		}
		if cmd == lcSymtab {
			readMachOSymtab(v, arch, off, set)
		}
		off += cmdSize
		return true
	})

	return set.Sorted(), nil
}

// resolveMachOArch picks the image to parse: the whole buffer for a thin
// file, or the first architecture of a universal one.
func resolveMachOArch(v byteview.View) (machoArch, error) {
	magic, err := v.Uint32(0, false)
	if err != nil {
		return machoArch{}, errors.Wrap(ErrMalformedHeader, err.Error())
	}

	var arch machoArch
	if magic == format.MagicUniversal || magic == format.MagicUniversalLE {
		if !v.Has(0, fatHeaderSize+fatArchSize) {
			return machoArch{}, errors.Wrap(ErrMalformedArchive, "universal binary is missing architecture data")
		}
		nfat, err := v.Uint32(4, false)
		if err != nil {
			return machoArch{}, errors.Wrap(ErrMalformedArchive, err.Error())
		}
		var first fatArch
		if err := v.Unpack(fatHeaderSize, &first, binary.BigEndian); err != nil {
			return machoArch{}, errors.Wrap(ErrMalformedArchive, err.Error())
		}
		arch.offset = byteview.Offset(uint64(first.Offset))
		if arch.offset >= v.Len() {
			return machoArch{}, errors.Wrapf(ErrMalformedArchive, "architecture 0 of %d at offset %d is outside the file", nfat, first.Offset)
		}
		magic, err = v.Uint32(arch.offset, false)
		if err != nil {
			return machoArch{}, errors.Wrap(ErrMalformedArchive, err.Error())
		}
	}

	arch.magic = magic
	switch magic {
	case format.MagicMachO32:
	case format.MagicMachO64:
		arch.is64 = true
	case format.MagicMachO32Rev:
		arch.little = true
	case format.MagicMachO64Rev:
		arch.is64, arch.little = true, true
	default:
		if arch.offset != 0 {
			return machoArch{}, errors.Wrapf(ErrMalformedArchive, "no mach-o image at offset %d (magic 0x%08x)", arch.offset, magic)
		}
		return machoArch{}, errors.Wrapf(ErrMalformedHeader, "not a mach-o magic: 0x%08x", magic)
	}
	return arch, nil
}

// readMachOSymtab adds the accepted symbols of one LC_SYMTAB command to set.
// A command whose tables start outside the buffer is ignored.
func readMachOSymtab(v byteview.View, arch machoArch, cmdOff int, set *Set) {
	var st symtabCommand
	if err := v.Unpack(cmdOff, &st, byteview.Order(arch.little)); err != nil {
		return
	}

	// table offsets are relative to the start of the selected image
	base := uint64(arch.offset)
	symBase := byteview.Offset(base, uint64(st.Symoff))
	strBase := byteview.Offset(base, uint64(st.Stroff))
	if symBase >= v.Len() || strBase >= v.Len() {
		return
	}

	recSize := arch.nlistSize()
	byteview.Bounded(uint64(st.Nsyms), v.Records(symBase, recSize), func(j int) bool {
		rec := symBase + j*recSize

		strx, err := v.Uint32(rec, arch.little)
		if err != nil {
			return false
		}
		if strx >= st.Strsize {
			return true
		}

		// n_type and n_sect sit at the same offsets in nlist and nlist_64
		typ, err := v.Uint8(rec + 4)
		if err != nil {
			return false
		}
		sect, err := v.Uint8(rec + 5)
		if err != nil {
			return false
		}

		if typ&nStab != 0 {
			return true
		}
		if typ&nExt == 0 && sect == 0 {
			return true
		}

		name, err := v.CString(byteview.Offset(uint64(strBase), uint64(strx)), maxMachONameLen)
		if err != nil {
			return true
		}
		// only C-level names carry the underscore; assembler temporaries
		// such as ltmp0 do not and are dropped
		name, ok := strings.CutPrefix(name, "_")
		if !ok || name == "" {
			return true
		}

		kind := KindDefined
		if typ&nType == 0 {
			kind = KindUndefined
		}
		set.Add(name, kind)
		return true
	})
}

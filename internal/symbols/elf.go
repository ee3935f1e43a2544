package symbols

import (
	"github.com/pkg/errors"

	"github.com/hexdance/hexdance/internal/byteview"
)

const (
	elfMagic       = "\x7fELF"
	elfIdentSize   = 16
	elfClassOffset = 4
	elfDataOffset  = 5

	elfClass32  = 1
	elfClass64  = 2
	elfData2LSB = 1
	elfData2MSB = 2

	shtSymtab = 2
	shtDynsym = 11

	sttObject = 1
	sttFunc   = 2

	stbLocal  = 0
	stbGlobal = 1
	stbWeak   = 2

	elfSectionSize32 = 40
	elfSectionSize64 = 64
	elfSymSize32     = 16
	elfSymSize64     = 24

	maxELFNameLen = 1024
)

// elfHeader32 and elfHeader64 are the fields following e_ident.
type elfHeader32 struct {
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type elfHeader64 struct {
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type elfSection32 struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Addr      uint32
	Offset    uint32
	Size      uint32
	Link      uint32
	Info      uint32
	Addralign uint32
	Entsize   uint32
}

type elfSection64 struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// elfLayout is the width/order independent view of the ELF header fields
// the extractor needs.
type elfLayout struct {
	is64      bool
	little    bool
	shoff     uint64
	shentsize uint16
	shnum     uint16
}

type elfSection struct {
	typ     uint32
	offset  uint64
	size    uint64
	link    uint32
	entsize uint64
}

// ExtractELF returns the sorted "name (L|G|W|U)" records for the function
// and object symbols of every SHT_SYMTAB and SHT_DYNSYM section.
func ExtractELF(b []byte) ([]string, error) {
	v := byteview.New(b)

	layout, err := readELFLayout(v)
	if err != nil {
		return nil, err
	}

	set := NewSet()
	if layout.shnum == 0 {
		return set.Sorted(), nil
	}

	shoff := byteview.Offset(layout.shoff)
	byteview.Bounded(uint64(layout.shnum), v.Records(shoff, int(layout.shentsize)), func(i int) bool {
		sec, err := readELFSection(v, layout, i)
		if err != nil {
			return false
		}
		if sec.typ != shtSymtab && sec.typ != shtDynsym {
			return true
		}
		if sec.link >= uint32(layout.shnum) {
			return true
		}
		strtab, err := readELFSection(v, layout, int(sec.link))
		if err != nil {
			return true
		}
		readELFSymbols(v, layout, sec, strtab, set)
		return true
	})

	return set.Sorted(), nil
}

func readELFLayout(v byteview.View) (elfLayout, error) {
	ident, err := v.Bytes(0, elfIdentSize)
	if err != nil {
		return elfLayout{}, errors.Wrap(ErrMalformedHeader, err.Error())
	}
	if string(ident[:4]) != elfMagic {
		return elfLayout{}, errors.Wrap(ErrMalformedHeader, "missing ELF magic")
	}
	class, data := ident[elfClassOffset], ident[elfDataOffset]

	var l elfLayout
	switch data {
	case elfData2LSB:
		l.little = true
	case elfData2MSB:
	default:
		return elfLayout{}, errors.Wrapf(ErrMalformedHeader, "unknown ELF data encoding %d", data)
	}

	order := byteview.Order(l.little)
	switch class {
	case elfClass32:
		var h elfHeader32
		if err := v.Unpack(elfIdentSize, &h, order); err != nil {
			return elfLayout{}, errors.Wrap(ErrMalformedHeader, err.Error())
		}
		l.shoff, l.shentsize, l.shnum = uint64(h.Shoff), h.Shentsize, h.Shnum
	case elfClass64:
		var h elfHeader64
		if err := v.Unpack(elfIdentSize, &h, order); err != nil {
			return elfLayout{}, errors.Wrap(ErrMalformedHeader, err.Error())
		}
		l.is64 = true
		l.shoff, l.shentsize, l.shnum = h.Shoff, h.Shentsize, h.Shnum
	default:
		return elfLayout{}, errors.Wrapf(ErrMalformedHeader, "unknown ELF class %d", class)
	}

	if l.shnum > 0 && int(l.shentsize) < l.sectionSize() {
		return elfLayout{}, errors.Wrapf(ErrMalformedHeader, "section header entry size %d is smaller than %d", l.shentsize, l.sectionSize())
	}
	return l, nil
}

func (l elfLayout) sectionSize() int {
	if l.is64 {
		return elfSectionSize64
	}
	return elfSectionSize32
}

func (l elfLayout) symbolSize() int {
	if l.is64 {
		return elfSymSize64
	}
	return elfSymSize32
}

func readELFSection(v byteview.View, l elfLayout, index int) (elfSection, error) {
	off := byteview.Offset(l.shoff, uint64(index)*uint64(l.shentsize))
	order := byteview.Order(l.little)
	if l.is64 {
		var sh elfSection64
		if err := v.Unpack(off, &sh, order); err != nil {
			return elfSection{}, err
		}
		return elfSection{typ: sh.Type, offset: sh.Offset, size: sh.Size, link: sh.Link, entsize: sh.Entsize}, nil
	}
	var sh elfSection32
	if err := v.Unpack(off, &sh, order); err != nil {
		return elfSection{}, err
	}
	return elfSection{
		typ:     sh.Type,
		offset:  uint64(sh.Offset),
		size:    uint64(sh.Size),
		link:    sh.Link,
		entsize: uint64(sh.Entsize),
	}, nil
}

// readELFSymbols adds the accepted symbols of one symbol table section.
// A zero or undersized sh_entsize falls back to the natural record size.
func readELFSymbols(v byteview.View, l elfLayout, sec, strtab elfSection, set *Set) {
	entsize := byteview.Offset(sec.entsize)
	if entsize < l.symbolSize() {
		entsize = l.symbolSize()
	}
	count := sec.size / uint64(entsize)
	base := byteview.Offset(sec.offset)

	infoOffset := 12
	if l.is64 {
		infoOffset = 4
	}

	byteview.Bounded(count, v.Records(base, entsize), func(j int) bool {
		rec := base + j*entsize
		nameOff, err := v.Uint32(rec, l.little)
		if err != nil {
			return false
		}
		info, err := v.Uint8(rec + infoOffset)
		if err != nil {
			return false
		}

		typ := info & 0x0F
		if typ != sttFunc && typ != sttObject {
			return true
		}

		name, err := v.CString(byteview.Offset(strtab.offset, uint64(nameOff)), maxELFNameLen)
		if err != nil {
			return true
		}
		set.Add(name, bindingKind(info>>4))
		return true
	})
}

func bindingKind(bind uint8) Kind {
	switch bind {
	case stbLocal:
		return KindLocal
	case stbGlobal:
		return KindGlobal
	case stbWeak:
		return KindWeak
	}
	return KindOther
}

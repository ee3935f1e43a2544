// Package fixtures builds small, well-formed sample files for every format
// hexdance understands. The images are assembled from the debug/* header
// structs so that tests and the samples command exercise real layouts
// without shipping binaries in the repository.
package fixtures

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"encoding/binary"
)

// MachOSymbol is one nlist entry. Name is written to the string table as
// given, so callers add the leading underscore themselves.
type MachOSymbol struct {
	Name string
	Type uint8
	Sect uint8
}

// MachO returns a thin Mach-O image with a single LC_SYMTAB command.
// A little-endian image carries the byte-reversed magic on disk.
func MachO(is64, little bool, syms []MachOSymbol) []byte {
	order := byteOrder(little)

	headerSize, nlistSize := 28, 12
	magic := macho.Magic32
	cpu := macho.Cpu386
	if is64 {
		headerSize, nlistSize = 32, 16
		magic = macho.Magic64
		cpu = macho.CpuAmd64
	}
	const symtabSize = 24

	strtab := []byte{0}
	strx := make([]uint32, len(syms))
	for i, s := range syms {
		strx[i] = uint32(len(strtab))
		strtab = append(strtab, s.Name...)
		strtab = append(strtab, 0)
	}
	symoff := headerSize + symtabSize
	stroff := symoff + len(syms)*nlistSize

	var buf bytes.Buffer
	write(&buf, order, macho.FileHeader{
		Magic:  magic,
		Cpu:    cpu,
		SubCpu: 3,
		Type:   macho.TypeExec,
		Ncmd:   1,
		Cmdsz:  symtabSize,
	})
	if is64 {
		write(&buf, order, uint32(0)) // reserved
	}
	write(&buf, order, macho.SymtabCmd{
		Cmd:     macho.LoadCmdSymtab,
		Len:     symtabSize,
		Symoff:  uint32(symoff),
		Nsyms:   uint32(len(syms)),
		Stroff:  uint32(stroff),
		Strsize: uint32(len(strtab)),
	})
	for i, s := range syms {
		if is64 {
			write(&buf, order, macho.Nlist64{Name: strx[i], Type: s.Type, Sect: s.Sect})
		} else {
			write(&buf, order, macho.Nlist32{Name: strx[i], Type: s.Type, Sect: s.Sect})
		}
	}
	buf.Write(strtab)
	return buf.Bytes()
}

// universalAlign is the alignment of each image inside a universal file.
const universalAlign = 64

// Universal wraps thin images in a big-endian universal header.
func Universal(images ...[]byte) []byte {
	var buf bytes.Buffer
	write(&buf, binary.BigEndian, uint32(macho.MagicFat))
	write(&buf, binary.BigEndian, uint32(len(images)))

	off := alignUp(8+20*len(images), universalAlign)
	offsets := make([]int, len(images))
	for i, img := range images {
		offsets[i] = off
		write(&buf, binary.BigEndian, macho.FatArchHeader{
			Cpu:    macho.CpuAmd64,
			SubCpu: 3,
			Offset: uint32(off),
			Size:   uint32(len(img)),
			Align:  6,
		})
		off = alignUp(off+len(img), universalAlign)
	}
	for i, img := range images {
		pad(&buf, offsets[i])
		buf.Write(img)
	}
	return buf.Bytes()
}

const (
	peHeaderOffset = 0x40
	peSectionRVA   = 0x1000
	peSectionRaw   = 0x200
	peFileAlign    = 0x200
)

type exportDirectory struct {
	Characteristics       uint32
	TimeDateStamp         uint32
	MajorVersion          uint16
	MinorVersion          uint16
	Name                  uint32
	Base                  uint32
	NumberOfFunctions     uint32
	NumberOfNames         uint32
	AddressOfFunctions    uint32
	AddressOfNames        uint32
	AddressOfNameOrdinals uint32
}

// PE returns a PE32 (or PE32+ when is64) image with one .edata section.
// When exports is empty the export data directory is left zero.
func PE(is64 bool, exports []string) []byte {
	edata := exportSection(exports)
	rawSize := alignUp(len(edata), peFileAlign)

	var dirs [16]pe.DataDirectory
	if len(exports) > 0 {
		dirs[pe.IMAGE_DIRECTORY_ENTRY_EXPORT] = pe.DataDirectory{
			VirtualAddress: peSectionRVA,
			Size:           uint32(len(edata)),
		}
	}

	var opt any
	machine := uint16(pe.IMAGE_FILE_MACHINE_I386)
	if is64 {
		machine = pe.IMAGE_FILE_MACHINE_AMD64
		opt = pe.OptionalHeader64{
			Magic:               0x20B,
			AddressOfEntryPoint: peSectionRVA,
			ImageBase:           0x140000000,
			SectionAlignment:    0x1000,
			FileAlignment:       peFileAlign,
			SizeOfImage:         0x2000,
			SizeOfHeaders:       peSectionRaw,
			NumberOfRvaAndSizes: 16,
			DataDirectory:       dirs,
		}
	} else {
		opt = pe.OptionalHeader32{
			Magic:               0x10B,
			AddressOfEntryPoint: peSectionRVA,
			ImageBase:           0x400000,
			SectionAlignment:    0x1000,
			FileAlignment:       peFileAlign,
			SizeOfImage:         0x2000,
			SizeOfHeaders:       peSectionRaw,
			NumberOfRvaAndSizes: 16,
			DataDirectory:       dirs,
		}
	}

	var buf bytes.Buffer
	buf.WriteString("MZ")
	pad(&buf, 0x3C)
	write(&buf, binary.LittleEndian, uint32(peHeaderOffset))
	pad(&buf, peHeaderOffset)
	buf.WriteString("PE\x00\x00")
	write(&buf, binary.LittleEndian, pe.FileHeader{
		Machine:              machine,
		NumberOfSections:     1,
		SizeOfOptionalHeader: uint16(binary.Size(opt)),
		Characteristics:      pe.IMAGE_FILE_EXECUTABLE_IMAGE,
	})
	write(&buf, binary.LittleEndian, opt)
	write(&buf, binary.LittleEndian, pe.SectionHeader32{
		Name:             [8]uint8{'.', 'e', 'd', 'a', 't', 'a'},
		VirtualSize:      uint32(len(edata)),
		VirtualAddress:   peSectionRVA,
		SizeOfRawData:    uint32(rawSize),
		PointerToRawData: peSectionRaw,
		Characteristics:  0x40000040, // initialized data, readable
	})
	pad(&buf, peSectionRaw)
	buf.Write(edata)
	pad(&buf, peSectionRaw+rawSize)
	return buf.Bytes()
}

// exportSection lays out the export directory, the name pointer table and
// the names, addressed as if loaded at peSectionRVA.
func exportSection(names []string) []byte {
	dirSize := binary.Size(exportDirectory{})
	tableRVA := peSectionRVA + dirSize
	nameRVA := tableRVA + 4*len(names)

	var table, strs bytes.Buffer
	for _, n := range names {
		write(&table, binary.LittleEndian, uint32(nameRVA+strs.Len()))
		strs.WriteString(n)
		strs.WriteByte(0)
	}

	var buf bytes.Buffer
	write(&buf, binary.LittleEndian, exportDirectory{
		Base:              1,
		NumberOfFunctions: uint32(len(names)),
		NumberOfNames:     uint32(len(names)),
		AddressOfNames:    uint32(tableRVA),
	})
	buf.Write(table.Bytes())
	buf.Write(strs.Bytes())
	return buf.Bytes()
}

// ELFSymbol is one symbol table entry.
type ELFSymbol struct {
	Name string
	Bind elf.SymBind
	Type elf.SymType
}

// ELF returns an executable with a .symtab section holding syms after the
// mandatory null symbol.
func ELF(is64, little bool, syms []ELFSymbol) []byte {
	return elfImage(is64, little, elf.SHT_SYMTAB, syms)
}

// ELFDynamic is like ELF but stores the symbols in a SHT_DYNSYM section.
func ELFDynamic(is64, little bool, syms []ELFSymbol) []byte {
	return elfImage(is64, little, elf.SHT_DYNSYM, syms)
}

func elfImage(is64, little bool, symType elf.SectionType, syms []ELFSymbol) []byte {
	order := byteOrder(little)

	headerSize, symSize, shSize := 52, 16, 40
	class := elf.ELFCLASS32
	if is64 {
		headerSize, symSize, shSize = 64, 24, 64
		class = elf.ELFCLASS64
	}
	data := elf.ELFDATA2MSB
	if little {
		data = elf.ELFDATA2LSB
	}

	strtab := []byte{0}
	strx := make([]uint32, len(syms))
	for i, s := range syms {
		strx[i] = uint32(len(strtab))
		strtab = append(strtab, s.Name...)
		strtab = append(strtab, 0)
	}

	nsyms := len(syms) + 1
	symOff := headerSize
	strOff := symOff + nsyms*symSize
	shOff := alignUp(strOff+len(strtab), 8)
	const shnum = 3

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(class)
	ident[elf.EI_DATA] = byte(data)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var buf bytes.Buffer
	if is64 {
		write(&buf, order, elf.Header64{
			Ident:     ident,
			Type:      uint16(elf.ET_EXEC),
			Machine:   uint16(elf.EM_X86_64),
			Version:   uint32(elf.EV_CURRENT),
			Shoff:     uint64(shOff),
			Ehsize:    uint16(headerSize),
			Shentsize: uint16(shSize),
			Shnum:     shnum,
		})
		write(&buf, order, elf.Sym64{})
		for i, s := range syms {
			write(&buf, order, elf.Sym64{Name: strx[i], Info: elf.ST_INFO(s.Bind, s.Type), Shndx: 1})
		}
	} else {
		write(&buf, order, elf.Header32{
			Ident:     ident,
			Type:      uint16(elf.ET_EXEC),
			Machine:   uint16(elf.EM_386),
			Version:   uint32(elf.EV_CURRENT),
			Shoff:     uint32(shOff),
			Ehsize:    uint16(headerSize),
			Shentsize: uint16(shSize),
			Shnum:     shnum,
		})
		write(&buf, order, elf.Sym32{})
		for i, s := range syms {
			write(&buf, order, elf.Sym32{Name: strx[i], Info: elf.ST_INFO(s.Bind, s.Type), Shndx: 1})
		}
	}
	buf.Write(strtab)
	pad(&buf, shOff)

	if is64 {
		write(&buf, order, elf.Section64{})
		write(&buf, order, elf.Section64{
			Type:    uint32(symType),
			Off:     uint64(symOff),
			Size:    uint64(nsyms * symSize),
			Link:    2,
			Info:    1,
			Entsize: uint64(symSize),
		})
		write(&buf, order, elf.Section64{
			Type: uint32(elf.SHT_STRTAB),
			Off:  uint64(strOff),
			Size: uint64(len(strtab)),
		})
	} else {
		write(&buf, order, elf.Section32{})
		write(&buf, order, elf.Section32{
			Type:    uint32(symType),
			Off:     uint32(symOff),
			Size:    uint32(nsyms * symSize),
			Link:    2,
			Info:    1,
			Entsize: uint32(symSize),
		})
		write(&buf, order, elf.Section32{
			Type: uint32(elf.SHT_STRTAB),
			Off:  uint32(strOff),
			Size: uint32(len(strtab)),
		})
	}
	return buf.Bytes()
}

func byteOrder(little bool) binary.ByteOrder {
	if little {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// write encodes fixed-size data. Writes to a bytes.Buffer only fail on
// programming errors, so those panic.
func write(buf *bytes.Buffer, order binary.ByteOrder, data any) {
	if err := binary.Write(buf, order, data); err != nil {
		panic(err)
	}
}

// pad zero-fills buf up to length n.
func pad(buf *bytes.Buffer, n int) {
	if buf.Len() < n {
		buf.Write(make([]byte, n-buf.Len()))
	}
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

package format

import "fmt"

var machoDescriptions = map[uint32]string{
	MagicMachO32:     "32-bit Mach-O",
	MagicMachO64:     "64-bit Mach-O",
	MagicMachO32Rev:  "32-bit Mach-O (reversed)",
	MagicMachO64Rev:  "64-bit Mach-O (reversed)",
	MagicUniversal:   "Universal Binary",
	MagicUniversalLE: "Universal Binary (reversed)",
}

var descriptions = map[Tag]string{
	PE:      "Windows PE Executable",
	ELF:     "Linux ELF Executable",
	PNG:     "PNG Image",
	JPEG:    "JPEG Image",
	GIF:     "GIF Image",
	PDF:     "PDF Document",
	ZIP:     "ZIP Archive",
	Unknown: "Unknown Format",
}

// Describe returns a human-readable file type for tag. Mach-O files are
// further distinguished by their magic.
func Describe(tag Tag, magic uint32) string {
	if tag == MachO {
		if d, ok := machoDescriptions[magic]; ok {
			return d
		}
		return "Unknown Mach-O format"
	}
	if d, ok := descriptions[tag]; ok {
		return d
	}
	return descriptions[Unknown]
}

// MagicHex renders magic as the "First Bytes" value: 0x followed by eight
// upper-case hex digits.
func MagicHex(magic uint32) string {
	return fmt.Sprintf("0x%08X", magic)
}

// Signature documents how a format is recognized, for listings.
type Signature struct {
	Tag         Tag    `json:"format"`
	Description string `json:"description"`
	Magic       string `json:"magic"`
}

// Signatures lists the supported formats in detection priority order.
func Signatures() []Signature {
	return []Signature{
		{MachO, "Mach-O object, thin or universal", "FEEDFACE FEEDFACF CEFAEDFE CFFAEDFE CAFEBABE BEBAFECA"},
		{PE, descriptions[PE], "'MZ' at 0, 'PE\\0\\0' at [0x3C]"},
		{ELF, descriptions[ELF], "7F 45 4C 46"},
		{PNG, descriptions[PNG], "89 50 4E 47"},
		{JPEG, descriptions[JPEG], "FF D8"},
		{GIF, descriptions[GIF], "47 49 46 38"},
		{PDF, descriptions[PDF], "'%PDF-'"},
		{ZIP, descriptions[ZIP], "50 4B 03 04"},
	}
}

package metadata

import (
	"encoding/binary"
	"strings"

	"github.com/hexdance/hexdance/internal/byteview"
)

// logicalScreen is the GIF header plus logical screen descriptor.
type logicalScreen struct {
	Signature   [6]byte
	Width       uint16
	Height      uint16
	Flags       uint8
	Background  uint8
	AspectRatio uint8
}

// GIF reports the logical screen descriptor.
func GIF(b []byte) []Field {
	var ls logicalScreen
	if err := byteview.New(b).Unpack(0, &ls, binary.LittleEndian); err != nil {
		return nil
	}

	var fields fieldList
	fields.add("Version", printable(string(ls.Signature[:])))
	fields.addf("Width", "%d", ls.Width)
	fields.addf("Height", "%d", ls.Height)
	if ls.Flags&0x80 != 0 {
		fields.add("Global Color Table", "Yes")
		fields.addf("Color Table Size", "%d", 1<<((ls.Flags&0x07)+1))
	} else {
		fields.add("Global Color Table", "No")
	}
	fields.addf("Bit Depth", "%d", ((ls.Flags>>4)&0x07)+1)
	fields.addf("Background Color Index", "%d", ls.Background)
	return fields
}

// printable drops bytes outside printable ASCII.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7E {
			return -1
		}
		return r
	}, s)
}

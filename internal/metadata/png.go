package metadata

import (
	"github.com/hexdance/hexdance/internal/byteview"
)

const (
	pngSignatureSize = 8
	pngChunkOverhead = 12 // length, type and CRC
)

var pngColorTypes = map[uint8]string{
	0: "Grayscale",
	2: "RGB",
	3: "Indexed",
	4: "Grayscale + Alpha",
	6: "RGBA",
}

// PNG walks the chunk list and reports the IHDR fields and the number of
// chunks seen up to IEND.
func PNG(b []byte) []Field {
	v := byteview.New(b)

	var fields fieldList
	chunks := 0
	off := pngSignatureSize
	for v.Has(off, 8) {
		length, _ := v.Uint32(off, false)
		typ, _ := v.Bytes(off+4, 4)
		chunks++

		if string(typ) == "IHDR" {
			readIHDR(v, off+8, &fields)
		}
		if string(typ) == "IEND" {
			break
		}
		off = byteview.Offset(uint64(off), pngChunkOverhead, uint64(length))
	}

	if chunks > 0 {
		fields.addf("Chunks", "%d", chunks)
	}
	return fields
}

func readIHDR(v byteview.View, off int, fields *fieldList) {
	if !v.Has(off, 13) {
		return
	}
	width, _ := v.Uint32(off, false)
	height, _ := v.Uint32(off+4, false)
	depth, _ := v.Uint8(off + 8)
	color, _ := v.Uint8(off + 9)
	interlace, _ := v.Uint8(off + 12)

	fields.addf("Width", "%d", width)
	fields.addf("Height", "%d", height)
	fields.addf("Bit Depth", "%d", depth)
	if name, ok := pngColorTypes[color]; ok {
		fields.addf("Color Type", "%d (%s)", color, name)
	} else {
		fields.addf("Color Type", "%d", color)
	}
	switch interlace {
	case 0:
		fields.add("Interlace", "None")
	case 1:
		fields.add("Interlace", "Adam7")
	default:
		fields.addf("Interlace", "%d", interlace)
	}
}

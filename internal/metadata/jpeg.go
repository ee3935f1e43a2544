package metadata

import (
	"github.com/hexdance/hexdance/internal/byteview"
)

const (
	markerSOI = 0xD8
	markerEOI = 0xD9
	markerSOS = 0xDA
	markerTEM = 0x01
	markerDHT = 0xC4
	markerJPG = 0xC8
	markerDAC = 0xCC
)

var jpegProcesses = map[uint8]string{
	0xC0: "Baseline",
	0xC1: "Extended Sequential",
	0xC2: "Progressive",
	0xC3: "Lossless",
}

// JPEG walks the marker segments until the first frame header and reports
// its precision, dimensions and component count.
func JPEG(b []byte) []Field {
	v := byteview.New(b)

	var fields fieldList
	off := 2
	for {
		prefix, err := v.Uint8(off)
		if err != nil || prefix != 0xFF {
			break
		}
		marker, err := v.Uint8(off + 1)
		if err != nil {
			break
		}

		switch {
		case marker == 0xFF:
			// fill byte
			off++
			continue
		case marker == markerSOI || marker == markerTEM || (marker >= 0xD0 && marker <= 0xD7):
			off += 2
			continue
		case marker == markerEOI || marker == markerSOS:
			return fields
		}

		length, err := v.Uint16(off+2, false)
		if err != nil || length < 2 {
			break
		}

		if isFrameMarker(marker) {
			readFrameHeader(v, off+4, marker, &fields)
			break
		}
		off = byteview.Offset(uint64(off), 2, uint64(length))
	}
	return fields
}

func isFrameMarker(marker uint8) bool {
	return marker&0xF0 == 0xC0 && marker != markerDHT && marker != markerJPG && marker != markerDAC
}

func readFrameHeader(v byteview.View, off int, marker uint8, fields *fieldList) {
	if !v.Has(off, 6) {
		return
	}
	precision, _ := v.Uint8(off)
	height, _ := v.Uint16(off+1, false)
	width, _ := v.Uint16(off+3, false)
	components, _ := v.Uint8(off + 5)

	fields.addf("Precision", "%d bits", precision)
	fields.addf("Height", "%d", height)
	fields.addf("Width", "%d", width)
	fields.addf("Components", "%d", components)
	if name, ok := jpegProcesses[marker]; ok {
		fields.add("Encoding", name)
	}
}

package fixtures

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"sort"
	"time"
)

// PNG returns a signature, an IHDR chunk, one IDAT chunk and IEND.
func PNG(width, height uint32, bitDepth, colorType, interlace uint8) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], width)
	binary.BigEndian.PutUint32(ihdr[4:], height)
	ihdr[8] = bitDepth
	ihdr[9] = colorType
	ihdr[12] = interlace

	pngChunk(&buf, "IHDR", ihdr)
	pngChunk(&buf, "IDAT", []byte{0x78, 0x9C, 0x03, 0x00, 0x00, 0x00, 0x00, 0x01})
	pngChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func pngChunk(buf *bytes.Buffer, typ string, data []byte) {
	write(buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(typ)
	buf.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	write(buf, binary.BigEndian, crc.Sum32())
}

// JPEG returns a baseline JFIF stream. A DHT segment precedes the frame
// header so readers have to skip it.
func JPEG(width, height uint16, components uint8) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8})

	jpegSegment(&buf, 0xE0, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00"))
	jpegSegment(&buf, 0xC4, []byte{0x00, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})

	sof := []byte{8, 0, 0, 0, 0, components}
	binary.BigEndian.PutUint16(sof[1:], height)
	binary.BigEndian.PutUint16(sof[3:], width)
	for i := uint8(1); i <= components; i++ {
		sof = append(sof, i, 0x11, 0)
	}
	jpegSegment(&buf, 0xC0, sof)

	jpegSegment(&buf, 0xDA, []byte{1, 1, 0, 0, 0x3F, 0})
	buf.Write([]byte{0x12, 0x34, 0xFF, 0x00, 0x56})
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

func jpegSegment(buf *bytes.Buffer, marker byte, payload []byte) {
	buf.Write([]byte{0xFF, marker})
	write(buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
}

// GIF returns a GIF89a header, the global color table announced by flags
// and the trailer.
func GIF(width, height uint16, flags, background uint8) []byte {
	var buf bytes.Buffer
	buf.WriteString("GIF89a")
	write(&buf, binary.LittleEndian, width)
	write(&buf, binary.LittleEndian, height)
	buf.Write([]byte{flags, background, 0})
	if flags&0x80 != 0 {
		buf.Write(make([]byte, 3<<((flags&0x07)+1)))
	}
	buf.WriteByte(0x3B)
	return buf.Bytes()
}

// PDF returns a document with an Info dictionary holding info (values are
// written verbatim between parentheses) and one Pages node per count.
func PDF(version string, info map[string]string, pageCounts ...int) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xE2\xE3\xCF\xD3\n", version)

	obj := 1
	fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n", obj)
	for _, n := range pageCounts {
		obj++
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /Pages /Kids [] /Count %d >>\nendobj\n", obj, n)
	}

	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	obj++
	fmt.Fprintf(&buf, "%d 0 obj\n<<", obj)
	for _, k := range keys {
		fmt.Fprintf(&buf, " /%s (%s)", k, info[k])
	}
	buf.WriteString(" >>\nendobj\n")
	fmt.Fprintf(&buf, "trailer\n<< /Root 1 0 R /Info %d 0 R >>\n%%%%EOF\n", obj)
	return buf.Bytes()
}

// ZipEntry describes one archive member. Names ending in "/" are
// directories.
type ZipEntry struct {
	Name    string
	Data    []byte
	Deflate bool
}

var zipTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// ZIP returns an archive whose local headers carry the real sizes.
func ZIP(entries []ZipEntry) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		payload := e.Data
		method := zip.Store
		if e.Deflate {
			payload = deflate(e.Data)
			method = zip.Deflate
		}
		fh := &zip.FileHeader{
			Name:               e.Name,
			Method:             method,
			Modified:           zipTime,
			CRC32:              crc32.ChecksumIEEE(e.Data),
			CompressedSize64:   uint64(len(payload)),
			UncompressedSize64: uint64(len(e.Data)),
		}
		fw, err := w.CreateRaw(fh)
		if err != nil {
			panic(err)
		}
		if _, err := fw.Write(payload); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// StreamedZIP returns an archive written the way streaming encoders do:
// local headers have the data descriptor flag set and zero sizes.
func StreamedZIP(entries []ZipEntry) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		method := zip.Store
		if e.Deflate {
			method = zip.Deflate
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method, Modified: zipTime})
		if err != nil {
			panic(err)
		}
		if _, err := io.Copy(fw, bytes.NewReader(e.Data)); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func deflate(data []byte) []byte {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		panic(err)
	}
	if _, err := fw.Write(data); err != nil {
		panic(err)
	}
	if err := fw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

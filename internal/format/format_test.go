package format

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func peStub() []byte {
	b := make([]byte, 0x90)
	b[0], b[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(b[0x3C:], 0x80)
	copy(b[0x80:], "PE\x00\x00")
	return b
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Tag
	}{
		{"mach-o 32", []byte{0xFE, 0xED, 0xFA, 0xCE, 0, 0}, MachO},
		{"mach-o 64", []byte{0xFE, 0xED, 0xFA, 0xCF}, MachO},
		{"mach-o 32 reversed", []byte{0xCE, 0xFA, 0xED, 0xFE}, MachO},
		{"mach-o 64 reversed", []byte{0xCF, 0xFA, 0xED, 0xFE}, MachO},
		{"universal", []byte{0xCA, 0xFE, 0xBA, 0xBE}, MachO},
		{"universal reversed", []byte{0xBE, 0xBA, 0xFE, 0xCA}, MachO},
		{"pe", peStub(), PE},
		{"elf", []byte{0x7F, 'E', 'L', 'F', 2, 1}, ELF},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, PNG},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, JPEG},
		{"jpeg two bytes", []byte{0xFF, 0xD8}, JPEG},
		{"gif", []byte("GIF89a"), GIF},
		{"pdf", []byte("%PDF-1.7\n"), PDF},
		{"zip", []byte{'P', 'K', 3, 4, 0, 0}, ZIP},
		{"text", []byte("hello world"), Unknown},
		{"empty", nil, Unknown},
		{"single byte", []byte{0x7F}, Unknown},
		{"truncated elf magic", []byte{0x7F, 'E', 'L'}, Unknown},
		{"pdf prefix only", []byte("%PDF"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Detect(tt.data)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_MZWithoutPESignature(t *testing.T) {
	b := peStub()
	copy(b[0x80:], "NE\x00\x00")
	got, _ := Detect(b)
	assert.Equal(t, Unknown, got)

	// e_lfanew pointing past the end of the buffer
	b = peStub()
	binary.LittleEndian.PutUint32(b[0x3C:], 0xFFFFFFF0)
	got, _ = Detect(b)
	assert.Equal(t, Unknown, got)

	// too short to hold e_lfanew
	got, _ = Detect([]byte("MZ\x90\x00"))
	assert.Equal(t, Unknown, got)
}

func TestDetect_Priority(t *testing.T) {
	// A Mach-O magic wins even when the rest of the buffer looks like a PDF.
	b := append([]byte{0xFE, 0xED, 0xFA, 0xCF}, []byte("%PDF-")...)
	got, _ := Detect(b)
	assert.Equal(t, MachO, got)
}

func TestDetect_Prelude(t *testing.T) {
	_, p := Detect([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00})
	assert.Equal(t, uint32(0xDEADBEEF), p.Magic)
	assert.Equal(t, uint16(0xDEAD), p.Head16)

	_, p = Detect([]byte{0xAB, 0xCD})
	assert.Equal(t, uint32(0xABCD0000), p.Magic)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "64-bit Mach-O", Describe(MachO, MagicMachO64))
	assert.Equal(t, "Universal Binary (reversed)", Describe(MachO, MagicUniversalLE))
	assert.Equal(t, "Unknown Mach-O format", Describe(MachO, 0x12345678))
	assert.Equal(t, "Windows PE Executable", Describe(PE, 0))
	assert.Equal(t, "ZIP Archive", Describe(ZIP, 0))
	assert.Equal(t, "Unknown Format", Describe(Unknown, 0))
	assert.Equal(t, "Unknown Format", Describe(Tag("bogus"), 0))
}

func TestMagicHex(t *testing.T) {
	assert.Equal(t, "0xFEEDFACF", MagicHex(0xFEEDFACF))
	assert.Equal(t, "0x0000002A", MagicHex(42))
}

func TestSignatures(t *testing.T) {
	sigs := Signatures()
	assert.Len(t, sigs, 8)
	assert.Equal(t, MachO, sigs[0].Tag)
	assert.Equal(t, ZIP, sigs[len(sigs)-1].Tag)
}

package analyzer

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexdance/hexdance/internal/fixtures"
	"github.com/hexdance/hexdance/internal/format"
	"github.com/hexdance/hexdance/internal/symbols"
)

func TestClassifyAndExtract_Samples(t *testing.T) {
	samples := fixtures.Samples()

	tests := []struct {
		file   string
		format format.Tag
		desc   string
		has    []string
	}{
		{"hello.macho", format.MachO, "64-bit Mach-O (reversed)", []string{"main (T)", "printf (U)"}},
		{"hello.universal", format.MachO, "Universal Binary", []string{"main (T)", "printf (U)"}},
		{"hello.dll", format.PE, "Windows PE Executable", []string{"Add (E)", "DllMain (E)", "Subtract (E)"}},
		{"hello64.dll", format.PE, "Windows PE Executable", []string{"DllMain (E)"}},
		{"hello.elf", format.ELF, "Linux ELF Executable", []string{"counter (L)", "hook (W)", "main (G)"}},
		{"pixel.png", format.PNG, "PNG Image", []string{"Width: 640", "Height: 480"}},
		{"photo.jpg", format.JPEG, "JPEG Image", []string{"Width: 1920", "Height: 1080"}},
		{"anim.gif", format.GIF, "GIF Image", []string{"Width: 320", "Version: GIF89a"}},
		{"report.pdf", format.PDF, "PDF Document", []string{"Pages: 3", "Title: Quarterly Report"}},
		{"bundle.zip", format.ZIP, "ZIP Archive", []string{"Files: 3", "Directories: 1"}},
		{"notes.txt", format.Unknown, "Unknown Format", []string{"File Type: Unknown Format"}},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			res := ClassifyAndExtract(samples[tt.file])
			require.NoError(t, res.Err)
			assert.Equal(t, tt.format, res.Format)
			assert.Equal(t, tt.desc, res.Description)
			for _, e := range tt.has {
				assert.Contains(t, res.Entries, e)
			}
			assert.True(t, sort.StringsAreSorted(res.Entries))
		})
	}
}

func TestClassifyAndExtract_SymbolDescriptions(t *testing.T) {
	res := ClassifyAndExtract(fixtures.Samples()["hello.macho"])
	require.NoError(t, res.Err)
	assert.Equal(t, "Prints formatted text to stdout. Part of stdio.h", res.Descriptions["printf (U)"])
	assert.NotContains(t, res.Descriptions, "main (T)")

	res = ClassifyAndExtract(fixtures.Samples()["pixel.png"])
	assert.Nil(t, res.Descriptions)
}

func TestClassifyAndExtract_ZIPHasOneTree(t *testing.T) {
	res := ClassifyAndExtract(fixtures.Samples()["bundle.zip"])
	require.Len(t, res.Blocks, 1)
	assert.Contains(t, res.Blocks[0], "readme.txt")

	res = ClassifyAndExtract(fixtures.Samples()["pixel.png"])
	assert.Empty(t, res.Blocks)
}

func TestClassifyAndExtract_MalformedFallsBackToBasic(t *testing.T) {
	b := fixtures.MachO(true, true, nil)
	binary.LittleEndian.PutUint32(b[16:], 0) // ncmds

	res := ClassifyAndExtract(b)
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, symbols.ErrMalformedHeader))
	assert.True(t, res.Malformed())
	assert.Equal(t, format.MachO, res.Format)
	assert.Contains(t, res.Entries, "File Type: 64-bit Mach-O (reversed)")
	assert.Contains(t, res.Entries, "First Bytes: 0xCFFAEDFE")
}

func TestClassifyAndExtract_Empty(t *testing.T) {
	res := ClassifyAndExtract(nil)
	assert.Equal(t, format.Unknown, res.Format)
	assert.NoError(t, res.Err)
	assert.False(t, res.Malformed())
	assert.Equal(t, []string{
		"File Size: 0 Bytes",
		"File Type: Unknown Format",
		"First Bytes: 0x00000000",
	}, res.Entries)
}

func TestAnalyzer_RecoversExtractorPanic(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(ExtractorFunc{Tag: format.PNG, Fn: func([]byte) (Extraction, error) {
		panic("boom")
	}}))

	res := New(r, nil).Analyze(fixtures.PNG(1, 1, 8, 0, 0))
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, ErrExtractorPanic)
	assert.Contains(t, res.Err.Error(), "boom")
	assert.Equal(t, format.PNG, res.Format)
	assert.Contains(t, res.Entries, "File Type: PNG Image")
}

func TestAnalyzer_SortsAndDeduplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(ExtractorFunc{Tag: format.GIF, Fn: func([]byte) (Extraction, error) {
		return Extraction{Entries: []string{"b", "a", "b", "c", "a"}}, nil
	}}))

	res := New(r, nil).Analyze(fixtures.GIF(1, 1, 0, 0))
	assert.Equal(t, []string{"a", "b", "c"}, res.Entries)
}

func TestAnalyzer_UnregisteredFormatGetsBasic(t *testing.T) {
	res := New(NewRegistry(), nil).Analyze(fixtures.PNG(1, 1, 8, 0, 0))
	assert.NoError(t, res.Err)
	assert.Equal(t, format.PNG, res.Format)
	assert.Contains(t, res.Entries, "File Type: PNG Image")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	e := ExtractorFunc{Tag: format.PDF, Fn: func([]byte) (Extraction, error) { return Extraction{}, nil }}
	require.NoError(t, r.Register(e))
	assert.Error(t, r.Register(e))

	_, ok := r.Get(format.PDF)
	assert.True(t, ok)
	_, ok = r.Get(format.ZIP)
	assert.False(t, ok)

	assert.Equal(t, []format.Tag{
		format.ELF, format.GIF, format.JPEG, format.MachO,
		format.PDF, format.PE, format.PNG, format.ZIP,
	}, DefaultRegistry().Formats())
}

func TestClassifyAndExtract_DamagedSamples(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for name, sample := range fixtures.Samples() {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				c := append([]byte(nil), sample[:r.Intn(len(sample)+1)]...)
				flips := r.Intn(4)
				for j := 0; j < flips && len(c) > 0; j++ {
					c[r.Intn(len(c))] = byte(r.Intn(256))
				}
				first := ClassifyAndExtract(c)
				second := ClassifyAndExtract(c)
				require.NotErrorIs(t, first.Err, ErrExtractorPanic)
				assert.Equal(t, first.Entries, second.Entries)
				assert.True(t, sort.StringsAreSorted(first.Entries))
			}
		})
	}
}

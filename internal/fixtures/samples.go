package fixtures

import (
	"debug/elf"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Samples returns one small file per supported format plus an unrecognized
// text file, keyed by file name.
func Samples() map[string][]byte {
	macho64 := MachO(true, true, []MachOSymbol{
		{Name: "_main", Type: 0x0F, Sect: 1},
		{Name: "_printf", Type: 0x01},
		{Name: "_helper", Type: 0x0E, Sect: 1},
	})
	return map[string][]byte{
		"hello.macho":     macho64,
		"hello.universal": Universal(macho64),
		"hello.dll":       PE(false, []string{"DllMain", "Add", "Subtract"}),
		"hello64.dll":     PE(true, []string{"DllMain"}),
		"hello.elf": ELF(true, true, []ELFSymbol{
			{Name: "main", Bind: elf.STB_GLOBAL, Type: elf.STT_FUNC},
			{Name: "counter", Bind: elf.STB_LOCAL, Type: elf.STT_OBJECT},
			{Name: "hook", Bind: elf.STB_WEAK, Type: elf.STT_FUNC},
		}),
		"pixel.png":  PNG(640, 480, 8, 6, 0),
		"photo.jpg":  JPEG(1920, 1080, 3),
		"anim.gif":   GIF(320, 200, 0xF7, 0),
		"report.pdf": PDF("1.7", map[string]string{"Title": "Quarterly Report", "Author": "hexdance", "CreationDate": "D:20240102030405+00'00'"}, 3),
		"bundle.zip": ZIP([]ZipEntry{
			{Name: "docs/"},
			{Name: "docs/readme.txt", Data: []byte("hello from hexdance\n")},
			{Name: "docs/guide/intro.md", Data: bytes1k(), Deflate: true},
			{Name: "LICENSE", Data: []byte("MIT\n")},
		}),
		"notes.txt": []byte("plain text is not a recognized format\n"),
	}
}

// WriteSamples writes Samples into dir, creating it if needed, and returns
// the written paths in name order.
func WriteSamples(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", dir)
	}

	samples := Samples()
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, samples[name], 0o644); err != nil {
			return paths, errors.Wrapf(err, "failed to write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func bytes1k() []byte {
	b := make([]byte, 1024)
	for i := range b {
		b[i] = byte('a' + i%26)
	}
	return b
}

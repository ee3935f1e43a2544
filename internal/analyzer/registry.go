package analyzer

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"

	"github.com/hexdance/hexdance/internal/format"
	"github.com/hexdance/hexdance/internal/metadata"
	"github.com/hexdance/hexdance/internal/symbols"
)

// Extraction is what an extractor produced for one buffer.
type Extraction struct {
	// Entries are symbol records or "Label: value" metadata fields.
	Entries []string
	// Blocks are preformatted multi-line renderings, such as an archive tree.
	Blocks []string
	// Descriptions maps well-known symbol entries to what they do.
	Descriptions map[string]string
}

// Extractor reads format-specific records from a buffer already classified
// as its format.
type Extractor interface {
	// Format returns the tag this extractor handles.
	Format() format.Tag

	// Extract runs to completion over b. Only unrecoverable header damage
	// is reported as an error.
	Extract(b []byte) (Extraction, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc struct {
	Tag format.Tag
	Fn  func(b []byte) (Extraction, error)
}

// Format implements Extractor.
func (f ExtractorFunc) Format() format.Tag { return f.Tag }

// Extract implements Extractor.
func (f ExtractorFunc) Extract(b []byte) (Extraction, error) { return f.Fn(b) }

// Registry maps formats to their extractor.
type Registry struct {
	extractors map[format.Tag]Extractor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[format.Tag]Extractor),
	}
}

// Register adds an extractor. A format can only be registered once.
func (r *Registry) Register(e Extractor) error {
	if _, exists := r.extractors[e.Format()]; exists {
		return fmt.Errorf("extractor for %s already registered", e.Format())
	}
	r.extractors[e.Format()] = e
	return nil
}

// Get retrieves the extractor for a format
func (r *Registry) Get(tag format.Tag) (Extractor, bool) {
	e, exists := r.extractors[tag]
	return e, exists
}

// Formats returns the registered formats sorted by name.
func (r *Registry) Formats() []format.Tag {
	tags := maps.Keys(r.extractors)
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func symbolExtractor(tag format.Tag, extract func([]byte) ([]string, error)) Extractor {
	return ExtractorFunc{Tag: tag, Fn: func(b []byte) (Extraction, error) {
		entries, err := extract(b)
		if err != nil {
			return Extraction{}, err
		}
		return Extraction{Entries: entries, Descriptions: describeSymbols(entries)}, nil
	}}
}

// describeSymbols returns descriptions for the entries that name a known
// symbol, or nil when none do.
func describeSymbols(entries []string) map[string]string {
	var out map[string]string
	for _, e := range entries {
		d, ok := symbols.DescribeEntry(e)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[e] = d
	}
	return out
}

func fieldExtractor(tag format.Tag, read func([]byte) []metadata.Field) Extractor {
	return ExtractorFunc{Tag: tag, Fn: func(b []byte) (Extraction, error) {
		return Extraction{Entries: metadata.Strings(read(b))}, nil
	}}
}

func zipExtractor(b []byte) (Extraction, error) {
	fields, tree := metadata.ZIP(b)
	return Extraction{Entries: metadata.Strings(fields), Blocks: []string{tree}}, nil
}

// DefaultRegistry returns a registry holding the extractor for every
// format Detect can report.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, e := range []Extractor{
		symbolExtractor(format.MachO, symbols.ExtractMachO),
		symbolExtractor(format.PE, symbols.ExtractPE),
		symbolExtractor(format.ELF, symbols.ExtractELF),
		fieldExtractor(format.PNG, metadata.PNG),
		fieldExtractor(format.JPEG, metadata.JPEG),
		fieldExtractor(format.GIF, metadata.GIF),
		fieldExtractor(format.PDF, metadata.PDF),
		ExtractorFunc{Tag: format.ZIP, Fn: zipExtractor},
	} {
		// formats are distinct, so Register cannot fail here
		_ = r.Register(e)
	}
	return r
}

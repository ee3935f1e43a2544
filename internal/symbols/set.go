// Package symbols extracts symbol names from Mach-O, PE and ELF images by
// walking their on-disk structures directly over a bounds-checked view.
package symbols

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Kind classifies a symbol record. The value is the one-letter code shown
// after the name.
type Kind string

const (
	// Mach-O
	KindDefined   Kind = "T"
	KindUndefined Kind = "U"

	// ELF
	KindLocal  Kind = "L"
	KindGlobal Kind = "G"
	KindWeak   Kind = "W"
	KindOther  Kind = "U"

	// PE
	KindExported Kind = "E"
)

var (
	// ErrMalformedHeader is returned when the file header itself cannot be
	// read or carries impossible values, so no structure can be walked.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrMalformedArchive is returned when a fat/universal header points
	// outside the buffer before any architecture header could be read.
	ErrMalformedArchive = errors.New("malformed archive")
)

// Record is a single extracted symbol.
type Record struct {
	Name string
	Kind Kind
}

// String renders the record as "name (K)".
func (r Record) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.Kind)
}

// Set accumulates records, deduplicated by their rendered form.
type Set struct {
	seen map[string]struct{}
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add inserts a record. Records with an empty name are ignored.
func (s *Set) Add(name string, kind Kind) {
	if name == "" {
		return
	}
	s.seen[Record{Name: name, Kind: kind}.String()] = struct{}{}
}

// Len returns the number of distinct records.
func (s *Set) Len() int {
	return len(s.seen)
}

// Sorted returns the rendered records in ascending order.
func (s *Set) Sorted() []string {
	out := make([]string, 0, len(s.seen))
	for k := range s.seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

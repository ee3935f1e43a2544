// Package analyzer classifies buffers and runs the matching extractor, for a
// single buffer or for a batch of files.
package analyzer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hexdance/hexdance/internal/format"
	"github.com/hexdance/hexdance/internal/metadata"
	"github.com/hexdance/hexdance/internal/utils"
)

// ErrExtractorPanic marks a result whose extractor panicked.
var ErrExtractorPanic = errors.New("extractor panicked")

// Result is the outcome of classifying and extracting one buffer.
type Result struct {
	Format      format.Tag `json:"format"`
	Description string     `json:"description"`
	// Entries are sorted and unique.
	Entries []string `json:"entries"`
	Blocks  []string `json:"blocks,omitempty"`
	// Descriptions is keyed by entry and covers only well-known symbols.
	Descriptions map[string]string `json:"descriptions,omitempty"`
	// Err is set when a recognized format could not be read. Entries then
	// hold the basic metadata of the buffer.
	Err error `json:"-"`
}

// Malformed reports whether the buffer was recognized but its extractor
// failed.
func (r Result) Malformed() bool {
	return r.Err != nil && r.Format != format.Unknown
}

// Analyzer runs extractors from a registry.
type Analyzer struct {
	registry *Registry
	logger   *utils.Logger
}

// New creates an analyzer. A nil registry means DefaultRegistry and a nil
// logger discards output.
func New(registry *Registry, logger *utils.Logger) *Analyzer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Analyzer{registry: registry, logger: logger}
}

// Registry returns the registry the analyzer dispatches to.
func (a *Analyzer) Registry() *Registry {
	return a.registry
}

// Analyze detects the format of b and extracts its records. It never
// fails; problems are carried in Result.Err.
func (a *Analyzer) Analyze(b []byte) Result {
	tag, prelude := format.Detect(b)
	res := Result{
		Format:      tag,
		Description: format.Describe(tag, prelude.Magic),
	}
	log := a.logger.WithComponent(utils.ComponentAnalyzer).WithField("format", tag)

	extractor, ok := a.registry.Get(tag)
	if !ok {
		res.Entries = sortedUnique(metadata.Strings(metadata.Basic(b, tag)))
		log.Debugf("No extractor, %d bytes reported as basic metadata", len(b))
		return res
	}

	ext, err := runExtractor(extractor, b)
	if err != nil {
		res.Err = err
		res.Entries = sortedUnique(metadata.Strings(metadata.Basic(b, tag)))
		log.WithError(err).Debug("Extraction failed")
		return res
	}

	res.Entries = sortedUnique(ext.Entries)
	res.Blocks = ext.Blocks
	res.Descriptions = ext.Descriptions
	log.Debugf("Extracted %d entries", len(res.Entries))
	return res
}

// runExtractor converts a panic in e into an error.
func runExtractor(e Extractor, b []byte) (ext Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext = Extraction{}
			err = fmt.Errorf("%w: %s: %v", ErrExtractorPanic, e.Format(), r)
		}
	}()
	return e.Extract(b)
}

func sortedUnique(entries []string) []string {
	out := slices.Clone(entries)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

var defaultAnalyzer = New(nil, nil)

// ClassifyAndExtract classifies b and returns its sorted, unique records
// using the default registry.
func ClassifyAndExtract(b []byte) Result {
	return defaultAnalyzer.Analyze(b)
}

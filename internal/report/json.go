package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/hexdance/hexdance/internal/analyzer"
)

// jsonReport is the JSON serialization format for a report.
type jsonReport struct {
	Summary analyzer.Summary `json:"summary"`
	Files   []jsonFile       `json:"files"`
}

type jsonFile struct {
	Path        string     `json:"path"`
	Name        string     `json:"name,omitempty"`
	Size        int64      `json:"size"`
	Modified    *time.Time `json:"modified,omitempty"`
	Format      string     `json:"format,omitempty"`
	Description string     `json:"description,omitempty"`
	Entries     []string   `json:"entries"`
	// Descriptions is keyed by entry.
	Descriptions map[string]string `json:"descriptions,omitempty"`
	Blocks       []string          `json:"blocks,omitempty"`
	DurationMS   float64           `json:"duration_ms"`
	Error        string            `json:"error,omitempty"`
}

// JSON writes the report as one indented JSON document.
func JSON(w io.Writer, report *analyzer.Report) error {
	out := jsonReport{
		Summary: report.Summary,
		Files:   make([]jsonFile, 0, len(report.Results)),
	}
	for _, fr := range report.Results {
		jf := jsonFile{
			Path:       fr.Path,
			Name:       fr.Name,
			Size:       fr.Size,
			Entries:    []string{},
			DurationMS: float64(fr.Duration.Microseconds()) / 1000,
		}
		if !fr.ModTime.IsZero() {
			modified := fr.ModTime
			jf.Modified = &modified
		}
		if fr.Err != nil {
			jf.Error = fr.Err.Error()
		} else {
			jf.Format = string(fr.Result.Format)
			jf.Description = fr.Result.Description
			if fr.Result.Entries != nil {
				jf.Entries = fr.Result.Entries
			}
			jf.Descriptions = fr.Result.Descriptions
			jf.Blocks = fr.Result.Blocks
			if fr.Result.Err != nil {
				jf.Error = fr.Result.Err.Error()
			}
		}
		out.Files = append(out.Files, jf)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

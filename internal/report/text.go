package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hexdance/hexdance/internal/analyzer"
	"github.com/hexdance/hexdance/internal/metadata"
)

// Text writes a human-readable report: one section per file followed by
// the summary.
func Text(w io.Writer, report *analyzer.Report, styles Styles) error {
	bw := bufio.NewWriter(w)

	for i, fr := range report.Results {
		if i > 0 {
			bw.WriteString("\n")
		}
		writeFile(bw, fr, styles)
	}

	if len(report.Results) > 0 {
		bw.WriteString("\n")
	}
	s := report.Summary
	line := fmt.Sprintf("%d files: %d recognized, %d unknown, %d malformed, %d errors",
		s.Total, s.Recognized, s.Unknown, s.Malformed, s.Errors)
	bw.WriteString(styles.Summary.Render(line))
	bw.WriteString("\n")

	return bw.Flush()
}

func writeFile(bw *bufio.Writer, fr analyzer.FileResult, styles Styles) {
	bw.WriteString(styles.Path.Render("==> " + fr.Path))
	bw.WriteString("\n")

	if fr.Err != nil {
		bw.WriteString(styles.Error.Render("error: " + fr.Err.Error()))
		bw.WriteString("\n")
		return
	}

	res := fr.Result
	header := fmt.Sprintf("%s (%s, %s)", res.Format, res.Description, metadata.FormatBytes(fr.Size))
	bw.WriteString(styles.Format.Render(header))
	bw.WriteString("\n")

	if fr.Name != "" {
		bw.WriteString(styles.Note.Render("File Name: " + fr.Name))
		bw.WriteString("\n")
	}
	if !fr.ModTime.IsZero() {
		bw.WriteString(styles.Note.Render("Last Modified: " + fr.ModTime.Format(time.DateTime)))
		bw.WriteString("\n")
	}
	if res.Err != nil {
		bw.WriteString(styles.Error.Render("malformed: " + res.Err.Error()))
		bw.WriteString("\n")
	}
	for _, e := range res.Entries {
		bw.WriteString("  ")
		bw.WriteString(styles.Entry.Render(e))
		bw.WriteString("\n")
		if d, ok := res.Descriptions[e]; ok {
			bw.WriteString("      ")
			bw.WriteString(styles.Note.Render(d))
			bw.WriteString("\n")
		}
	}
	for _, b := range res.Blocks {
		if b == "" {
			continue
		}
		for _, line := range strings.Split(b, "\n") {
			bw.WriteString("  ")
			bw.WriteString(styles.Block.Render(line))
			bw.WriteString("\n")
		}
	}
}

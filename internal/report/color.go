// Package report renders batch analysis reports as styled text or JSON.
package report

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles holds the lipgloss styles for text reports.
type Styles struct {
	Path    lipgloss.Style
	Format  lipgloss.Style
	Entry   lipgloss.Style
	Note    lipgloss.Style
	Block   lipgloss.Style
	Error   lipgloss.Style
	Summary lipgloss.Style
}

// NewStyles creates the default color styles.
func NewStyles() Styles {
	return Styles{
		Path:    lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true), // bold magenta
		Format:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),           // cyan
		Entry:   lipgloss.NewStyle(),
		Note:    lipgloss.NewStyle().Faint(true),
		Block:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")), // green
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Summary: lipgloss.NewStyle().Bold(true),
	}
}

// NoStyles returns styles with no coloring.
func NoStyles() Styles {
	return Styles{
		Path:    lipgloss.NewStyle(),
		Format:  lipgloss.NewStyle(),
		Entry:   lipgloss.NewStyle(),
		Note:    lipgloss.NewStyle(),
		Block:   lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Summary: lipgloss.NewStyle(),
	}
}

// UseColor resolves a color mode of auto, always or never against f.
// Auto colors only terminals.
func UseColor(f *os.File, mode string) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// StylesFor returns NewStyles when color is true and NoStyles otherwise.
func StylesFor(color bool) Styles {
	if color {
		return NewStyles()
	}
	return NoStyles()
}

package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette. Use these instead of inline lipgloss.Color literals.
var (
	// ColorCyan is used for identifiable nouns: chunk names, file paths.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for the "written" file status.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for the "changed" fingerprint status.
	ColorYellow = lipgloss.Color("220")

	// ColorRed is used for the "removed" status.
	ColorRed = lipgloss.Color("196")

	// ColorBoldRed is used for failures (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark.
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")

	// ColorBlue is used for table headers.
	ColorBlue = lipgloss.Color("12")
)

// Semantic styles.
var (
	// StyleNoun styles identifiable nouns (chunk names, paths).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs.
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (scope prefixes, separators).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)

	// StyleAdded, StyleRemoved and StyleChanged style diff sections.
	StyleAdded   = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleRemoved = lipgloss.NewStyle().Foreground(ColorRed)
	StyleChanged = lipgloss.NewStyle().Foreground(ColorYellow)
)

// File status constants.
const (
	StatusWritten   = "written"
	StatusUnchanged = "unchanged"
	StatusPlanned   = "planned"
	StatusCopied    = "copied"
	StatusFailed    = "failed"
)

// StatusStyle returns the style for a file status. Unknown statuses are
// unstyled.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusWritten, StatusCopied:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusPlanned:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusUnchanged:
		return lipgloss.NewStyle().Faint(true)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// minPathColumnWidth keeps status words aligned.
const minPathColumnWidth = 52

// FormatFileLine renders an output file with a right-aligned status.
//
// Format: f:<path> (<size>)  <status>
func FormatFileLine(path, size, status string) string {
	label := path
	if size != "" {
		label = fmt.Sprintf("%s (%s)", path, size)
	}

	padding := minPathColumnWidth - len(label)
	if padding < 2 {
		padding = 2
	}

	return StyleDim.Render("f:") + StyleNoun.Render(path) +
		strings.TrimPrefix(label, path) +
		strings.Repeat(" ", padding) + StatusStyle(status).Render(status)
}

// FormatCheckmark renders a green checkmark with a message.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}

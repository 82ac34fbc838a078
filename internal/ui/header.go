package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HeaderInfo contains information to display in the header.
type HeaderInfo struct {
	Version string // e.g. "v0.3.0"
	Tagline string // optional
}

// HeaderWidth is the default width of the header divider
const HeaderWidth = 50

// RenderHeader renders the branded "provmon vX" header with a divider.
func RenderHeader(info HeaderInfo) string {
	titleStyle := lipgloss.NewStyle().Foreground(ColorNeonPink).Bold(true)
	versionStyle := lipgloss.NewStyle().Foreground(ColorNeonCyan)
	taglineStyle := lipgloss.NewStyle().Foreground(ColorSecondary)
	dividerStyle := lipgloss.NewStyle().Foreground(ColorGlassBorder)

	var out strings.Builder
	out.WriteString(titleStyle.Render("provmon"))
	if info.Version != "" {
		out.WriteString(" ")
		out.WriteString(versionStyle.Render(info.Version))
	}
	out.WriteString("\n")

	if info.Tagline != "" {
		out.WriteString(taglineStyle.Render(info.Tagline))
		out.WriteString("\n")
	}

	out.WriteString(dividerStyle.Render(strings.Repeat("━", HeaderWidth)))
	out.WriteString("\n")
	return out.String()
}

package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors for status indication, as ANSI codes for broad
// terminal compatibility.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// Brand accents used by headers and spinners.
const (
	ColorNeonPink    lipgloss.Color = "#FF2E97"
	ColorNeonPurple  lipgloss.Color = "#BF40FF"
	ColorNeonCyan    lipgloss.Color = "#00FFFF"
	ColorNeonGreen   lipgloss.Color = "#39FF14"
	ColorGlassBorder lipgloss.Color = "#2A2A4A"
)

// GradientColors is the pink to green cycle used by animated indicators.
var GradientColors = []lipgloss.Color{
	ColorNeonPink,
	ColorNeonPurple,
	ColorNeonCyan,
	ColorNeonGreen,
}

// Health thresholds for a machine's working percentage.
const (
	HealthyThreshold  = 80.0
	DegradedThreshold = 50.0
)

// HealthColor maps a working percentage to a color. Unlike load metrics,
// higher is better: green from 80%, yellow from 50%, red below.
func HealthColor(percent float64) lipgloss.Color {
	switch {
	case percent >= HealthyThreshold:
		return ColorSuccess
	case percent >= DegradedThreshold:
		return ColorWarning
	default:
		return ColorError
	}
}

// HealthStyle returns a style colored by HealthColor.
func HealthStyle(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(HealthColor(percent))
}

// DisableColors switches lipgloss to plain ASCII output, e.g. for --json
// or a non-terminal stdout.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

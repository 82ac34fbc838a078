package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/provmon/internal/status"
)

// Unicode symbols for status indicators.
const (
	SymbolSuccess = "✓"
	SymbolFail    = "✗"
	SymbolWorking = "●" // Provider is processing work
	SymbolWaiting = "◐" // Provider is idle, waiting for work
	SymbolUnknown = "○" // Provider state not reported
	SymbolYes     = "✓"
	SymbolNo      = "·"
)

// StatusSymbol returns the glyph for a provider status.
func StatusSymbol(s status.ProviderStatus) string {
	switch s {
	case status.StatusWorking:
		return SymbolWorking
	case status.StatusWaiting:
		return SymbolWaiting
	default:
		return SymbolUnknown
	}
}

// StatusColor returns the color for a provider status.
func StatusColor(s status.ProviderStatus) lipgloss.Color {
	switch s {
	case status.StatusWorking:
		return ColorSuccess
	case status.StatusWaiting:
		return ColorWarning
	default:
		return ColorMuted
	}
}

// RenderStatus renders "● working" in the status color.
func RenderStatus(s status.ProviderStatus) string {
	return lipgloss.NewStyle().Foreground(StatusColor(s)).Render(StatusSymbol(s) + " " + string(s))
}

// Check renders a boolean flag as a check or a dot.
func Check(ok bool) string {
	if ok {
		return lipgloss.NewStyle().Foreground(ColorSuccess).Render(SymbolYes)
	}
	return lipgloss.NewStyle().Foreground(ColorMuted).Render(SymbolNo)
}

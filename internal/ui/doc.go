// Package ui provides terminal output helpers shared by provmon's
// commands and dashboard.
//
// # Components Overview
//
//	Spinner     - Animated indicator while a command waits on endpoints
//	Sparkline   - Mini graph of a machine's working percentage over time
//	Tables      - Bubbles tables with consistent styling for CLI output
//	Header      - Branded title line for version and list output
//
// # Color Scheme
//
// Semantic colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Working providers, healthy machines
//	ColorWarning   (yellow) - Waiting providers, degraded machines
//	ColorError     (red)    - Failures, machines below 50% working
//	ColorMuted     (gray)   - Secondary text, unknown status
//
// HealthColor maps a working percentage onto these. Use DisableColors()
// for plain output.
package ui

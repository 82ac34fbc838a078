package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableStyle provides consistent styling for tables across the CLI.
type TableStyle struct {
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Selected lipgloss.Style
	Border   lipgloss.Style
}

// DefaultTableStyle returns the default table styling.
func DefaultTableStyle() TableStyle {
	return TableStyle{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		Cell: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Selected: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Background(ColorMuted),
		Border: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// TableColumn defines a table column with name and width.
// A zero Width is sized to fit the widest cell.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a Bubbles table with default styling. Cells should be
// plain text; the table truncates by display width.
func NewTable(columns []TableColumn, rows []table.Row, focused bool) table.Model {
	columns = FitColumns(columns, rows)
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(focused),
		table.WithHeight(len(rows)+2), // header and its bottom border
	)

	base := DefaultTableStyle()
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.Inherit(base.Cell)
	s.Selected = s.Selected.
		Foreground(ColorPrimary).
		Background(ColorMuted).
		Bold(false)
	if !focused {
		s.Selected = s.Cell
	}

	t.SetStyles(s)
	return t
}

// FitColumns fills in zero widths from the header and cell contents.
func FitColumns(columns []TableColumn, rows []table.Row) []TableColumn {
	out := make([]TableColumn, len(columns))
	copy(out, columns)
	for i := range out {
		if out[i].Width > 0 {
			continue
		}
		w := lipgloss.Width(out[i].Title)
		for _, r := range rows {
			if i < len(r) && lipgloss.Width(r[i]) > w {
				w = lipgloss.Width(r[i])
			}
		}
		out[i].Width = w
	}
	return out
}

// RenderSimpleTable renders a non-interactive table string for CLI
// output. Returns "" when there are no rows.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	return NewTable(columns, tableRows, false).View()
}

// KeyValue renders an aligned "label  value" line for detail output.
func KeyValue(label, value string, labelWidth int) string {
	labelStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	return padRight(labelStyle.Render(label), labelWidth) + value
}

// padRight pads a string to the specified display width.
func padRight(s string, width int) string {
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	for i := 0; i < width-visibleLen; i++ {
		s += " "
	}
	return s
}

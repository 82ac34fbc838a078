package dashboard

import (
	"fmt"
	"strings"

	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/rileyhilliard/provmon/internal/status"
	"github.com/rileyhilliard/provmon/internal/table"
	"github.com/rileyhilliard/provmon/internal/ui"
)

// maxLocations is how many locations the overview line names.
const maxLocations = 3

// renderListView renders the fleet overview and machine table.
func (m Model) renderListView() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderOverview())
	b.WriteString("\n\n")

	if line := m.renderSearchLine(m.machines.View().Search); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}

	state := m.machines.View()
	if len(state.Items) == 0 {
		b.WriteString(m.renderEmpty(state.Search, "No machines configured"))
	} else {
		rows := make([]btable.Row, len(state.Items))
		for i, mc := range state.Items {
			rows[i] = MachineRow(mc)
		}
		b.WriteString(m.renderTable(columnTitles(m.machines.Columns(), state.Sort, m.focusCol), rows))
	}
	b.WriteString("\n")
	b.WriteString(renderPager(state.Page, state.TotalPages, state.FilteredCount, "machines"))

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the title bar with fleet totals.
func (m Model) renderHeader() string {
	overview := status.Overview(m.list)

	title := TitleStyle.Render("provmon")
	stats := LabelStyle.Render(fmt.Sprintf(" | %d machines | %d providers | %s working | updated %s",
		overview.TotalMachines,
		overview.TotalProviders,
		FormatPercent(overview.HealthPercent),
		m.updatedText(),
	))

	header := title + stats
	if m.loading {
		header += " " + m.spinner.View()
	}
	return HeaderStyle.Render(header)
}

func (m Model) updatedText() string {
	if m.lastUpdate.IsZero() {
		return "never"
	}
	return FormatAgo(m.lastUpdate, m.now())
}

// renderOverview renders fleet health, issue count and top locations.
func (m Model) renderOverview() string {
	overview := status.Overview(m.list)

	parts := []string{
		HealthBar(20, overview.HealthPercent) + " " +
			lipgloss.NewStyle().Foreground(HealthColor(overview.HealthPercent)).Render(FormatPercent(overview.HealthPercent)),
		fmt.Sprintf("%s %d  %s %d  %s %d",
			ui.StatusSymbol(status.StatusWorking), overview.Working,
			ui.StatusSymbol(status.StatusWaiting), overview.Waiting,
			ui.StatusSymbol(status.StatusUnknown), overview.Unknown,
		),
	}

	if n := len(overview.Issues); n > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d below %d%%", n, int(status.IssueThreshold))))
	}

	var locs []string
	for i, l := range overview.Locations {
		if i == maxLocations {
			break
		}
		locs = append(locs, fmt.Sprintf("%s %d", orDash(l.Location), l.Count))
	}
	if len(locs) > 0 {
		parts = append(parts, LabelStyle.Render(strings.Join(locs, " · ")))
	}

	return " " + strings.Join(parts, "   ")
}

// renderSearchLine shows the search box while editing, or the applied
// term once the box is closed.
func (m Model) renderSearchLine(term string) string {
	if m.searching {
		return " " + m.search.View()
	}
	if term == "" {
		return ""
	}
	return " " + SearchPromptStyle.Render("/ ") + ValueStyle.Render(term) + LabelStyle.Render("  (esc clears)")
}

func (m Model) renderEmpty(search, fallback string) string {
	if search != "" {
		return LabelStyle.Render(fmt.Sprintf(" No matches for %q", search))
	}
	if m.loading {
		return LabelStyle.Render(" Loading...")
	}
	return LabelStyle.Render(" " + fallback)
}

// renderTable draws one page of rows with the cursor on m.selected.
func (m Model) renderTable(columns []ui.TableColumn, rows []btable.Row) string {
	t := ui.NewTable(columns, rows, true)
	t.SetCursor(m.selected)
	return t.View()
}

// columnTitles builds header titles with sort arrows; the focused
// column is bracketed.
func columnTitles[T any](columns []table.Column[T], sort table.Sort, focus int) []ui.TableColumn {
	out := make([]ui.TableColumn, len(columns))
	for i, c := range columns {
		title := c.Title
		if ind := table.SortIndicator(sort, c.Key); ind != "" {
			title += " " + ind
		}
		if i == focus {
			title = "[" + title + "]"
		}
		out[i] = ui.TableColumn{Title: title}
	}
	return out
}

// renderPager renders the page window and the filtered row count.
func renderPager(page, total, count int, noun string) string {
	if total == 0 {
		return LabelStyle.Render(fmt.Sprintf(" 0 %s", noun))
	}
	return LabelStyle.Render(fmt.Sprintf(" Page %s · %d %s", table.FormatPageWindow(page, total), count, noun))
}

// renderStatusLine shows the last error and the last failed query seen
// by the cache.
func (m Model) renderStatusLine() string {
	var b strings.Builder
	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(" " + ui.SymbolFail + " " + errors.Summary(m.lastErr)))
	}
	if event, total := m.failures.snapshot(); total > 0 && event.Err != nil {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render(fmt.Sprintf(" last failure %s: %s (%d in a row)",
			event.Key, errors.Summary(event.Err), event.FailureCount)))
	}
	return b.String()
}

// renderFooter renders the keyboard hints for the current screen.
func (m Model) renderFooter() string {
	var hints []string
	switch m.viewMode {
	case ViewProvider:
		hints = []string{"q quit", "r refresh", "↑↓ scroll", "esc back", "? help"}
	case ViewMachine:
		hints = []string{"q quit", "r refresh", "/ search", "s sort", "[ ] page", "enter open", "esc back", "? help"}
	default:
		hints = []string{"q quit", "r refresh", "/ search", "s sort", "[ ] page", "enter open", "? help"}
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}

package dashboard

import (
	"fmt"
	"strings"

	btable "github.com/charmbracelet/bubbles/table"
	"github.com/rileyhilliard/provmon/internal/status"
	"github.com/rileyhilliard/provmon/internal/ui"
)

const (
	sparklineWidth = 30
	labelWidth     = 18
)

// renderMachineView renders one machine's summary and provider table.
func (m Model) renderMachineView() string {
	var b strings.Builder

	b.WriteString(m.renderDetailHeader())
	b.WriteString("\n\n")

	if m.detail == nil {
		if m.lastErr != nil {
			b.WriteString(m.renderStatusLine())
		} else {
			b.WriteString(LabelStyle.Render(" Loading machine..."))
		}
		b.WriteString("\n\n")
		b.WriteString(m.renderFooter())
		return b.String()
	}

	b.WriteString(SectionStyle.Render(m.renderMachineSummary(m.detail.Machine)))
	b.WriteString("\n")

	state := m.providers.View()
	if line := m.renderSearchLine(state.Search); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(state.Items) == 0 {
		b.WriteString(m.renderEmpty(state.Search, "No providers reported"))
	} else {
		now := m.now()
		rows := make([]btable.Row, len(state.Items))
		for i, p := range state.Items {
			rows[i] = ProviderRow(p, now)
		}
		b.WriteString(m.renderTable(columnTitles(m.providers.Columns(), state.Sort, m.focusCol), rows))
	}
	b.WriteString("\n")
	b.WriteString(renderPager(state.Page, state.TotalPages, state.FilteredCount, "providers"))

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderDetailHeader renders the breadcrumb for detail screens.
func (m Model) renderDetailHeader() string {
	crumb := m.machineID
	if m.detail != nil {
		crumb = m.detail.DisplayName
	}
	if m.viewMode == ViewProvider {
		crumb += " / " + m.providerID
	}

	header := TitleStyle.Render("provmon") + LabelStyle.Render(" ← "+crumb+" | updated "+m.updatedText())
	if m.loading {
		header += " " + m.spinner.View()
	}
	return HeaderStyle.Render(header)
}

func (m Model) renderMachineSummary(mc status.Machine) string {
	s := mc.Summary
	lines := []string{
		ui.KeyValue("Machine", ValueStyle.Render(mc.DisplayName+" ("+mc.MachineID+")"), labelWidth),
		ui.KeyValue("Location", ValueStyle.Render(orDash(mc.Location)), labelWidth),
		ui.KeyValue("Host", ValueStyle.Render(orDash(mc.Hostname)), labelWidth),
		ui.KeyValue("Working", HealthBar(20, s.WorkingPercent)+" "+ValueStyle.Render(FormatPercent(s.WorkingPercent)), labelWidth),
		ui.KeyValue("Providers", fmt.Sprintf("%s %d working  %s %d waiting  %s %d unknown  (%d total)",
			ui.StatusSymbol(status.StatusWorking), s.Working,
			ui.StatusSymbol(status.StatusWaiting), s.Waiting,
			ui.StatusSymbol(status.StatusUnknown), s.Unknown,
			s.Total), labelWidth),
		ui.KeyValue("Services", fmt.Sprintf("yagna %d/%d  provider %d/%d",
			s.YagnaRunning, s.Total, s.ProviderRunning, s.Total), labelWidth),
	}
	if trend := ui.RenderSparkline(m.history.Get(mc.MachineID, sparklineWidth), sparklineWidth); trend != "" {
		lines = append(lines, ui.KeyValue("Trend", trend, labelWidth))
	}
	return strings.Join(lines, "\n")
}

// renderProviderView renders the provider detail inside the viewport.
func (m Model) renderProviderView() string {
	var b strings.Builder

	b.WriteString(m.renderDetailHeader())
	b.WriteString("\n\n")

	if m.viewportReady {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.providerContent())
	}

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// providerContent builds the provider detail lines.
func (m Model) providerContent() string {
	p := m.provider
	if p == nil {
		return LabelStyle.Render(" Loading provider...")
	}

	lastSeen := "never"
	if !p.LastSeen.IsZero() {
		lastSeen = FormatAgo(p.LastSeen, m.now()) + "  " + LabelStyle.Render(p.LastSeen.Format("2006-01-02 15:04:05 MST"))
	}
	notes := "-"
	if p.Notes != nil && *p.Notes != "" {
		notes = *p.Notes
	}

	lines := []string{
		ui.KeyValue("ID", ValueStyle.Render(p.ID), labelWidth),
		ui.KeyValue("Name", ValueStyle.Render(p.Name), labelWidth),
		ui.KeyValue("Status", ui.RenderStatus(p.Status), labelWidth),
		ui.KeyValue("Yagna running", ui.Check(p.YagnaRunning), labelWidth),
		ui.KeyValue("Provider running", ui.Check(p.ProviderRunning), labelWidth),
		ui.KeyValue("Has work", ui.Check(p.HasWork), labelWidth),
		ui.KeyValue("Last seen", lastSeen, labelWidth),
		ui.KeyValue("Latency", ValueStyle.Render(FormatLatency(p.LatencyMs)), labelWidth),
		ui.KeyValue("Notes", ValueStyle.Render(notes), labelWidth),
	}
	if m.detail != nil {
		lines = append([]string{ui.KeyValue("Machine", ValueStyle.Render(m.detail.DisplayName), labelWidth)}, lines...)
	}
	return SectionStyle.Render(strings.Join(lines, "\n"))
}

// updateViewportContent refreshes the provider detail in the viewport.
func (m *Model) updateViewportContent() {
	if !m.viewportReady || m.viewMode != ViewProvider {
		return
	}
	m.viewport.SetContent(m.providerContent())
}

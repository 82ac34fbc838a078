package dashboard

import (
	"fmt"
	"math"
	"time"

	"github.com/rileyhilliard/provmon/internal/status"
	"github.com/rileyhilliard/provmon/internal/table"
)

// Column keys shared by the dashboard and the machines list command.
const (
	ColMachineID      = "machine_id"
	ColName           = "name"
	ColLocation       = "location"
	ColTotal          = "summary.total"
	ColWorking        = "summary.working"
	ColWaiting        = "summary.waiting"
	ColUnknown        = "summary.unknown"
	ColWorkingPercent = "summary.working_percent"

	ColProviderID      = "id"
	ColStatus          = "status"
	ColYagnaRunning    = "yagna_running"
	ColProviderRunning = "provider_running"
	ColWork            = "work"
	ColLastSeen        = "last_seen"
	ColLatency         = "latency_ms"
)

// MachineSearchKeys are the machine columns matched by a search term.
var MachineSearchKeys = []string{ColMachineID, ColName, ColLocation}

// ProviderSearchKeys are the provider columns matched by a search term.
var ProviderSearchKeys = []string{ColProviderID, ColName, ColStatus}

// MachineColumns are the columns of the machine list.
func MachineColumns() []table.Column[status.Machine] {
	return []table.Column[status.Machine]{
		{Key: ColMachineID, Title: "ID", Value: func(m status.Machine) table.Value { return table.String(m.MachineID) }},
		{Key: ColName, Title: "Name", Value: func(m status.Machine) table.Value { return table.String(m.DisplayName) }},
		{Key: ColLocation, Title: "Location", Value: func(m status.Machine) table.Value { return optionalString(m.Location) }},
		{Key: ColTotal, Title: "Providers", Value: func(m status.Machine) table.Value { return table.Int(m.Summary.Total) }},
		{Key: ColWorking, Title: "Working", Value: func(m status.Machine) table.Value { return table.Int(m.Summary.Working) }},
		{Key: ColWaiting, Title: "Waiting", Value: func(m status.Machine) table.Value { return table.Int(m.Summary.Waiting) }},
		{Key: ColUnknown, Title: "Unknown", Value: func(m status.Machine) table.Value { return table.Int(m.Summary.Unknown) }},
		{Key: ColWorkingPercent, Title: "Working %", Value: func(m status.Machine) table.Value { return table.Number(m.Summary.WorkingPercent) }},
	}
}

// ProviderColumns are the columns of a machine's provider list.
func ProviderColumns() []table.Column[status.Provider] {
	return []table.Column[status.Provider]{
		{Key: ColProviderID, Title: "ID", Value: func(p status.Provider) table.Value { return table.String(p.ID) }},
		{Key: ColName, Title: "Name", Value: func(p status.Provider) table.Value { return table.String(p.Name) }},
		{Key: ColStatus, Title: "Status", Value: func(p status.Provider) table.Value { return table.String(string(p.Status)) }},
		{Key: ColYagnaRunning, Title: "Yagna", Value: func(p status.Provider) table.Value { return flag(p.YagnaRunning) }},
		{Key: ColProviderRunning, Title: "Provider", Value: func(p status.Provider) table.Value { return flag(p.ProviderRunning) }},
		{Key: ColWork, Title: "Work", Value: func(p status.Provider) table.Value { return flag(p.HasWork) }},
		{Key: ColLastSeen, Title: "Last seen", Value: func(p status.Provider) table.Value {
			if p.LastSeen.IsZero() {
				return table.None()
			}
			return table.Number(float64(p.LastSeen.UnixMilli()))
		}},
		{Key: ColLatency, Title: "Latency", Value: func(p status.Provider) table.Value {
			if p.LatencyMs == nil {
				return table.None()
			}
			return table.Number(*p.LatencyMs)
		}},
	}
}

func optionalString(s string) table.Value {
	if s == "" {
		return table.None()
	}
	return table.String(s)
}

// flag sorts booleans as numbers so true groups after false ascending.
func flag(b bool) table.Value {
	if b {
		return table.Int(1)
	}
	return table.Int(0)
}

// MachineRow renders a machine as plain table cells.
func MachineRow(m status.Machine) []string {
	return []string{
		m.MachineID,
		m.DisplayName,
		orDash(m.Location),
		fmt.Sprint(m.Summary.Total),
		fmt.Sprint(m.Summary.Working),
		fmt.Sprint(m.Summary.Waiting),
		fmt.Sprint(m.Summary.Unknown),
		FormatPercent(m.Summary.WorkingPercent),
	}
}

// ProviderRow renders a provider as plain table cells.
func ProviderRow(p status.Provider, now time.Time) []string {
	return []string{
		p.ID,
		p.Name,
		string(p.Status),
		yesNo(p.YagnaRunning),
		yesNo(p.ProviderRunning),
		yesNo(p.HasWork),
		FormatAgo(p.LastSeen, now),
		FormatLatency(p.LatencyMs),
	}
}

// FormatPercent renders 33.3 as "33.3%" and 100 as "100%".
func FormatPercent(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("%.0f%%", p)
	}
	return fmt.Sprintf("%.1f%%", p)
}

// FormatLatency renders a latency in milliseconds, or "-" when unknown.
func FormatLatency(ms *float64) string {
	if ms == nil {
		return "-"
	}
	if *ms >= 1000 {
		return fmt.Sprintf("%.2fs", *ms/1000)
	}
	return fmt.Sprintf("%.0fms", *ms)
}

// FormatAgo renders t relative to now ("just now", "42s ago", "3m ago",
// "5h ago", "2d ago"), or "never" for the zero time.
func FormatAgo(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

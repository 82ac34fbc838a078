// Package status turns raw endpoint records into normalized providers and
// reduces provider lists into per-machine and fleet-wide summaries.
//
// Everything here is pure: no I/O, no shared state.
package status

import (
	"math"
	"sort"
	"time"

	"github.com/rileyhilliard/provmon/internal/config"
)

// DefaultProviderName is used when a record has no provider service name.
const DefaultProviderName = "provider"

// IssueThreshold is the working percentage below which a machine is
// listed as having issues in the fleet overview.
const IssueThreshold = 80.0

// maxIssues caps the overview's issue list.
const maxIssues = 10

// TransformProvider maps a wire record onto a Provider. It never fails:
// an unparseable last_seen becomes the zero time.
func TransformProvider(raw RawProvider) Provider {
	name := raw.ProviderService
	if name == "" {
		name = DefaultProviderName
	}

	return Provider{
		ID:              raw.ID,
		Name:            name,
		Status:          ParseStatus(string(raw.Status)),
		YagnaRunning:    raw.YagnaRunning,
		ProviderRunning: raw.ProviderRunning,
		HasWork:         raw.HasWork(),
		LastSeen:        parseTimestamp(raw.LastSeen),
		LatencyMs:       raw.LatencyMs,
		Notes:           raw.Notes,
	}
}

// TransformProviders applies TransformProvider to every record.
func TransformProviders(raws []RawProvider) []Provider {
	out := make([]Provider, len(raws))
	for i, raw := range raws {
		out[i] = TransformProvider(raw)
	}
	return out
}

// Summarize counts providers per status and running flag.
func Summarize(providers []Provider) Summary {
	var s Summary
	for _, p := range providers {
		switch p.Status {
		case StatusWorking:
			s.Working++
		case StatusWaiting:
			s.Waiting++
		default:
			s.Unknown++
		}
		if p.YagnaRunning {
			s.YagnaRunning++
		}
		if p.ProviderRunning {
			s.ProviderRunning++
		}
	}
	s.Total = len(providers)
	s.WorkingPercent = Percent(s.Working, s.Total)
	return s
}

// Percent returns part/total as a percentage with one decimal place,
// rounded half away from zero. Zero when total is zero.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// NewMachine builds a Machine for cfg from its providers.
func NewMachine(cfg config.MachineConfig, providers []Provider, now time.Time) Machine {
	return Machine{
		MachineID:   cfg.ID,
		Hostname:    cfg.Name,
		DisplayName: cfg.Name,
		Location:    cfg.Location,
		ReportedAt:  now,
		Summary:     Summarize(providers),
	}
}

// NewMachineWithProviders is NewMachine that keeps the provider list.
func NewMachineWithProviders(cfg config.MachineConfig, providers []Provider, now time.Time) MachineWithProviders {
	return MachineWithProviders{
		Machine:   NewMachine(cfg, providers, now),
		Providers: providers,
	}
}

// EmptyMachine is the placeholder for a machine whose fetch failed.
func EmptyMachine(cfg config.MachineConfig, now time.Time) Machine {
	return NewMachine(cfg, nil, now)
}

// FindProvider returns the provider with the given id.
func FindProvider(providers []Provider, id string) (Provider, bool) {
	for _, p := range providers {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// LocationCount is the number of machines at one location.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// FleetOverview aggregates summaries across all machines.
type FleetOverview struct {
	TotalMachines  int             `json:"total_machines"`
	TotalProviders int             `json:"total_providers"`
	Working        int             `json:"working"`
	Waiting        int             `json:"waiting"`
	Unknown        int             `json:"unknown"`
	HealthPercent  float64         `json:"health_percent"`
	Issues         []Machine       `json:"issues"`
	Locations      []LocationCount `json:"locations"`
}

// Overview computes fleet totals, the machines below IssueThreshold
// (worst first, at most ten) and machine counts per location.
func Overview(machines []Machine) FleetOverview {
	o := FleetOverview{
		TotalMachines: len(machines),
		Issues:        []Machine{},
		Locations:     []LocationCount{},
	}

	counts := make(map[string]int)
	for _, m := range machines {
		o.TotalProviders += m.Summary.Total
		o.Working += m.Summary.Working
		o.Waiting += m.Summary.Waiting
		o.Unknown += m.Summary.Unknown
		counts[m.Location]++
		if m.Summary.WorkingPercent < IssueThreshold {
			o.Issues = append(o.Issues, m)
		}
	}
	o.HealthPercent = Percent(o.Working, o.TotalProviders)

	sort.SliceStable(o.Issues, func(i, j int) bool {
		return o.Issues[i].Summary.WorkingPercent < o.Issues[j].Summary.WorkingPercent
	})
	if len(o.Issues) > maxIssues {
		o.Issues = o.Issues[:maxIssues]
	}

	for loc, n := range counts {
		o.Locations = append(o.Locations, LocationCount{Location: loc, Count: n})
	}
	sort.Slice(o.Locations, func(i, j int) bool {
		if o.Locations[i].Count != o.Locations[j].Count {
			return o.Locations[i].Count > o.Locations[j].Count
		}
		return o.Locations[i].Location < o.Locations[j].Location
	})

	return o
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

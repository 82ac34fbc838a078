package status

import (
	"bytes"
	"encoding/json"
	"time"
)

// ProviderStatus is the activity state reported for a provider.
type ProviderStatus string

const (
	StatusUnknown ProviderStatus = "unknown"
	StatusWaiting ProviderStatus = "waiting"
	StatusWorking ProviderStatus = "working"
)

// UnmarshalJSON accepts any string; values outside the enum decode as unknown.
func (s *ProviderStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// null or a non-string value: keep the record, treat as unknown
		*s = StatusUnknown
		return nil
	}
	*s = ParseStatus(raw)
	return nil
}

// ParseStatus maps a wire value onto the enum, defaulting to unknown.
func ParseStatus(s string) ProviderStatus {
	switch ProviderStatus(s) {
	case StatusWaiting:
		return StatusWaiting
	case StatusWorking:
		return StatusWorking
	default:
		return StatusUnknown
	}
}

// RawProvider is one record as returned by a machine's status endpoint.
type RawProvider struct {
	YagnaService    string          `json:"yagna_service"`
	YagnaPIDs       []int           `json:"yagna_pids"`
	YagnaRunning    bool            `json:"yagna_running"`
	ProviderService string          `json:"provider_service"`
	ProviderPIDs    []int           `json:"provider_pids"`
	ProviderRunning bool            `json:"provider_running"`
	ID              string          `json:"id"`
	Status          ProviderStatus  `json:"status"`
	LastSeen        string          `json:"last_seen"`
	LatencyMs       *float64        `json:"latency_ms"`
	Notes           *string         `json:"notes"`
	Work            json.RawMessage `json:"work,omitempty"`
}

// HasWork reports whether the opaque work payload is present.
// Absent, null, false, 0 and "" count as no work; anything else
// (including empty objects and arrays) counts as work.
func (r RawProvider) HasWork() bool {
	w := bytes.TrimSpace(r.Work)
	if len(w) == 0 {
		return false
	}
	switch string(w) {
	case "null", "false", "0", `""`:
		return false
	}
	var f float64
	if err := json.Unmarshal(w, &f); err == nil {
		return f != 0
	}
	return true
}

// Provider is the normalized view of a RawProvider.
type Provider struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Status          ProviderStatus `json:"status"`
	YagnaRunning    bool           `json:"yagna_running"`
	ProviderRunning bool           `json:"provider_running"`
	HasWork         bool           `json:"work"`
	LastSeen        time.Time      `json:"last_seen"`
	LatencyMs       *float64       `json:"latency_ms"`
	Notes           *string        `json:"notes"`
}

// Summary aggregates provider health for one machine.
type Summary struct {
	Working         int     `json:"working"`
	Waiting         int     `json:"waiting"`
	Unknown         int     `json:"unknown"`
	Total           int     `json:"total"`
	YagnaRunning    int     `json:"yagna_running"`
	ProviderRunning int     `json:"provider_running"`
	WorkingPercent  float64 `json:"working_percent"`
}

// Machine is one monitored host with its computed summary.
// ReportedAt is the local time the summary was computed.
type Machine struct {
	MachineID   string    `json:"machine_id"`
	Hostname    string    `json:"hostname"`
	DisplayName string    `json:"name"`
	Location    string    `json:"location"`
	ReportedAt  time.Time `json:"reported_at"`
	Summary     Summary   `json:"summary"`
}

// MachineWithProviders is a Machine plus the providers it was computed from.
type MachineWithProviders struct {
	Machine
	Providers []Provider `json:"providers"`
}

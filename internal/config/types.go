package config

import "time"

// CurrentConfigVersion is the schema version for the settings file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Defaults shared by the loader, the query layer and the dashboard.
const (
	DefaultStaleTime       = 30 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
	DefaultRefreshInterval = 30 * time.Second
	DefaultPageSize        = 20
)

// Config represents the .provmon.yaml settings file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// MachinesFile is where the machine list is persisted.
	// Supports ~ and ${HOME} expansion.
	MachinesFile string `yaml:"machines_file" mapstructure:"machines_file"`

	// StaleTime is how long fetched data is served without refetching.
	StaleTime time.Duration `yaml:"stale_time" mapstructure:"stale_time"`

	// RequestTimeout bounds a single call to a status endpoint.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`

	// RefreshInterval is how often the dashboard revalidates its data.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// PageSize is the number of rows per table page.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`
}

// MachineConfig describes one monitored machine and its status endpoint.
type MachineConfig struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Location    string `yaml:"location,omitempty" json:"location"`
	EndpointURL string `yaml:"api_url" json:"api_url"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:         CurrentConfigVersion,
		MachinesFile:    DefaultMachinesFile(),
		StaleTime:       DefaultStaleTime,
		RequestTimeout:  DefaultRequestTimeout,
		RefreshInterval: DefaultRefreshInterval,
		PageSize:        DefaultPageSize,
	}
}

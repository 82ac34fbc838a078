package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rileyhilliard/provmon/internal/errors"
)

// Validate checks the settings for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but provmon only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade provmon to read this file.")
	}

	if cfg.StaleTime <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("stale_time must be positive, got %s", cfg.StaleTime),
			"Use a duration like 30s or 1m.")
	}

	if cfg.RequestTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("request_timeout must be positive, got %s", cfg.RequestTimeout),
			"Use a duration like 10s.")
	}

	if cfg.RefreshInterval <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh_interval must be positive, got %s", cfg.RefreshInterval),
			"Use a duration like 30s.")
	}

	if cfg.PageSize <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("page_size must be positive, got %d", cfg.PageSize),
			fmt.Sprintf("The default is %d.", DefaultPageSize))
	}

	if strings.TrimSpace(cfg.MachinesFile) == "" {
		return errors.New(errors.ErrConfig,
			"machines_file is empty",
			"Point it at a YAML file, e.g. ~/.config/provmon/machines.yaml")
	}

	return nil
}

// ValidateMachine checks a single machine entry before it's stored.
func ValidateMachine(m MachineConfig) error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New(errors.ErrConfig,
			"Machine id is required",
			"Pass --id, or give the machine a name to derive one from.")
	}
	if Slugify(m.ID) != m.ID {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Machine id '%s' isn't a valid identifier", m.ID),
			fmt.Sprintf("Use lowercase letters, digits and hyphens, e.g. '%s'.", Slugify(m.ID)))
	}
	if strings.TrimSpace(m.Name) == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Machine '%s' has no name", m.ID),
			"Give it a display name with --name.")
	}

	u, err := url.Parse(m.EndpointURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Machine '%s' has an invalid status URL: %q", m.ID, m.EndpointURL),
			"Use an absolute http(s) URL, e.g. http://10.0.0.5:8080/providers")
	}

	return nil
}

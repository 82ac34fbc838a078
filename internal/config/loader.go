package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default settings file name.
	ConfigFileName = ".provmon.yaml"
	// GlobalConfigDir is the directory for global config, relative to home.
	GlobalConfigDir = ".config/provmon"
	// GlobalConfigFile is the global settings file name.
	GlobalConfigFile = "config.yaml"
	// MachinesFileName is the default machine list file name.
	MachinesFileName = "machines.yaml"
)

// DefaultMachinesFile returns ~/.config/provmon/machines.yaml, or a
// relative machines.yaml when the home directory is unknown.
func DefaultMachinesFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return MachinesFileName
	}
	return filepath.Join(home, GlobalConfigDir, MachinesFileName)
}

// Load reads settings from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("PROVMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Create "+ConfigFileName+" or drop the --config flag to use defaults.")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the settings file using the search order:
// 1. Explicit path (from --config flag)
// 2. .provmon.yaml in current directory
// 3. .provmon.yaml in parent directories (stops at git root or home)
// 4. ~/.config/provmon/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && parent == home {
			break
		}
		dir = parent

		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		// Stop at git root
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
	}

	if home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads settings from the found path, or returns defaults if
// there is no settings file. The result is validated either way.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if path != "" {
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	setDefaults(v, cfg)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	cfg.MachinesFile = expandPath(cfg.MachinesFile, configDir(path))

	return cfg, nil
}

// setDefaults registers the defaults with viper so env overrides apply to
// keys missing from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("version", cfg.Version)
	v.SetDefault("machines_file", cfg.MachinesFile)
	v.SetDefault("stale_time", cfg.StaleTime.String())
	v.SetDefault("request_timeout", cfg.RequestTimeout.String())
	v.SetDefault("refresh_interval", cfg.RefreshInterval.String())
	v.SetDefault("page_size", cfg.PageSize)
}

// expandPath expands ~ and environment variables, and resolves relative
// paths against the settings file's directory.
func expandPath(p, baseDir string) string {
	if p == "" {
		return p
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	p = os.ExpandEnv(p)
	if !filepath.IsAbs(p) && baseDir != "" {
		p = filepath.Join(baseDir, p)
	}
	return p
}

// configDir returns the directory containing the config file.
func configDir(configPath string) string {
	if configPath == "" {
		cwd, _ := os.Getwd()
		return cwd
	}
	return filepath.Dir(configPath)
}

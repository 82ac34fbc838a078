package cli

import (
	"os"

	"github.com/rileyhilliard/provmon/internal/config"
	"github.com/rileyhilliard/provmon/internal/fetch"
	"github.com/rileyhilliard/provmon/internal/logger"
	"github.com/rileyhilliard/provmon/internal/query"
	"golang.org/x/term"
)

// app bundles what the commands share: settings, the machine store and
// the cached query service in front of the fetcher.
type app struct {
	cfg   *config.Config
	store config.Store
	svc   *query.Machines
}

// loadApp reads settings (honoring --config) and opens the machine file.
func loadApp(log logger.Logger) (*app, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, config.NewFileStore(cfg.MachinesFile), log), nil
}

func newApp(cfg *config.Config, store config.Store, log logger.Logger) *app {
	f := fetch.New(store,
		fetch.WithTimeout(cfg.RequestTimeout),
		fetch.WithLogger(log),
	)
	cache := query.New(query.WithLogger(log))
	return &app{
		cfg:   cfg,
		store: store,
		svc:   query.NewMachines(cache, f, cfg.StaleTime),
	}
}

func (a *app) close() {
	a.svc.Cache().Dispose()
}

// cliLogger is the logger for one-shot commands: warnings go to stderr.
func cliLogger() logger.Logger {
	return logger.NewEnvLogger("[provmon]")
}

// interactive reports whether prompts can be shown.
func interactive() bool {
	return !machineMode && term.IsTerminal(int(os.Stdin.Fd()))
}

// showProgress reports whether a spinner can be drawn on stderr.
func showProgress() bool {
	return !machineMode && term.IsTerminal(int(os.Stderr.Fd()))
}

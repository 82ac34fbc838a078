package cli

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/provmon/internal/dashboard"
	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/rileyhilliard/provmon/internal/logger"
)

// dashboardCommand starts the TUI dashboard.
func dashboardCommand(intervalFlag string) error {
	if machineMode {
		return errors.New(errors.ErrConfig,
			"The dashboard is interactive and has no JSON output",
			"Use 'provmon machines list --json' or 'provmon overview --json' instead.")
	}

	// Log lines would tear the alt screen; failures show in the footer instead.
	a, err := loadApp(logger.Noop())
	if err != nil {
		return err
	}
	defer a.close()

	interval, err := ParseInterval(intervalFlag, a.cfg.RefreshInterval)
	if err != nil {
		return err
	}

	machines, err := a.store.ListConfigs()
	if err != nil {
		return err
	}
	if len(machines) == 0 {
		return errors.New(errors.ErrConfig,
			"No machines configured",
			"Add one with 'provmon machines add' first.")
	}

	model := dashboard.NewModel(a.svc, dashboard.Options{
		Interval: interval,
		Timeout:  a.cfg.RequestTimeout,
		PageSize: a.cfg.PageSize,
		Now:      time.Now,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/provmon/internal/config"
	"github.com/rileyhilliard/provmon/internal/dashboard"
	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/rileyhilliard/provmon/internal/status"
	"github.com/rileyhilliard/provmon/internal/table"
	"github.com/rileyhilliard/provmon/internal/ui"
)

const detailLabelWidth = 18

// ListOptions holds the flags of 'machines list'.
type ListOptions struct {
	Search string
	Sort   string
	Page   int
}

// machineListResult is the JSON shape of 'machines list'.
type machineListResult struct {
	Machines      []status.Machine `json:"machines"`
	Page          int              `json:"page"`
	TotalPages    int              `json:"total_pages"`
	FilteredCount int              `json:"filtered_count"`
	Search        string           `json:"search,omitempty"`
	Sort          *sortResult      `json:"sort,omitempty"`
}

type sortResult struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// AddOptions holds the fields of 'machines add'.
type AddOptions struct {
	ID       string
	Name     string
	Location string
	URL      string
}

// machinesList prints one page of the machine table.
func machinesList(ctx context.Context, w io.Writer, a *app, opts ListOptions) error {
	columns := dashboard.MachineColumns()
	sort, err := ParseSort(opts.Sort, columnKeys(columns))
	if err != nil {
		return err
	}
	if opts.Page == 0 {
		opts.Page = 1
	}
	if err := ValidatePage(opts.Page); err != nil {
		return err
	}

	machines, err := withProgress("Fetching machines", func() ([]status.Machine, error) {
		return a.svc.List(ctx)
	})
	if err != nil {
		return err
	}

	t := table.New(columns, dashboard.MachineSearchKeys, table.WithPageSize(a.cfg.PageSize))
	t.SetItems(machines)
	t.SetSearch(opts.Search)
	t.SetSort(sort)
	t.SetPage(opts.Page)
	state := t.View()

	if machineMode {
		result := machineListResult{
			Machines:      state.Items,
			Page:          state.Page,
			TotalPages:    state.TotalPages,
			FilteredCount: state.FilteredCount,
			Search:        state.Search,
		}
		if state.Sort.Active() {
			result.Sort = &sortResult{Column: state.Sort.Column, Direction: state.Sort.Direction.String()}
		}
		return WriteJSONSuccess(w, result)
	}

	switch {
	case len(machines) == 0:
		fmt.Fprintln(w, "No machines configured.")
		fmt.Fprintln(w, "\nAdd one with: provmon machines add")
		return nil
	case state.FilteredCount == 0:
		fmt.Fprintf(w, "No machines match %q.\n", state.Search)
		return nil
	case len(state.Items) == 0:
		fmt.Fprintf(w, "Page %d is empty; there are %d pages.\n", state.Page, state.TotalPages)
		return nil
	}

	rows := make([][]string, len(state.Items))
	for i, m := range state.Items {
		rows[i] = dashboard.MachineRow(m)
	}
	fmt.Fprintln(w, ui.RenderSimpleTable(tableColumns(columns, state.Sort), rows))
	fmt.Fprintf(w, "\nPage %s · %d machines\n", table.FormatPageWindow(state.Page, state.TotalPages), state.FilteredCount)
	return nil
}

// machinesShow prints a machine's summary and its providers.
func machinesShow(ctx context.Context, w io.Writer, a *app, id string, now time.Time) error {
	m, err := withProgress("Fetching "+id, func() (status.MachineWithProviders, error) {
		return a.svc.WithProviders(ctx, id)
	})
	if err != nil {
		return err
	}

	if machineMode {
		return WriteJSONSuccess(w, m)
	}

	s := m.Summary
	fmt.Fprintln(w, ui.KeyValue("Machine", m.DisplayName+" ("+m.MachineID+")", detailLabelWidth))
	if m.Location != "" {
		fmt.Fprintln(w, ui.KeyValue("Location", m.Location, detailLabelWidth))
	}
	fmt.Fprintln(w, ui.KeyValue("Host", m.Hostname, detailLabelWidth))
	fmt.Fprintln(w, ui.KeyValue("Working", ui.HealthStyle(s.WorkingPercent).Render(dashboard.FormatPercent(s.WorkingPercent)), detailLabelWidth))
	fmt.Fprintln(w, ui.KeyValue("Providers", fmt.Sprintf("%d working, %d waiting, %d unknown (%d total)",
		s.Working, s.Waiting, s.Unknown, s.Total), detailLabelWidth))
	fmt.Fprintln(w, ui.KeyValue("Services", fmt.Sprintf("yagna %d/%d, provider %d/%d",
		s.YagnaRunning, s.Total, s.ProviderRunning, s.Total), detailLabelWidth))

	if len(m.Providers) == 0 {
		fmt.Fprintln(w, "\nNo providers reported.")
		return nil
	}

	rows := make([][]string, len(m.Providers))
	for i, p := range m.Providers {
		rows[i] = dashboard.ProviderRow(p, now)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.RenderSimpleTable(tableColumns(dashboard.ProviderColumns(), table.Sort{}), rows))
	return nil
}

// machinesAdd stores a new machine. Missing name or URL are asked for
// with prompt when it is non-nil.
func machinesAdd(w io.Writer, store config.Store, opts AddOptions, prompt func(*AddOptions) error) error {
	if (opts.Name == "" || opts.URL == "") && prompt != nil {
		if err := prompt(&opts); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't get your input",
				"Try again, or pass --name and --url.")
		}
	}

	opts.Name = strings.TrimSpace(opts.Name)
	if opts.ID == "" && opts.Name != "" {
		opts.ID = config.NewMachineID(opts.Name)
	}

	mc := config.MachineConfig{
		ID:          opts.ID,
		Name:        opts.Name,
		Location:    strings.TrimSpace(opts.Location),
		EndpointURL: strings.TrimSpace(opts.URL),
	}
	if err := store.AddConfig(mc); err != nil {
		return err
	}

	if machineMode {
		return WriteJSONSuccess(w, mc)
	}
	fmt.Fprintf(w, "%s Added machine '%s' (%s)\n", ui.SymbolSuccess, mc.ID, mc.EndpointURL)
	return nil
}

// machinesRemove deletes a machine after confirm agrees. A nil confirm
// removes without asking.
func machinesRemove(w io.Writer, store config.Store, id string, confirm func(config.MachineConfig) (bool, error)) error {
	machines, err := store.ListConfigs()
	if err != nil {
		return err
	}
	mc, ok := config.FindConfig(machines, id)
	if !ok {
		return errors.NotFound("machine", id)
	}

	if confirm != nil {
		yes, err := confirm(mc)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't get your input",
				"Try again, or pass --yes.")
		}
		if !yes {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	if err := store.RemoveConfig(id); err != nil {
		return err
	}

	if machineMode {
		return WriteJSONSuccess(w, map[string]string{"removed": id})
	}
	fmt.Fprintf(w, "%s Removed machine '%s'\n", ui.SymbolSuccess, id)
	return nil
}

// promptMachine asks for the fields of a new machine.
func promptMachine(opts *AddOptions) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Machine name").
				Description("Shown in the dashboard").
				Value(&opts.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Location").
				Description("Optional, e.g. Warsaw").
				Value(&opts.Location),
			huh.NewInput().
				Title("Status URL").
				Placeholder("http://10.0.0.5:8080/providers").
				Value(&opts.URL).
				Validate(func(s string) error {
					probe := config.MachineConfig{ID: "probe", Name: "probe", EndpointURL: strings.TrimSpace(s)}
					if err := config.ValidateMachine(probe); err != nil {
						return fmt.Errorf("use an absolute http(s) URL")
					}
					return nil
				}),
		),
	)
	return form.Run()
}

// confirmRemove asks before a machine is removed.
func confirmRemove(mc config.MachineConfig) (bool, error) {
	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Remove machine '%s'?", mc.ID)).
				Description(mc.Name + " - " + mc.EndpointURL).
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirm, nil
}

// withProgress runs fn behind a spinner when stderr is a terminal.
func withProgress[T any](label string, fn func() (T, error)) (T, error) {
	if !showProgress() {
		return fn()
	}

	spinner := ui.NewSpinner(label, os.Stderr)
	spinner.Start()
	v, err := fn()
	if err != nil {
		spinner.Fail()
	} else {
		spinner.Clear()
	}
	return v, err
}

func columnKeys[T any](columns []table.Column[T]) []string {
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = c.Key
	}
	return keys
}

// tableColumns converts engine columns to display columns with the sort
// arrow on the sorted one.
func tableColumns[T any](columns []table.Column[T], sort table.Sort) []ui.TableColumn {
	out := make([]ui.TableColumn, len(columns))
	for i, c := range columns {
		title := c.Title
		if ind := table.SortIndicator(sort, c.Key); ind != "" {
			title += " " + ind
		}
		out[i] = ui.TableColumn{Title: title}
	}
	return out
}

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rileyhilliard/provmon/internal/dashboard"
	"github.com/rileyhilliard/provmon/internal/status"
	"github.com/rileyhilliard/provmon/internal/ui"
)

// overview prints fleet totals, machines below the issue threshold and
// machine counts per location.
func overview(ctx context.Context, w io.Writer, a *app) error {
	machines, err := withProgress("Fetching machines", func() ([]status.Machine, error) {
		return a.svc.List(ctx)
	})
	if err != nil {
		return err
	}
	o := status.Overview(machines)

	if machineMode {
		return WriteJSONSuccess(w, o)
	}

	fmt.Fprintln(w, ui.KeyValue("Machines", fmt.Sprint(o.TotalMachines), detailLabelWidth))
	fmt.Fprintln(w, ui.KeyValue("Providers", fmt.Sprint(o.TotalProviders), detailLabelWidth))
	fmt.Fprintln(w, ui.KeyValue("Health", ui.HealthStyle(o.HealthPercent).Render(dashboard.FormatPercent(o.HealthPercent))+" working", detailLabelWidth))
	fmt.Fprintln(w, ui.KeyValue("Status", fmt.Sprintf("%d working, %d waiting, %d unknown", o.Working, o.Waiting, o.Unknown), detailLabelWidth))

	if len(o.Issues) > 0 {
		fmt.Fprintf(w, "\nBelow %d%% working:\n", int(status.IssueThreshold))
		rows := make([][]string, len(o.Issues))
		for i, m := range o.Issues {
			rows[i] = []string{m.MachineID, m.DisplayName, dashboard.FormatPercent(m.Summary.WorkingPercent)}
		}
		fmt.Fprintln(w, ui.RenderSimpleTable([]ui.TableColumn{{Title: "ID"}, {Title: "Name"}, {Title: "Working %"}}, rows))
	}

	if len(o.Locations) > 0 {
		fmt.Fprintln(w, "\nLocations:")
		rows := make([][]string, len(o.Locations))
		for i, l := range o.Locations {
			loc := l.Location
			if loc == "" {
				loc = "-"
			}
			rows[i] = []string{loc, fmt.Sprint(l.Count)}
		}
		fmt.Fprintln(w, ui.RenderSimpleTable([]ui.TableColumn{{Title: "Location"}, {Title: "Machines"}}, rows))
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rileyhilliard/provmon/internal/dashboard"
	"github.com/rileyhilliard/provmon/internal/status"
	"github.com/rileyhilliard/provmon/internal/ui"
)

// providerShow prints every field of one provider.
func providerShow(ctx context.Context, w io.Writer, a *app, machineID, providerID string, now time.Time) error {
	p, err := withProgress("Fetching "+machineID, func() (status.Provider, error) {
		return a.svc.Provider(ctx, machineID, providerID)
	})
	if err != nil {
		return err
	}

	if machineMode {
		return WriteJSONSuccess(w, p)
	}

	lastSeen := dashboard.FormatAgo(p.LastSeen, now)
	if !p.LastSeen.IsZero() {
		lastSeen += " (" + p.LastSeen.Format(time.RFC3339) + ")"
	}
	notes := "-"
	if p.Notes != nil && *p.Notes != "" {
		notes = *p.Notes
	}

	lines := [][2]string{
		{"Machine", machineID},
		{"Provider", p.ID},
		{"Name", p.Name},
		{"Status", ui.RenderStatus(p.Status)},
		{"Yagna running", ui.Check(p.YagnaRunning)},
		{"Provider running", ui.Check(p.ProviderRunning)},
		{"Has work", ui.Check(p.HasWork)},
		{"Last seen", lastSeen},
		{"Latency", dashboard.FormatLatency(p.LatencyMs)},
		{"Notes", notes},
	}
	for _, l := range lines {
		fmt.Fprintln(w, ui.KeyValue(l[0], l[1], detailLabelWidth))
	}
	return nil
}

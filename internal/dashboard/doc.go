// Package dashboard implements the interactive provider dashboard.
//
// The dashboard is a Bubble Tea program with three screens:
//
//	ViewList      - fleet overview and a paged, searchable machine table
//	ViewMachine   - one machine's summary, trend and provider table
//	ViewProvider  - every field of a single provider
//
// All data comes from a query.Machines service, so repeated visits to a
// screen are served from the cache until the entries go stale. A tick
// fires every refresh interval and re-queries the current screen; the
// fleet list is always refreshed so the per-machine History keeps
// sampling while a detail screen is open.
//
// Tables are driven by table.Table: the focused column (left/right)
// cycles its sort with s, / edits the search term and [ ] page through
// results.
package dashboard

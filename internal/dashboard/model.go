package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/provmon/internal/config"
	"github.com/rileyhilliard/provmon/internal/query"
	"github.com/rileyhilliard/provmon/internal/status"
	"github.com/rileyhilliard/provmon/internal/table"
	"github.com/rileyhilliard/provmon/internal/ui"
)

// Options configures a dashboard Model.
type Options struct {
	Interval time.Duration // refresh cadence; defaults to config.DefaultRefreshInterval
	Timeout  time.Duration // how long a view waits on a query; defaults to config.DefaultRequestTimeout
	PageSize int
	Now      func() time.Time
}

// tableControl is the part of a table.Table the key handlers drive,
// independent of the row type.
type tableControl interface {
	SetSearch(term string)
	CycleSort(column string) table.Sort
	SetPage(page int)
}

// Model is the Bubble Tea model for the provider dashboard.
type Model struct {
	svc      *query.Machines
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	list      []status.Machine
	machines  *table.Table[status.Machine]
	providers *table.Table[status.Provider]
	pageSize  int
	history   *History
	failures  *failureLog

	machineID  string
	providerID string
	detail     *status.MachineWithProviders
	provider   *status.Provider

	viewMode  ViewMode
	selected  int // row index within the current page
	focusCol  int
	searching bool
	search    textinput.Model

	loading     bool
	spinner     spinner.Model
	lastErr     error
	lastUpdate  time.Time
	lastSampled time.Time

	width         int
	height        int
	showHelp      bool
	quitting      bool
	viewport      viewport.Model
	viewportReady bool
}

// failureLog records the most recent failed query reported by the cache.
// Observers run on loader goroutines, so access is locked.
type failureLog struct {
	mu    sync.Mutex
	last  query.FailureEvent
	total int
}

func (f *failureLog) record(e query.FailureEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = e
	f.total++
}

func (f *failureLog) snapshot() (query.FailureEvent, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.total
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// machinesMsg carries the result of a fleet list query.
type machinesMsg struct {
	machines []status.Machine
	err      error
	at       time.Time
}

// machineMsg carries the result of a machine detail query.
type machineMsg struct {
	id      string
	machine status.MachineWithProviders
	err     error
	at      time.Time
}

// providerMsg carries the result of a provider detail query.
type providerMsg struct {
	machineID  string
	providerID string
	provider   status.Provider
	err        error
	at         time.Time
}

// NewModel creates a dashboard backed by svc. It subscribes to the
// service's cache so failed loads show up in the footer.
func NewModel(svc *query.Machines, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = config.DefaultRefreshInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultRequestTimeout
	}
	if opts.PageSize <= 0 {
		opts.PageSize = table.DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.PromptStyle = SearchPromptStyle
	search.Placeholder = "search"
	search.CharLimit = 64

	failures := &failureLog{}
	svc.Cache().Subscribe(failures.record)

	return Model{
		svc:       svc,
		interval:  opts.Interval,
		timeout:   opts.Timeout,
		now:       opts.Now,
		machines:  table.New(MachineColumns(), MachineSearchKeys, table.WithPageSize(opts.PageSize)),
		providers: table.New(ProviderColumns(), ProviderSearchKeys, table.WithPageSize(opts.PageSize)),
		pageSize:  opts.PageSize,
		history:   NewHistory(DefaultHistorySize),
		failures:  failures,
		search:    search,
		spinner:   ui.NewBubblesSpinner(),
		loading:   true,
	}
}

// Init starts the refresh timer and the first fleet load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		m.loadMachinesCmd(),
		m.spinner.Tick,
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m, m.handleSearchKey(msg)
		}
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// header + footer
		viewportHeight := m.height - 5
		if viewportHeight < 1 {
			viewportHeight = 1
		}
		if !m.viewportReady {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewportReady = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()

	case tickMsg:
		return m, tea.Batch(m.tickCmd(), m.reloadCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case machinesMsg:
		m.loading = false
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.lastErr = nil
		m.lastUpdate = msg.at
		m.list = msg.machines
		m.machines.SetItems(msg.machines)
		m.sampleHistory(msg.machines)
		m.clampSelection()

	case machineMsg:
		if msg.id != m.machineID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.lastErr = nil
		m.lastUpdate = msg.at
		machine := msg.machine
		m.detail = &machine
		m.providers.SetItems(machine.Providers)
		m.clampSelection()

	case providerMsg:
		if msg.machineID != m.machineID || msg.providerID != m.providerID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.lastErr = msg.err
		} else {
			m.lastErr = nil
			m.lastUpdate = msg.at
			p := msg.provider
			m.provider = &p
		}
		m.updateViewportContent()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	switch m.viewMode {
	case ViewMachine:
		return m.renderMachineView()
	case ViewProvider:
		return m.renderProviderView()
	default:
		return m.renderListView()
	}
}

// tickCmd returns a command that sends a tick after the refresh interval.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadMachinesCmd() tea.Cmd {
	svc, timeout, now := m.svc, m.timeout, m.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		machines, err := svc.List(ctx)
		return machinesMsg{machines: machines, err: err, at: now()}
	}
}

func (m Model) loadMachineCmd(id string) tea.Cmd {
	svc, timeout, now := m.svc, m.timeout, m.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		machine, err := svc.WithProviders(ctx, id)
		return machineMsg{id: id, machine: machine, err: err, at: now()}
	}
}

func (m Model) loadProviderCmd(machineID, providerID string) tea.Cmd {
	svc, timeout, now := m.svc, m.timeout, m.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		p, err := svc.Provider(ctx, machineID, providerID)
		return providerMsg{machineID: machineID, providerID: providerID, provider: p, err: err, at: now()}
	}
}

// reloadCmd re-queries whatever the current screen shows. The fleet list
// is always refreshed so the history keeps sampling.
func (m *Model) reloadCmd() tea.Cmd {
	m.loading = true
	switch m.viewMode {
	case ViewMachine:
		return tea.Batch(m.loadMachinesCmd(), m.loadMachineCmd(m.machineID))
	case ViewProvider:
		return tea.Batch(m.loadMachinesCmd(), m.loadProviderCmd(m.machineID, m.providerID))
	default:
		return m.loadMachinesCmd()
	}
}

// sampleHistory records one history point per machine for each new fetch
// of the list, not for cache hits.
func (m *Model) sampleHistory(machines []status.Machine) {
	entry, ok := m.svc.Cache().Peek(query.MachinesList())
	if !ok || !entry.LastFetchedAt.After(m.lastSampled) {
		return
	}
	m.lastSampled = entry.LastFetchedAt
	ids := make([]string, 0, len(machines))
	for _, mc := range machines {
		m.history.Push(mc.MachineID, mc.Summary.WorkingPercent)
		ids = append(ids, mc.MachineID)
	}
	m.history.Retain(ids)
}

func (m *Model) active() tableControl {
	if m.viewMode == ViewList {
		return m.machines
	}
	return m.providers
}

// columnKeys returns the sortable column keys of the current screen.
func (m Model) columnKeys() []string {
	var keys []string
	switch m.viewMode {
	case ViewList:
		for _, c := range m.machines.Columns() {
			keys = append(keys, c.Key)
		}
	case ViewMachine:
		for _, c := range m.providers.Columns() {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// pageInfo returns the current page, page count and rows on this page.
func (m Model) pageInfo() (page, total, rows int) {
	switch m.viewMode {
	case ViewList:
		s := m.machines.View()
		return s.Page, s.TotalPages, len(s.Items)
	case ViewMachine:
		s := m.providers.View()
		return s.Page, s.TotalPages, len(s.Items)
	}
	return 1, 1, 0
}

func (m *Model) clampSelection() {
	_, _, rows := m.pageInfo()
	if m.selected >= rows {
		m.selected = rows - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) startSearch() tea.Cmd {
	m.searching = true
	current := m.machines.View().Search
	if m.viewMode == ViewMachine {
		current = m.providers.View().Search
	}
	m.search.SetValue(current)
	m.search.CursorEnd()
	return m.search.Focus()
}

// SelectedMachine returns the machine under the cursor in the list view.
func (m Model) SelectedMachine() (status.Machine, bool) {
	items := m.machines.View().Items
	if m.selected < 0 || m.selected >= len(items) {
		return status.Machine{}, false
	}
	return items[m.selected], true
}

// SelectedProvider returns the provider under the cursor in the machine view.
func (m Model) SelectedProvider() (status.Provider, bool) {
	items := m.providers.View().Items
	if m.selected < 0 || m.selected >= len(items) {
		return status.Provider{}, false
	}
	return items[m.selected], true
}

// drillDown opens the row under the cursor.
func (m *Model) drillDown() tea.Cmd {
	switch m.viewMode {
	case ViewList:
		machine, ok := m.SelectedMachine()
		if !ok {
			return nil
		}
		m.machineID = machine.MachineID
		m.detail = nil
		m.providers = table.New(ProviderColumns(), ProviderSearchKeys, table.WithPageSize(m.pageSize))
		// show cached data while revalidating
		if entry, ok := m.svc.Cache().Peek(query.MachineWithProviders(machine.MachineID)); ok && entry.HasData {
			if cached, ok := entry.Data.(status.MachineWithProviders); ok {
				m.detail = &cached
				m.providers.SetItems(cached.Providers)
			}
		}
		m.viewMode = ViewMachine
		m.selected = 0
		m.focusCol = 0
		m.lastErr = nil
		m.loading = true
		return m.loadMachineCmd(machine.MachineID)

	case ViewMachine:
		p, ok := m.SelectedProvider()
		if !ok {
			return nil
		}
		m.providerID = p.ID
		m.provider = &p
		m.viewMode = ViewProvider
		m.lastErr = nil
		m.loading = true
		m.updateViewportContent()
		return m.loadProviderCmd(m.machineID, p.ID)
	}
	return nil
}

// goBack leaves the current screen, or clears the list search.
func (m *Model) goBack() {
	switch m.viewMode {
	case ViewProvider:
		m.viewMode = ViewMachine
		m.providerID = ""
		m.provider = nil
		m.selected = 0
	case ViewMachine:
		m.viewMode = ViewList
		m.machineID = ""
		m.detail = nil
		m.selected = 0
		m.focusCol = 0
	default:
		if m.machines.View().Search != "" {
			m.machines.SetSearch("")
			m.search.SetValue("")
			m.selected = 0
		}
	}
	m.lastErr = nil
}

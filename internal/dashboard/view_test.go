package dashboard

import (
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func TestListView(t *testing.T) {
	m, _, _ := loaded(t)

	out := m.View()

	assert.Contains(t, out, "provmon")
	assert.Contains(t, out, "3 machines")
	assert.Contains(t, out, "4 providers")
	assert.Contains(t, out, "50% working")
	assert.Contains(t, out, "updated just now")
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "Bravo")
	assert.NotContains(t, out, "Charlie", "second page")
	assert.Contains(t, out, "Page [1] 2 · 3 machines")
	assert.Contains(t, out, "[ID]")
	assert.Contains(t, out, "2 below 80%")
	assert.Contains(t, out, "Warsaw 2 · Berlin 1")
	assert.Contains(t, out, "q quit")
}

func TestListView_SortIndicator(t *testing.T) {
	m, _, _ := loaded(t)
	m, _ = send(t, m, key(KeyCycleSort))
	assert.Contains(t, m.View(), "[ID ▲]")

	m, _ = send(t, m, key(KeyCycleSort))
	assert.Contains(t, m.View(), "[ID ▼]")
}

func TestListView_Empty(t *testing.T) {
	src := newStubSource()
	src.fleet = nil
	m, _ := newTestModel(t, src)

	assert.Contains(t, m.View(), "Loading...")

	m = run(t, m, m.loadMachinesCmd())
	out := m.View()
	assert.Contains(t, out, "No machines configured")
	assert.Contains(t, out, "0 machines")
	assert.Contains(t, out, "updated just now")
}

func TestListView_NoMatches(t *testing.T) {
	m, _, _ := loaded(t)
	m.machines.SetSearch("zzz")

	out := m.View()

	assert.Contains(t, out, `No matches for "zzz"`)
	assert.Contains(t, out, "/ zzz")
}

func TestListView_SearchBox(t *testing.T) {
	m, _, _ := loaded(t)
	m, _ = send(t, m, key(KeySearch))
	m = typeText(t, m, "al")

	out := m.View()
	assert.Contains(t, out, "/ al")
	assert.Contains(t, out, "Alpha")
	assert.NotContains(t, out, "Bravo")
}

func TestListView_Error(t *testing.T) {
	m, _, _ := loaded(t)
	m, _ = send(t, m, machinesMsg{err: assert.AnError})

	assert.Contains(t, m.View(), assert.AnError.Error())
}

func TestMachineView(t *testing.T) {
	m, _, _ := loaded(t)
	m, cmd := send(t, m, key(KeyExpand))

	assert.Contains(t, m.View(), "Loading machine...")

	m = run(t, m, cmd)
	out := m.View()
	assert.Contains(t, out, "← Alpha")
	assert.Contains(t, out, "Alpha (alpha)")
	assert.Contains(t, out, "Warsaw")
	assert.Contains(t, out, "33.3%")
	assert.Contains(t, out, "1 working")
	assert.Contains(t, out, "yagna 2/3  provider 1/3")
	assert.Contains(t, out, "Trend")
	assert.Contains(t, out, "gpu-1")
	assert.Contains(t, out, "30s ago")
	assert.Contains(t, out, "12ms")
	assert.Contains(t, out, "Page [1] 2 · 3 providers")
	assert.Contains(t, out, "esc back")
}

func TestProviderView(t *testing.T) {
	m, _, _ := loaded(t)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, cmd := send(t, m, key(KeyExpand))
	m = run(t, m, cmd)
	m, cmd = send(t, m, key(KeyExpand))
	m = run(t, m, cmd)
	require.NotNil(t, m.provider)

	out := m.View()
	assert.Contains(t, out, "Alpha / p1")
	assert.Contains(t, out, "● working")
	assert.Contains(t, out, "Latency")
	assert.Contains(t, out, "12ms")
	assert.Contains(t, out, "30s ago")
	assert.Contains(t, out, "↑↓ scroll")
}

func TestProviderView_WithoutViewport(t *testing.T) {
	m, _, _ := loaded(t)
	m.viewMode = ViewProvider
	m.machineID = "alpha"
	m.providerID = "p9"

	assert.Contains(t, m.View(), "Loading provider...")

	m = run(t, m, m.loadProviderCmd("alpha", "p9"))
	assert.Contains(t, m.View(), "Provider 'p9' not found")
}

func TestHelpOverlay_Placed(t *testing.T) {
	m, _, _ := loaded(t)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m.showHelp = true

	out := m.View()
	assert.Contains(t, out, "Keyboard Shortcuts")
	assert.Equal(t, 30, lipgloss.Height(out))
}

func TestRenderPager(t *testing.T) {
	assert.Contains(t, renderPager(0, 0, 0, "machines"), "0 machines")
	assert.Contains(t, renderPager(5, 10, 200, "machines"), "Page 1 … 4 [5] 6 … 10 · 200 machines")
}

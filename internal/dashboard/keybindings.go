package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ViewMode defines the current screen of the dashboard.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewMachine
	ViewProvider
)

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeyRefresh     = "r"
	KeySearch      = "/"
	KeyCycleSort   = "s"
	KeyColumnPrev  = "left"
	KeyColumnPrevH = "h"
	KeyColumnNext  = "right"
	KeyColumnNextL = "l"
	KeyPagePrev    = "["
	KeyPageNext    = "]"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeySelectFirst = "home"
	KeySelectLast  = "end"
	KeyExpand      = "enter"
	KeyCollapse    = "esc"
	KeyToggleHelp  = "?"
)

// HandleKeyMsg processes keyboard input outside of search mode.
// Returns true if the key was handled.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyRefresh:
		m.svc.Refresh()
		return true, m.reloadCmd()

	case KeySearch:
		if m.viewMode == ViewProvider {
			return true, nil
		}
		return true, m.startSearch()

	case KeyCycleSort:
		if keys := m.columnKeys(); len(keys) > 0 {
			m.active().CycleSort(keys[m.focusCol])
			m.selected = 0
		}
		return true, nil

	case KeyColumnPrev, KeyColumnPrevH:
		if m.focusCol > 0 {
			m.focusCol--
		}
		return true, nil

	case KeyColumnNext, KeyColumnNextL:
		if m.focusCol < len(m.columnKeys())-1 {
			m.focusCol++
		}
		return true, nil

	case KeyPagePrev:
		page, _, _ := m.pageInfo()
		if page > 1 {
			m.active().SetPage(page - 1)
			m.selected = 0
		}
		return true, nil

	case KeyPageNext:
		page, total, _ := m.pageInfo()
		if page < total {
			m.active().SetPage(page + 1)
			m.selected = 0
		}
		return true, nil

	case KeySelectPrev, KeySelectPrevK:
		if m.viewMode == ViewProvider {
			m.viewport.SetYOffset(m.viewport.YOffset - 1)
		} else if m.selected > 0 {
			m.selected--
		}
		return true, nil

	case KeySelectNext, KeySelectNextJ:
		_, _, rows := m.pageInfo()
		if m.viewMode == ViewProvider {
			m.viewport.SetYOffset(m.viewport.YOffset + 1)
		} else if m.selected < rows-1 {
			m.selected++
		}
		return true, nil

	case KeySelectFirst:
		m.selected = 0
		return true, nil

	case KeySelectLast:
		if _, _, rows := m.pageInfo(); rows > 0 {
			m.selected = rows - 1
		}
		return true, nil

	case KeyExpand:
		return true, m.drillDown()

	case KeyCollapse:
		m.goBack()
		return true, nil
	}

	return false, nil
}

// handleSearchKey routes keys to the search box while it has focus.
func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case KeyQuitAlt:
		m.quitting = true
		return tea.Quit
	case KeyExpand:
		m.searching = false
		m.search.Blur()
		return nil
	case KeyCollapse:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.active().SetSearch("")
		m.selected = 0
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.active().SetSearch(m.search.Value())
	m.selected = 0
	return cmd
}

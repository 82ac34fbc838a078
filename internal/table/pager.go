package table

import (
	"strconv"
	"strings"
)

// Ellipsis marks skipped pages in a page window.
const Ellipsis = "…"

// maxSlots is the page count up to which every page is listed.
const maxSlots = 7

// Slot is one entry of a page window: a page number, or a gap when Page is 0.
type Slot struct {
	Page int
}

// IsGap reports whether the slot stands for skipped pages.
func (s Slot) IsGap() bool {
	return s.Page == 0
}

// String renders the slot as its page number or Ellipsis.
func (s Slot) String() string {
	if s.IsGap() {
		return Ellipsis
	}
	return strconv.Itoa(s.Page)
}

// PageWindow returns the compact list of page links for current of total:
// every page when there are at most seven, otherwise the first and last
// page around a run of five (or three, mid-range) with gaps between.
func PageWindow(current, total int) []Slot {
	if total <= 0 {
		return nil
	}
	if total <= maxSlots {
		return pages(1, total)
	}

	gap := Slot{}
	first := Slot{Page: 1}
	last := Slot{Page: total}

	switch {
	case current <= 3:
		return append(pages(1, 5), gap, last)
	case current >= total-2:
		return append([]Slot{first, gap}, pages(total-4, total)...)
	default:
		out := []Slot{first, gap}
		out = append(out, pages(current-1, current+1)...)
		return append(out, gap, last)
	}
}

func pages(from, to int) []Slot {
	out := make([]Slot, 0, to-from+1)
	for p := from; p <= to; p++ {
		out = append(out, Slot{Page: p})
	}
	return out
}

// FormatPageWindow renders a window as "1 … 4 [5] 6 … 10", bracketing the
// current page.
func FormatPageWindow(current, total int) string {
	window := PageWindow(current, total)
	parts := make([]string, len(window))
	for i, s := range window {
		if s.Page == current {
			parts[i] = "[" + s.String() + "]"
			continue
		}
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

// SortIndicator returns the arrow for column under s, or "" when the
// column isn't the sorted one.
func SortIndicator(s Sort, column string) string {
	if !s.Active() || s.Column != column {
		return ""
	}
	if s.Direction == DirDesc {
		return "▼"
	}
	return "▲"
}

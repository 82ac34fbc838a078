// Package table derives the visible page of a list from a search term, a
// tri-state column sort, and a fixed page size.
//
// Columns are typed accessors, so sorting and searching never inspect items
// by reflection. A Table is not safe for concurrent use; the dashboard and
// CLI each own one.
package table

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultPageSize is the number of rows per page unless overridden.
const DefaultPageSize = 20

// Direction is the sort direction of the active column.
type Direction int

const (
	DirNone Direction = iota
	DirAsc
	DirDesc
)

// String returns the direction name used in flags and JSON.
func (d Direction) String() string {
	switch d {
	case DirAsc:
		return "asc"
	case DirDesc:
		return "desc"
	default:
		return "none"
	}
}

// Sort is the active sort. The zero value means unsorted.
type Sort struct {
	Column    string
	Direction Direction
}

// Active reports whether a column sort is applied.
func (s Sort) Active() bool {
	return s.Column != "" && s.Direction != DirNone
}

// Column is one sortable, searchable field of T.
type Column[T any] struct {
	Key   string
	Title string
	Value func(T) Value
}

// State is the derived view of a Table.
type State[T any] struct {
	Items         []T // current page
	TotalPages    int
	FilteredCount int
	Sort          Sort
	Search        string
	Page          int
}

// Table holds the source items and the user's view settings.
type Table[T any] struct {
	columns    []Column[T]
	byKey      map[string]Column[T]
	searchKeys []string
	pageSize   int
	collator   *collate.Collator

	items  []T
	search string
	sort   Sort
	page   int
}

// Option configures a Table.
type Option func(*options)

type options struct {
	pageSize int
	lang     language.Tag
}

// WithPageSize sets the page size. Non-positive values are ignored.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithLanguage sets the collation used for string sorting.
func WithLanguage(tag language.Tag) Option {
	return func(o *options) {
		o.lang = tag
	}
}

// New creates a Table over columns. searchKeys names the columns matched
// by the search term; unknown keys are ignored.
func New[T any](columns []Column[T], searchKeys []string, opts ...Option) *Table[T] {
	o := options{pageSize: DefaultPageSize, lang: language.English}
	for _, opt := range opts {
		opt(&o)
	}

	byKey := make(map[string]Column[T], len(columns))
	for _, c := range columns {
		byKey[c.Key] = c
	}

	return &Table[T]{
		columns:    columns,
		byKey:      byKey,
		searchKeys: searchKeys,
		pageSize:   o.pageSize,
		collator:   collate.New(o.lang),
		page:       1,
	}
}

// Columns returns the configured columns in order.
func (t *Table[T]) Columns() []Column[T] {
	return t.columns
}

// PageSize returns the number of rows per page.
func (t *Table[T]) PageSize() int {
	return t.pageSize
}

// SetItems replaces the source items. View settings are kept.
func (t *Table[T]) SetItems(items []T) {
	t.items = items
}

// SetSearch sets the search term and returns to the first page.
func (t *Table[T]) SetSearch(term string) {
	t.search = term
	t.page = 1
}

// SetSort replaces the sort directly, e.g. from a command line flag.
func (t *Table[T]) SetSort(s Sort) {
	if s.Column == "" || s.Direction == DirNone {
		s = Sort{}
	}
	t.sort = s
}

// CycleSort advances the sort for column: another column or none starts
// ascending, ascending becomes descending, descending clears the sort.
func (t *Table[T]) CycleSort(column string) Sort {
	switch {
	case t.sort.Column != column:
		t.sort = Sort{Column: column, Direction: DirAsc}
	case t.sort.Direction == DirAsc:
		t.sort = Sort{Column: column, Direction: DirDesc}
	case t.sort.Direction == DirDesc:
		t.sort = Sort{}
	default:
		t.sort = Sort{Column: column, Direction: DirAsc}
	}
	return t.sort
}

// SetPage selects a 1-based page. It is not clamped; out-of-range pages
// are simply empty.
func (t *Table[T]) SetPage(page int) {
	t.page = page
}

// View filters, sorts and paginates the current items.
func (t *Table[T]) View() State[T] {
	rows := t.filter()
	t.sortRows(rows)

	total := int(math.Ceil(float64(len(rows)) / float64(t.pageSize)))

	return State[T]{
		Items:         t.paginate(rows),
		TotalPages:    total,
		FilteredCount: len(rows),
		Sort:          t.sort,
		Search:        t.search,
		Page:          t.page,
	}
}

func (t *Table[T]) filter() []T {
	if t.search == "" {
		return append([]T(nil), t.items...)
	}

	term := strings.ToLower(t.search)
	var out []T
	for _, item := range t.items {
		if t.matches(item, term) {
			out = append(out, item)
		}
	}
	return out
}

func (t *Table[T]) matches(item T, term string) bool {
	for _, key := range t.searchKeys {
		col, ok := t.byKey[key]
		if !ok {
			continue
		}
		text, ok := col.Value(item).Text()
		if ok && strings.Contains(strings.ToLower(text), term) {
			return true
		}
	}
	return false
}

func (t *Table[T]) sortRows(rows []T) {
	if !t.sort.Active() {
		return
	}
	col, ok := t.byKey[t.sort.Column]
	if !ok {
		return
	}

	desc := t.sort.Direction == DirDesc
	sort.SliceStable(rows, func(i, j int) bool {
		c := t.compare(col.Value(rows[i]), col.Value(rows[j]))
		if desc {
			c = -c
		}
		return c < 0
	})
}

// compare orders two values of the same kind; mixed kinds are equal.
func (t *Table[T]) compare(a, b Value) int {
	switch {
	case a.Kind == KindString && b.Kind == KindString:
		return t.collator.CompareString(a.Str, b.Str)
	case a.Kind == KindNumber && b.Kind == KindNumber:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
	}
	return 0
}

func (t *Table[T]) paginate(rows []T) []T {
	start := (t.page - 1) * t.pageSize
	if t.page < 1 || start >= len(rows) {
		return []T{}
	}
	end := start + t.pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

package grid

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/Alp4ka/rowsgroup"
)

// Row is a source record. ID must be unique within the source; cell state is
// kept per row ID across draws.
type Row struct {
	ID     string
	Values map[string]any
}

// Window is the result of a source fetch.
type Window struct {
	Rows []Row
	// Start is the offset of Rows[0] within the filtered row set.
	Start int
	// Total counts the rows of the source, Filtered those matching the search.
	Total    int
	Filtered int
}

// Source provides the visible row window of a Grid.
type Source interface {
	Fetch(ctx context.Context, q *rowsgroup.WindowQuery) (Window, error)
}

// Reloader is implemented by sources caching anything between fetches.
type Reloader interface {
	Reload(ctx context.Context) error
}

// MemorySource serves rows held in memory. Search is a case-insensitive
// "every term matches some searchable column" match on displayed values.
type MemorySource struct {
	columns []Column
	rows    []Row
}

func NewMemorySource(columns []Column, rows []Row) *MemorySource {
	return &MemorySource{
		columns: columns,
		rows:    rows,
	}
}

// Fetch implements Source.
func (s *MemorySource) Fetch(_ context.Context, q *rowsgroup.WindowQuery) (Window, error) {
	if err := q.GetSort().Validate(); err != nil {
		return Window{}, fmt.Errorf("memory source: %w", err)
	}

	matched := s.filter(q.GetSearch())
	sortRows(matched, q.GetSort())

	from, to := q.GetPaging().Bounds(len(matched))

	return Window{
		Rows:     slices.Clone(matched[from:to]),
		Start:    from,
		Total:    len(s.rows),
		Filtered: len(matched),
	}, nil
}

func (s *MemorySource) filter(search string) []Row {
	terms := searchTerms(search)
	if len(terms) == 0 {
		return slices.Clone(s.rows)
	}

	searchable := lo.Filter(s.columns, func(c Column, _ int) bool {
		return c.Searchable
	})

	return lo.Filter(s.rows, func(row Row, _ int) bool {
		return lo.EveryBy(terms, func(term string) bool {
			return lo.SomeBy(searchable, func(c Column) bool {
				return strings.Contains(strings.ToLower(c.Display(row.Values[c.Name])), term)
			})
		})
	})
}

// searchTerms splits a search string into lower-cased terms.
func searchTerms(search string) []string {
	return lo.Map(strings.Fields(search), func(term string, _ int) string {
		return strings.ToLower(term)
	})
}

func sortRows(rows []Row, order rowsgroup.Orderings) {
	if len(order) == 0 {
		return
	}

	slices.SortStableFunc(rows, func(a, b Row) int {
		for _, o := range order {
			c := compareValues(a.Values[o.Column], b.Values[o.Column])
			if c == 0 {
				continue
			}

			return lo.Ternary(o.Direction == rowsgroup.DirectionDESC, -c, c)
		}

		return 0
	})
}

// compareValues orders nil first, then numbers, times and strings by their
// natural order. Values of different kinds compare by their text.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}

	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}

	return cmp.Compare(displayText(a), displayText(b))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

package rowsgroup

import (
	"fmt"
	"slices"

	"gorm.io/gorm"
)

// WindowQuery describes the visible row window a host asks its row source
// for: the applied ordering, the search term and the page. A seek cursor may
// replace the page offset when the page directly follows a known row.
type WindowQuery struct {
	sort   Orderings
	search string
	paging *Paging
	seek   *SeekCursor
}

func NewWindowQuery() *WindowQuery {
	return new(WindowQuery)
}

// WithSubstitutedSort resets previous orderings and applies the provided ones.
func (q *WindowQuery) WithSubstitutedSort(orderBy ...OrderBy) *WindowQuery {
	if q == nil {
		q = new(WindowQuery)
	}

	q.sort = nil

	return q.WithSort(orderBy...)
}

// WithSort appends sort orderings without overwriting existing ones. A column
// that is already ordered moves to the end with its new direction, as if
// calling:
//
//	OrderBy(o1).ThenBy(o2).ThenBy(o3)...
func (q *WindowQuery) WithSort(orderBy ...OrderBy) *WindowQuery {
	if q == nil {
		q = new(WindowQuery)
	}

	for _, o := range orderBy {
		idx := q.sort.Index(o.Column)
		if idx != -1 {
			q.sort = slices.Delete(q.sort, idx, idx+1)
		}

		q.sort = append(q.sort, o)
	}

	return q
}

// WithSearch sets the global search term. An empty term disables searching.
func (q *WindowQuery) WithSearch(term string) *WindowQuery {
	if q == nil {
		q = new(WindowQuery)
	}

	q.search = term

	return q
}

// WithPaging sets the page to fetch.
func (q *WindowQuery) WithPaging(p *Paging) *WindowQuery {
	if q == nil {
		q = new(WindowQuery)
	}

	q.paging = p

	return q
}

// WithSeek continues right after the row the cursor was built from.
//
// IMPORTANT:
// The cursor must match the sort of the query, see SeekCursor.
func (q *WindowQuery) WithSeek(c *SeekCursor) *WindowQuery {
	if q == nil {
		q = new(WindowQuery)
	}

	q.seek = c

	return q
}

// Paginate applies ordering and paging to the dataset. Returns an error if
// they cannot be applied.
func (q *WindowQuery) Paginate(db *gorm.DB) (*gorm.DB, error) {
	if err := q.validate(); err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	db = q.sort.Apply(db)

	if !q.seek.IsEmpty() {
		db = q.seek.Apply(db)
		if !q.paging.IsAll() {
			db = db.Limit(q.paging.GetLength())
		}

		return db, nil
	}

	return q.paging.Apply(db), nil
}

func (q *WindowQuery) GetSort() Orderings {
	if q == nil {
		return nil
	}

	return q.sort
}

func (q *WindowQuery) GetSearch() string {
	if q == nil {
		return ""
	}

	return q.search
}

// GetPaging never returns nil.
func (q *WindowQuery) GetPaging() *Paging {
	if q == nil || q.paging == nil {
		return NewPaging(0, DefaultPageLength)
	}

	return q.paging
}

func (q *WindowQuery) GetSeek() *SeekCursor {
	if q == nil {
		return nil
	}

	return q.seek
}

// Clone returns a copy sharing no mutable state with q.
func (q *WindowQuery) Clone() *WindowQuery {
	if q == nil {
		return new(WindowQuery)
	}

	ret := &WindowQuery{
		sort:   q.sort.Clone(),
		search: q.search,
		seek:   q.seek,
	}
	if q.paging != nil {
		ret.paging = q.paging.Clone()
	}

	return ret
}

func (q *WindowQuery) validate() error {
	if q == nil {
		return fmt.Errorf("window query is nil")
	}

	if err := q.sort.Validate(); err != nil {
		return err
	}

	return q.seek.Validate(q.sort)
}

package grid

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alp4ka/rowsgroup"
)

// GormSourceOption configures a GormSource.
type GormSourceOption func(*GormSource)

// WithSourceLogger sets the logger. Nil keeps the no-op logger.
func WithSourceLogger(logger *zap.Logger) GormSourceOption {
	return func(s *GormSource) {
		if logger != nil {
			s.log = logger
		}
	}
}

// GormSource serves the rows of a database table through gorm.
//
// The id column is appended to every ordering as the final tie-breaker, so
// that pages are stable and consecutive pages can be fetched with a seek
// cursor instead of an OFFSET scan.
type GormSource struct {
	db       *gorm.DB
	table    string
	idColumn string
	columns  []Column
	log      *zap.Logger

	// next is the continuation of the last fetched page, if it was full.
	next *continuation
}

type continuation struct {
	sort   rowsgroup.Orderings
	search string
	start  int
	length int
	cursor *rowsgroup.SeekCursor
}

func NewGormSource(db *gorm.DB, table, idColumn string, columns []Column, opts ...GormSourceOption) *GormSource {
	s := &GormSource{
		db:       db,
		table:    table,
		idColumn: idColumn,
		columns:  columns,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Fetch implements Source.
func (s *GormSource) Fetch(ctx context.Context, q *rowsgroup.WindowQuery) (Window, error) {
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Table(s.table)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return Window{}, fmt.Errorf("gorm source: count rows: %w", err)
	}

	search := q.GetSearch()
	filtered := total
	if len(searchTerms(search)) > 0 {
		if err := base().Scopes(s.searchScope(search)).Count(&filtered).Error; err != nil {
			return Window{}, fmt.Errorf("gorm source: count filtered rows: %w", err)
		}
	}

	sort := q.GetSort().Clone()
	if sort.Index(s.idColumn) < 0 {
		sort = append(sort, rowsgroup.OrderBy{Column: s.idColumn, Direction: rowsgroup.DirectionASC})
	}
	paging := q.GetPaging()

	wq := rowsgroup.NewWindowQuery().
		WithSubstitutedSort(sort...).
		WithSearch(search).
		WithPaging(paging)
	if cursor := s.seekFor(sort, search, paging); cursor != nil {
		wq = wq.WithSeek(cursor)
		s.log.Debug("continuing with seek cursor", zap.Int("start", paging.GetStart()))
	}

	db, err := wq.Paginate(base().Scopes(s.searchScope(search)))
	if err != nil {
		return Window{}, fmt.Errorf("gorm source: %w", err)
	}

	var records []map[string]any
	if err = db.Find(&records).Error; err != nil {
		return Window{}, fmt.Errorf("gorm source: fetch rows: %w", err)
	}

	s.remember(sort, search, paging, records)

	rows := lo.Map(records, func(rec map[string]any, _ int) Row {
		return Row{ID: displayText(rec[s.idColumn]), Values: rec}
	})

	return Window{
		Rows:     rows,
		Start:    paging.GetStart(),
		Total:    int(total),
		Filtered: int(filtered),
	}, nil
}

// Reload implements Reloader: rows may have changed, the seek continuation
// no longer holds.
func (s *GormSource) Reload(context.Context) error {
	s.next = nil
	return nil
}

// searchScope matches rows where every search term is contained, case
// insensitively, in some searchable column.
func (s *GormSource) searchScope(search string) func(*gorm.DB) *gorm.DB {
	terms := searchTerms(search)
	searchable := lo.Filter(s.columns, func(c Column, _ int) bool {
		return c.Searchable
	})

	return func(db *gorm.DB) *gorm.DB {
		if len(searchable) == 0 {
			return db
		}

		for _, term := range terms {
			pattern := "%" + escapeLike(term) + "%"
			likes := lo.Map(searchable, func(c Column, _ int) clause.Expression {
				return clause.Expr{
					SQL:  "LOWER(?) LIKE ?",
					Vars: []any{clause.Column{Name: c.Name}, pattern},
				}
			})

			// gorm joins a single-expression OR group with OR.
			if len(likes) == 1 {
				db = db.Where(likes[0])
				continue
			}

			db = db.Where(clause.Or(likes...))
		}

		return db
	}
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// seekFor returns the seek cursor continuing the previous fetch when the
// requested page directly follows it under the same query.
func (s *GormSource) seekFor(sort rowsgroup.Orderings, search string, paging *rowsgroup.Paging) *rowsgroup.SeekCursor {
	n := s.next
	if n == nil || paging.IsAll() {
		return nil
	}

	if !n.sort.Equal(sort) || n.search != search || n.start != paging.GetStart() || n.length != paging.GetLength() {
		return nil
	}

	return n.cursor
}

func (s *GormSource) remember(sort rowsgroup.Orderings, search string, paging *rowsgroup.Paging, records []map[string]any) {
	s.next = nil
	if paging.IsAll() || len(records) < paging.GetLength() {
		return
	}

	cursor, err := rowsgroup.NextSeekCursor(sort, lo.LastOrEmpty(records))
	if err != nil {
		s.log.Debug("no seek continuation", zap.Error(err))
		return
	}

	s.next = &continuation{
		sort:   sort,
		search: search,
		start:  paging.GetStart() + len(records),
		length: paging.GetLength(),
		cursor: cursor,
	}
}

var (
	_ Source   = (*GormSource)(nil)
	_ Reloader = (*GormSource)(nil)
	_ Source   = (*MemorySource)(nil)
)

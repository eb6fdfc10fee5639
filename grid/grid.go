// Package grid is an in-memory table widget: it orders, searches and pages
// rows fetched from a Source, keeps the painted state of every cell and
// emits lifecycle events in the order-changed, pre-draw, draw sequence
// rowsgroup.GroupMerger expects.
//
// A Grid is not safe for concurrent use.
package grid

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Alp4ka/rowsgroup"
)

var (
	// ErrUnknownAPI is returned by CallAPI for names nobody registered.
	ErrUnknownAPI = errors.New("unknown api")
	// ErrInitialized is returned by a second Init.
	ErrInitialized = errors.New("grid already initialized")
)

// Option configures a Grid.
type Option func(*Grid)

// WithRowsGroup sets the grouping columns of the grid's settings.
func WithRowsGroup(columns ...rowsgroup.ColumnSelector) Option {
	return func(g *Grid) {
		g.settings.RowsGroup = append([]rowsgroup.ColumnSelector(nil), columns...)
	}
}

// WithInitListener registers l to be notified when the grid initializes.
func WithInitListener(l rowsgroup.InitListener) Option {
	return func(g *Grid) {
		g.initListeners = append(g.initListeners, l)
	}
}

// WithPageLength sets the initial page length, rowsgroup.AllRows for a
// single page.
func WithPageLength(length int) Option {
	return func(g *Grid) {
		g.paging = g.paging.WithLength(length)
	}
}

// WithOrder sets the initial ordering. Without it the grid orders by its
// first column, ascending.
func WithOrder(order ...rowsgroup.OrderBy) Option {
	return func(g *Grid) {
		g.order = rowsgroup.Orderings(order).Clone()
	}
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Grid) {
		if logger != nil {
			g.log = logger
		}
	}
}

type subscription struct {
	id      int
	handler rowsgroup.Handler
}

// Grid is a table widget implementing rowsgroup.Host and
// rowsgroup.APIRegistrar.
type Grid struct {
	source   Source
	columns  []Column
	settings rowsgroup.Settings

	order  rowsgroup.Orderings
	search string
	paging *rowsgroup.Paging

	handlers      map[rowsgroup.EventKind][]subscription
	nextHandlerID int
	initListeners []rowsgroup.InitListener
	api           map[string]rowsgroup.APIFunc
	initialized   bool

	// window is the visible window of the draw in progress or of the last
	// completed one.
	window Window
	// cells keeps the painted state per row ID and column across draws.
	cells   map[string]map[string]*CellState
	painted *Painted
	// drawGen identifies the draw in progress; a draw started from a handler
	// supersedes the one that emitted the event.
	drawGen uint64

	log *zap.Logger
}

func New(source Source, columns []Column, opts ...Option) *Grid {
	g := &Grid{
		source:   source,
		columns:  slices.Clone(columns),
		paging:   rowsgroup.NewPaging(0, rowsgroup.DefaultPageLength),
		handlers: make(map[rowsgroup.EventKind][]subscription),
		api:      make(map[string]rowsgroup.APIFunc),
		cells:    make(map[string]map[string]*CellState),
		log:      zap.NewNop(),
	}

	if len(columns) > 0 {
		g.order = rowsgroup.Orderings{{Column: columns[0].Name, Direction: rowsgroup.DirectionASC}}
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Init loads the data, paints the first window and notifies the init
// listeners with the grid settings.
func (g *Grid) Init(ctx context.Context) error {
	if g.initialized {
		return ErrInitialized
	}

	if err := g.emit(ctx, rowsgroup.EventXHR); err != nil {
		return err
	}

	if err := g.draw(ctx, true); err != nil {
		return err
	}
	g.initialized = true

	for _, l := range g.initListeners {
		if err := l(ctx, g, g.Settings()); err != nil {
			return fmt.Errorf("grid init listener: %w", err)
		}
	}

	g.log.Debug("grid initialized", zap.Strings("rows_group", g.settings.RowsGroup))

	return nil
}

// Settings returns the table options passed to init listeners.
func (g *Grid) Settings() rowsgroup.Settings {
	return rowsgroup.Settings{RowsGroup: slices.Clone(g.settings.RowsGroup)}
}

// Columns returns the grid columns, hidden ones included.
func (g *Grid) Columns() []Column {
	return slices.Clone(g.columns)
}

// Subscribe implements rowsgroup.Host.
func (g *Grid) Subscribe(kind rowsgroup.EventKind, h rowsgroup.Handler) func() {
	g.nextHandlerID++
	id := g.nextHandlerID
	g.handlers[kind] = append(g.handlers[kind], subscription{id: id, handler: h})

	return func() {
		g.handlers[kind] = slices.DeleteFunc(g.handlers[kind], func(s subscription) bool {
			return s.id == id
		})
	}
}

// emit calls the handlers of kind in subscription order and stops at the
// first error.
func (g *Grid) emit(ctx context.Context, kind rowsgroup.EventKind) error {
	subs := slices.Clone(g.handlers[kind])
	for _, s := range subs {
		if err := s.handler(ctx, rowsgroup.Event{Kind: kind}); err != nil {
			return fmt.Errorf("%s handler: %w", kind, err)
		}
	}

	return nil
}

// Order implements rowsgroup.Host.
func (g *Grid) Order() rowsgroup.Orderings {
	return g.order.Clone()
}

// SetOrder implements rowsgroup.Host.
func (g *Grid) SetOrder(order rowsgroup.Orderings) {
	g.order = order.Clone()
}

// SearchTerm returns the applied search term.
func (g *Grid) SearchTerm() string {
	return g.search
}

// Paging returns a copy of the current page.
func (g *Grid) Paging() *rowsgroup.Paging {
	return g.paging.Clone()
}

// Draw implements rowsgroup.Host: a full redraw re-applying the ordering.
func (g *Grid) Draw(ctx context.Context) error {
	return g.draw(ctx, true)
}

// draw fetches the window, then emits order (full redraws only), preDraw,
// paints and emits draw. It stops silently when a handler started another
// draw in the meantime.
func (g *Grid) draw(ctx context.Context, full bool) error {
	g.drawGen++
	gen := g.drawGen

	win, err := g.fetch(ctx)
	if err != nil {
		return err
	}
	g.window = win

	if full {
		if err = g.emit(ctx, rowsgroup.EventOrder); err != nil {
			return err
		}
		if gen != g.drawGen {
			g.log.Debug("draw superseded", zap.Uint64("draw", gen))
			return nil
		}
	}

	if err = g.emit(ctx, rowsgroup.EventPreDraw); err != nil {
		return err
	}
	if gen != g.drawGen {
		return nil
	}

	g.paint()
	g.log.Debug("grid drawn",
		zap.Uint64("draw", gen),
		zap.Int("rows", len(g.window.Rows)),
		zap.Int("start", g.window.Start),
		zap.String("order", g.order.ToSQL()),
	)

	return g.emit(ctx, rowsgroup.EventDraw)
}

// fetch queries the source, moving back to the last page when the current
// start lies past the filtered rows.
func (g *Grid) fetch(ctx context.Context) (Window, error) {
	query := func() *rowsgroup.WindowQuery {
		return rowsgroup.NewWindowQuery().
			WithSubstitutedSort(g.order...).
			WithSearch(g.search).
			WithPaging(g.paging.Clone())
	}

	win, err := g.source.Fetch(ctx, query())
	if err != nil {
		return Window{}, fmt.Errorf("grid: fetch window: %w", err)
	}

	if len(win.Rows) == 0 && win.Filtered > 0 && g.paging.GetStart() > 0 {
		g.paging = g.paging.WithPage(g.paging.Pages(win.Filtered) - 1)

		win, err = g.source.Fetch(ctx, query())
		if err != nil {
			return Window{}, fmt.Errorf("grid: fetch window: %w", err)
		}
	}

	return win, nil
}

// OrderByHeader handles a click on a column header. A plain click orders by
// that column only, toggling its direction when it already is the primary
// column. A multi (shift) click appends the column, or advances an already
// ordered column from ascending to descending and then removes it.
func (g *Grid) OrderByHeader(ctx context.Context, sel rowsgroup.ColumnSelector, multi bool) error {
	col, err := resolveColumn(g.columns, sel)
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}

	g.order = headerClickOrder(g.order, col.Name, multi)

	return g.draw(ctx, true)
}

func headerClickOrder(order rowsgroup.Orderings, column string, multi bool) rowsgroup.Orderings {
	if !multi {
		if len(order) > 0 && order[0].Column == column {
			return rowsgroup.Orderings{{Column: column, Direction: order[0].Direction.Toggle()}}
		}

		return rowsgroup.Orderings{{Column: column, Direction: rowsgroup.DirectionASC}}
	}

	ret := order.Clone()
	idx := ret.Index(column)
	switch {
	case idx < 0:
		return append(ret, rowsgroup.OrderBy{Column: column, Direction: rowsgroup.DirectionASC})
	case ret[idx].Direction == rowsgroup.DirectionASC:
		ret[idx].Direction = rowsgroup.DirectionDESC
		return ret
	case len(ret) == 1:
		ret[idx].Direction = rowsgroup.DirectionASC
		return ret
	default:
		return slices.Delete(ret, idx, idx+1)
	}
}

// Search applies a global search term and returns to the first page.
func (g *Grid) Search(ctx context.Context, term string) error {
	g.search = term
	g.paging = g.paging.WithStart(0)

	if err := g.emit(ctx, rowsgroup.EventSearch); err != nil {
		return err
	}

	return g.draw(ctx, true)
}

// SetPage displays page n (zero based).
func (g *Grid) SetPage(ctx context.Context, n int) error {
	g.paging = g.paging.WithPage(n)

	if err := g.emit(ctx, rowsgroup.EventPage); err != nil {
		return err
	}

	return g.draw(ctx, false)
}

// SetPageLength changes the page length, keeping the page that holds the
// current first row.
func (g *Grid) SetPageLength(ctx context.Context, length int) error {
	start := g.paging.GetStart()
	g.paging = g.paging.WithLength(length)
	g.paging = g.paging.WithPage(start / lo.Ternary(g.paging.IsAll(), 1, g.paging.GetLength()))

	if err := g.emit(ctx, rowsgroup.EventLength); err != nil {
		return err
	}

	return g.draw(ctx, false)
}

// SetColumnVisible shows or hides a column. The painted window is refreshed
// without a draw, so merged cells are recomputed on the next draw only.
func (g *Grid) SetColumnVisible(ctx context.Context, sel rowsgroup.ColumnSelector, visible bool) error {
	col, err := resolveColumn(g.columns, sel)
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}

	idx := slices.IndexFunc(g.columns, func(c Column) bool {
		return c.Name == col.Name
	})
	g.columns[idx].Hidden = !visible

	if err = g.emit(ctx, rowsgroup.EventColumnVisibility); err != nil {
		return err
	}

	if g.painted != nil {
		g.paint()
	}

	return nil
}

// Reload drops source caches and redraws with fresh data.
func (g *Grid) Reload(ctx context.Context) error {
	if r, ok := g.source.(Reloader); ok {
		if err := r.Reload(ctx); err != nil {
			return fmt.Errorf("grid: reload: %w", err)
		}
	}

	if err := g.emit(ctx, rowsgroup.EventXHR); err != nil {
		return err
	}

	return g.draw(ctx, true)
}

// RegisterAPI implements rowsgroup.APIRegistrar.
func (g *Grid) RegisterAPI(name string, fn rowsgroup.APIFunc) {
	g.api[name] = fn
}

// CallAPI runs an operation registered onto the grid.
func (g *Grid) CallAPI(ctx context.Context, name string) error {
	fn, ok := g.api[name]
	if !ok {
		return fmt.Errorf("%w '%s'", ErrUnknownAPI, name)
	}

	return fn(ctx)
}

// ResolveColumn implements rowsgroup.Host.
func (g *Grid) ResolveColumn(sel rowsgroup.ColumnSelector) (string, error) {
	col, err := resolveColumn(g.columns, sel)
	if err != nil {
		return "", fmt.Errorf("grid: %w", err)
	}

	return col.Name, nil
}

// VisibleRowCount implements rowsgroup.Host.
func (g *Grid) VisibleRowCount() (int, error) {
	return len(g.window.Rows), nil
}

// ColumnData implements rowsgroup.Host.
func (g *Grid) ColumnData(column string) ([]string, error) {
	col, ok := lo.Find(g.columns, func(c Column) bool {
		return c.Name == column
	})
	if !ok {
		return nil, fmt.Errorf("grid: %w: '%s'", ErrUnknownColumn, column)
	}

	return lo.Map(g.window.Rows, func(row Row, _ int) string {
		return col.Display(row.Values[col.Name])
	}), nil
}

var (
	_ rowsgroup.Host         = (*Grid)(nil)
	_ rowsgroup.APIRegistrar = (*Grid)(nil)
)

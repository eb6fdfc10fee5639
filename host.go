package rowsgroup

import "context"

// ColumnSelector names a column the way users configure grouping. The host
// decides what selectors it understands (an index, "name:city", ...).
type ColumnSelector = string

// EventKind is a lifecycle notification emitted by a host table.
type EventKind string

const (
	// EventOrder fires when the table applied an ordering.
	EventOrder EventKind = "order"
	// EventPreDraw fires after the visible window is computed and before it
	// is painted.
	EventPreDraw EventKind = "preDraw"
	// EventDraw fires once the window is painted.
	EventDraw             EventKind = "draw"
	EventColumnVisibility EventKind = "column-visibility"
	EventSearch           EventKind = "search"
	EventPage             EventKind = "page"
	EventLength           EventKind = "length"
	// EventXHR fires when the table (re)loaded its data.
	EventXHR EventKind = "xhr"
	// EventInit fires once per table after its first data load.
	EventInit EventKind = "init"
)

// Event is passed to handlers.
type Event struct {
	Kind EventKind
}

// Handler reacts to a host event. A returned error is surfaced by the host
// through the operation that emitted the event.
type Handler func(ctx context.Context, e Event) error

// CellWriter mutates the painted state of a single cell of the visible row
// window. Rows are indices into the visible window.
type CellWriter interface {
	ShowCell(row int, column string)
	HideCell(row int, column string)
	SetRowSpan(row int, column string, span int)
}

// Host is the table widget a GroupMerger attaches to.
type Host interface {
	CellWriter

	// Subscribe registers h for kind. cancel removes the registration.
	Subscribe(kind EventKind, h Handler) (cancel func())

	// Order returns the ordering the table currently applies.
	Order() Orderings
	// SetOrder replaces the ordering. It takes effect on the next draw.
	SetOrder(order Orderings)
	// Draw recomputes and paints the visible window, emitting
	// EventOrder, EventPreDraw and EventDraw in that sequence.
	Draw(ctx context.Context) error

	// ResolveColumn maps a selector to the canonical column name used in
	// Orderings and cell operations.
	ResolveColumn(sel ColumnSelector) (string, error)
	// VisibleRowCount returns the number of rows of the visible window.
	VisibleRowCount() (int, error)
	// ColumnData returns the displayed value of column for every row of the
	// visible window, in window order.
	ColumnData(column string) ([]string, error)
}

// APIFunc is an operation registered onto a host's extensible API.
type APIFunc func(ctx context.Context) error

// APIRegistrar is implemented by hosts that expose an extensible API.
type APIRegistrar interface {
	RegisterAPI(name string, fn APIFunc)
}

// Settings are the table options read when a table initializes.
type Settings struct {
	// RowsGroup lists the grouping columns of this table.
	RowsGroup []ColumnSelector
}

// InitListener is notified once per table initialization.
type InitListener func(ctx context.Context, host Host, settings Settings) error

package rowsgroup

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Option configures a GroupMerger.
type Option func(*options)

type options struct {
	logger          *zap.Logger
	monoOrderToggle bool
	groupDirection  Direction
}

func defaultOptions() options {
	return options{
		logger:          zap.NewNop(),
		monoOrderToggle: true,
		groupDirection:  DirectionASC,
	}
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMonoOrderToggle enables or disables reading a single-column order
// request on an already ordered column as a direction toggle. Enabled by
// default; disable it for hosts that keep multi-column orderings on a plain
// header click.
func WithMonoOrderToggle(enabled bool) Option {
	return func(o *options) {
		o.monoOrderToggle = enabled
	}
}

// WithGroupDirection sets the direction of grouping columns absent from the
// requested ordering. Invalid directions are ignored.
func WithGroupDirection(dir Direction) Option {
	return func(o *options) {
		if dir.Valid() {
			o.groupDirection = dir
		}
	}
}

type mergeState struct {
	// forcedOrder is the last ordering pushed to the host.
	forcedOrder Orderings
	// mergePending is set by every event changing the visible window and
	// cleared by the merge preceding the next paint.
	mergePending bool
	// suppressOrder counts the order notifications still to be swallowed
	// because they echo an ordering pushed by the merger itself.
	suppressOrder int
}

// GroupMerger keeps a host table visually grouped: it forces the grouping
// columns to the front of the ordering and merges equal adjacent cells of the
// grouping columns before every paint that needs it.
//
// A GroupMerger is driven by its host's events and is not safe for
// concurrent use, like the host itself.
type GroupMerger struct {
	id      uuid.UUID
	host    Host
	columns []ColumnSelector
	opts    options
	log     *zap.Logger
	state   mergeState
	cancels []func()
}

// Attach subscribes a GroupMerger to host's lifecycle events, then forces the
// grouping order and redraws the table, which performs the first merge.
// Grouping selectors are resolved by the host lazily; an unknown selector
// fails however the host reports it.
func Attach(ctx context.Context, host Host, columns []ColumnSelector, opts ...Option) (*GroupMerger, error) {
	m := newGroupMerger(host, columns, opts...)
	m.subscribe()

	if err := m.applyOrderAndRedraw(ctx); err != nil {
		m.Detach()
		return nil, fmt.Errorf("cannot attach rows group: %w", err)
	}

	m.log.Debug("rows group attached", zap.Stringer("order", orderingsStringer(m.state.forcedOrder)))

	return m, nil
}

func newGroupMerger(host Host, columns []ColumnSelector, opts ...Option) *GroupMerger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.New()

	return &GroupMerger{
		id:      id,
		host:    host,
		columns: append([]ColumnSelector(nil), columns...),
		opts:    o,
		log: o.logger.With(
			zap.String("merger_id", id.String()),
			zap.Strings("rows_group", columns),
		),
	}
}

func (m *GroupMerger) subscribe() {
	m.cancels = append(m.cancels,
		m.host.Subscribe(EventOrder, m.onOrder),
		m.host.Subscribe(EventPreDraw, m.onPreDraw),
	)

	for _, kind := range []EventKind{EventColumnVisibility, EventSearch, EventPage, EventLength, EventXHR} {
		m.cancels = append(m.cancels, m.host.Subscribe(kind, m.onWindowChange))
	}
}

// Detach removes every handler the merger registered on its host. The
// painted cells keep their current state.
func (m *GroupMerger) Detach() {
	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
}

// ID identifies the merger in logs.
func (m *GroupMerger) ID() uuid.UUID {
	return m.id
}

// ForcedOrder returns the last ordering the merger pushed to the host.
func (m *GroupMerger) ForcedOrder() Orderings {
	return m.state.forcedOrder.Clone()
}

// MergePending reports whether the next paint will merge cells.
func (m *GroupMerger) MergePending() bool {
	return m.state.mergePending
}

// MarkMergePending makes the next paint merge cells. Calling it several
// times before a paint results in a single merge.
func (m *GroupMerger) MarkMergePending() {
	m.state.mergePending = true
}

// Update merges cells right away by redrawing the host.
func (m *GroupMerger) Update(ctx context.Context) error {
	m.MarkMergePending()

	return m.host.Draw(ctx)
}

func (m *GroupMerger) onOrder(ctx context.Context, _ Event) error {
	if m.state.suppressOrder > 0 {
		m.state.suppressOrder--
		m.log.Debug("order notification swallowed")

		return nil
	}

	return m.applyOrderAndRedraw(ctx)
}

func (m *GroupMerger) onPreDraw(ctx context.Context, _ Event) error {
	return m.performMerge(ctx)
}

func (m *GroupMerger) onWindowChange(_ context.Context, e Event) error {
	m.MarkMergePending()
	m.log.Debug("merge scheduled", zap.String("event", string(e.Kind)))

	return nil
}

// applyOrderAndRedraw pushes the grouping order to the host and redraws. The
// order notification echoed by that redraw is swallowed; the token is disarmed
// once the redraw returns, whether or not the host emitted it.
func (m *GroupMerger) applyOrderAndRedraw(ctx context.Context) error {
	m.MarkMergePending()

	requested := m.host.Order()
	order, err := m.recomputeOrder(requested)
	if err != nil {
		return err
	}

	m.log.Debug("forcing order",
		zap.Stringer("requested", orderingsStringer(requested)),
		zap.Stringer("forced", orderingsStringer(order)),
	)

	m.state.forcedOrder = order
	m.state.suppressOrder++
	defer func() {
		m.state.suppressOrder = max(m.state.suppressOrder-1, 0)
	}()

	m.host.SetOrder(order.Clone())

	return m.host.Draw(ctx)
}

// performMerge runs right before the host paints.
func (m *GroupMerger) performMerge(_ context.Context) error {
	if !m.state.mergePending {
		return nil
	}
	m.state.mergePending = false

	plan, err := m.plan()
	if err != nil {
		return err
	}

	plan.Apply(m.host)
	m.log.Debug("cells merged", zap.Int("rows", plan.Rows), zap.Int("levels", len(plan.Levels)))

	return nil
}

// plan reads the visible window of the grouping columns and plans the merge.
func (m *GroupMerger) plan() (MergePlan, error) {
	columns, err := m.resolveColumns()
	if err != nil {
		return MergePlan{}, err
	}

	rows, err := m.host.VisibleRowCount()
	if err != nil {
		return MergePlan{}, err
	}

	values := make([]ColumnValues, 0, len(columns))
	for _, column := range columns {
		data, err := m.host.ColumnData(column)
		if err != nil {
			return MergePlan{}, err
		}

		if len(data) != rows {
			return MergePlan{}, fmt.Errorf("column '%s' has %d values for %d visible rows", column, len(data), rows)
		}

		values = append(values, ColumnValues{Column: column, Values: data})
	}

	return PlanMerge(rows, values), nil
}

// resolveColumns maps the grouping selectors to canonical column names,
// keeping the first occurrence of a column listed twice.
func (m *GroupMerger) resolveColumns() ([]string, error) {
	ret := make([]string, 0, len(m.columns))
	for _, sel := range m.columns {
		column, err := m.host.ResolveColumn(sel)
		if err != nil {
			return nil, err
		}

		ret = append(ret, column)
	}

	return lo.Uniq(ret), nil
}

type orderingsStringer Orderings

func (o orderingsStringer) String() string {
	return Orderings(o).ToSQL()
}

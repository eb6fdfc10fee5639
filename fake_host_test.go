package rowsgroup

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
)

var errFakeUnknownColumn = errors.New("unknown column")

type cellKey struct {
	row    int
	column string
}

type fakeCell struct {
	hidden bool
	span   int
}

// fakeHost is a minimal table: Draw emits order (unless skipOrderEvent is
// set), preDraw and draw, in that sequence.
type fakeHost struct {
	columns []string
	data    map[string][]string
	order   Orderings

	handlers map[EventKind]map[int]Handler
	nextID   int

	cells map[cellKey]fakeCell
	// cellOps counts ShowCell, HideCell and SetRowSpan calls.
	cellOps int

	draws          int
	setOrders      []Orderings
	skipOrderEvent bool
	drawErr        error
	api            map[string]APIFunc
}

func newFakeHost(columns []string, data map[string][]string) *fakeHost {
	return &fakeHost{
		columns:  columns,
		data:     data,
		handlers: make(map[EventKind]map[int]Handler),
		cells:    make(map[cellKey]fakeCell),
		api:      make(map[string]APIFunc),
	}
}

func (h *fakeHost) Subscribe(kind EventKind, handler Handler) func() {
	h.nextID++
	id := h.nextID
	if h.handlers[kind] == nil {
		h.handlers[kind] = make(map[int]Handler)
	}
	h.handlers[kind][id] = handler

	return func() {
		delete(h.handlers[kind], id)
	}
}

func (h *fakeHost) subscribers() int {
	n := 0
	for _, byID := range h.handlers {
		n += len(byID)
	}

	return n
}

func (h *fakeHost) emit(ctx context.Context, kind EventKind) error {
	ids := make([]int, 0, len(h.handlers[kind]))
	for id := range h.handlers[kind] {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if handler, ok := h.handlers[kind][id]; ok {
			if err := handler(ctx, Event{Kind: kind}); err != nil {
				return err
			}
		}
	}

	return nil
}

func (h *fakeHost) Order() Orderings { return h.order.Clone() }

func (h *fakeHost) SetOrder(order Orderings) {
	h.order = order.Clone()
	h.setOrders = append(h.setOrders, order.Clone())
}

func (h *fakeHost) Draw(ctx context.Context) error {
	h.draws++
	if h.drawErr != nil {
		return h.drawErr
	}

	if !h.skipOrderEvent {
		if err := h.emit(ctx, EventOrder); err != nil {
			return err
		}
	}
	if err := h.emit(ctx, EventPreDraw); err != nil {
		return err
	}

	return h.emit(ctx, EventDraw)
}

// userOrder simulates a header click: the host applies order and notifies.
func (h *fakeHost) userOrder(ctx context.Context, order Orderings) error {
	h.order = order.Clone()

	return h.Draw(ctx)
}

func (h *fakeHost) ResolveColumn(sel ColumnSelector) (string, error) {
	if idx, err := strconv.Atoi(sel); err == nil && idx >= 0 && idx < len(h.columns) {
		return h.columns[idx], nil
	}
	if slices.Contains(h.columns, sel) {
		return sel, nil
	}

	return "", fmt.Errorf("%w '%s'", errFakeUnknownColumn, sel)
}

func (h *fakeHost) VisibleRowCount() (int, error) {
	rows := 0
	for _, values := range h.data {
		rows = max(rows, len(values))
	}

	return rows, nil
}

func (h *fakeHost) ColumnData(column string) ([]string, error) {
	return slices.Clone(h.data[column]), nil
}

func (h *fakeHost) ShowCell(row int, column string) {
	h.cellOps++
	c := h.cell(row, column)
	c.hidden = false
	h.cells[cellKey{row, column}] = c
}

func (h *fakeHost) HideCell(row int, column string) {
	h.cellOps++
	c := h.cell(row, column)
	c.hidden = true
	h.cells[cellKey{row, column}] = c
}

func (h *fakeHost) SetRowSpan(row int, column string, span int) {
	h.cellOps++
	c := h.cell(row, column)
	c.span = span
	h.cells[cellKey{row, column}] = c
}

func (h *fakeHost) cell(row int, column string) fakeCell {
	if c, ok := h.cells[cellKey{row, column}]; ok {
		return c
	}

	return fakeCell{span: 1}
}

func (h *fakeHost) RegisterAPI(name string, fn APIFunc) {
	h.api[name] = fn
}

var (
	_ Host         = (*fakeHost)(nil)
	_ APIRegistrar = (*fakeHost)(nil)
)

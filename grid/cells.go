package grid

import (
	"github.com/samber/lo"

	"github.com/Alp4ka/rowsgroup"
)

// CellState is the painted state of a cell. The zero value is not used: a
// fresh cell is visible with a row-span of 1.
type CellState struct {
	Hidden  bool
	RowSpan int
}

// Painted is the outcome of the last completed draw.
type Painted struct {
	// Columns are the visible columns in display order.
	Columns  []Column
	Rows     []PaintedRow
	Order    rowsgroup.Orderings
	Search   string
	Start    int
	Page     int
	Pages    int
	Total    int
	Filtered int
}

type PaintedRow struct {
	ID    string
	Cells []PaintedCell
}

type PaintedCell struct {
	Column  string
	Text    string
	Hidden  bool
	RowSpan int
}

// Painted returns the last painted window, nil before the first draw.
func (g *Grid) Painted() *Painted {
	return g.painted
}

// ShowCell implements rowsgroup.CellWriter. Rows outside the visible window
// are ignored.
func (g *Grid) ShowCell(row int, column string) {
	if state := g.cell(row, column); state != nil {
		state.Hidden = false
	}
}

// HideCell implements rowsgroup.CellWriter.
func (g *Grid) HideCell(row int, column string) {
	if state := g.cell(row, column); state != nil {
		state.Hidden = true
	}
}

// SetRowSpan implements rowsgroup.CellWriter.
func (g *Grid) SetRowSpan(row int, column string, span int) {
	if state := g.cell(row, column); state != nil {
		state.RowSpan = span
	}
}

// CellState returns the state of a cell of the visible window.
func (g *Grid) CellState(row int, column string) (CellState, bool) {
	state := g.cell(row, column)
	if state == nil {
		return CellState{}, false
	}

	return *state, true
}

func (g *Grid) cell(row int, column string) *CellState {
	if row < 0 || row >= len(g.window.Rows) {
		return nil
	}

	return g.cellOf(g.window.Rows[row].ID, column)
}

func (g *Grid) cellOf(rowID, column string) *CellState {
	byColumn, ok := g.cells[rowID]
	if !ok {
		byColumn = make(map[string]*CellState)
		g.cells[rowID] = byColumn
	}

	state, ok := byColumn[column]
	if !ok {
		state = &CellState{RowSpan: 1}
		byColumn[column] = state
	}

	return state
}

// paint snapshots the visible window with the current cell states.
func (g *Grid) paint() {
	visible := lo.Reject(g.columns, func(c Column, _ int) bool {
		return c.Hidden
	})

	rows := make([]PaintedRow, 0, len(g.window.Rows))
	for _, row := range g.window.Rows {
		cells := make([]PaintedCell, 0, len(visible))
		for _, col := range visible {
			state := g.cellOf(row.ID, col.Name)
			cells = append(cells, PaintedCell{
				Column:  col.Name,
				Text:    col.Display(row.Values[col.Name]),
				Hidden:  state.Hidden,
				RowSpan: state.RowSpan,
			})
		}

		rows = append(rows, PaintedRow{ID: row.ID, Cells: cells})
	}

	g.painted = &Painted{
		Columns:  visible,
		Rows:     rows,
		Order:    g.order.Clone(),
		Search:   g.search,
		Start:    g.window.Start,
		Page:     g.paging.Page(),
		Pages:    g.paging.Pages(g.window.Filtered),
		Total:    g.window.Total,
		Filtered: g.window.Filtered,
	}
}

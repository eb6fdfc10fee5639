package render

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/Alp4ka/rowsgroup/grid"
)

// ASCII writes p as a text table. A cell hidden by a merge prints empty, so
// a run reads as its first row's value followed by blanks.
func ASCII(w io.Writer, p *grid.Painted) error {
	if p == nil {
		return fmt.Errorf("render: nothing painted")
	}

	table := tablewriter.NewTable(w)
	table.Header(lo.Map(p.Columns, func(c grid.Column, _ int) string {
		return c.Title
	}))

	for _, row := range p.Rows {
		cells := lo.Map(row.Cells, func(c grid.PaintedCell, _ int) string {
			return lo.Ternary(c.Hidden, "", c.Text)
		})

		if err := table.Append(cells); err != nil {
			return fmt.Errorf("render: append row '%s': %w", row.ID, err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	_, err := fmt.Fprintln(w, Info(p))

	return err
}

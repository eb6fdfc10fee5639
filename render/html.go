// Package render turns a painted grid into HTML or plain text.
package render

import (
	"embed"
	"fmt"
	"io"

	"github.com/google/safehtml/template"
	"github.com/samber/lo"

	"github.com/Alp4ka/rowsgroup/grid"
)

//go:embed templates/table.html
var templateFS embed.FS

var tableTemplate = template.Must(
	template.New("table.html").ParseFS(template.TrustedFSFromEmbed(templateFS), "templates/table.html"),
)

type htmlCell struct {
	Text    string
	RowSpan int
}

type htmlTable struct {
	Headers []string
	// Rows hold the painted cells only: cells covered by a row-span above
	// them are not emitted at all.
	Rows [][]htmlCell
	Info string
}

// HTML writes p as an HTML table. Hidden cells are left out and the head of
// every run carries its rowspan.
func HTML(w io.Writer, p *grid.Painted) error {
	if p == nil {
		return fmt.Errorf("render: nothing painted")
	}

	return tableTemplate.Execute(w, htmlView(p))
}

func htmlView(p *grid.Painted) htmlTable {
	return htmlTable{
		Headers: lo.Map(p.Columns, func(c grid.Column, _ int) string {
			return c.Title
		}),
		Rows: lo.Map(p.Rows, func(row grid.PaintedRow, _ int) []htmlCell {
			return lo.FilterMap(row.Cells, func(c grid.PaintedCell, _ int) (htmlCell, bool) {
				return htmlCell{Text: c.Text, RowSpan: c.RowSpan}, !c.Hidden
			})
		}),
		Info: Info(p),
	}
}

// Info summarizes the page, e.g. "Showing 11 to 20 of 57 entries".
func Info(p *grid.Painted) string {
	if p == nil {
		return "Showing 0 to 0 of 0 entries"
	}

	from, to := p.Start+1, p.Start+len(p.Rows)
	if len(p.Rows) == 0 {
		from, to = 0, 0
	}

	info := fmt.Sprintf("Showing %d to %d of %d entries", from, to, p.Filtered)
	if p.Filtered != p.Total {
		info += fmt.Sprintf(" (filtered from %d total entries)", p.Total)
	}

	return info
}

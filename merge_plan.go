package rowsgroup

// ColumnValues carries the displayed values of one grouping column over the
// visible window.
type ColumnValues struct {
	Column string
	Values []string
}

// MergeLevel holds the row-spans of one grouping column. Spans[r] is the
// number of rows the cell of row r covers, 0 meaning the cell is hidden.
type MergeLevel struct {
	Column string
	Spans  []int
}

// MergePlan is the merged layout of the grouping columns over the visible
// window, one level per grouping column in grouping order.
type MergePlan struct {
	Rows   int
	Levels []MergeLevel
}

// PlanMerge groups rows [0, rows) by the first column into runs of equal
// values, then every run by the next column, and so on. Values must hold
// at least rows entries per column.
func PlanMerge(rows int, columns []ColumnValues) MergePlan {
	plan := MergePlan{Rows: max(rows, 0)}
	if plan.Rows == 0 || len(columns) == 0 {
		return plan
	}

	plan.Levels = make([]MergeLevel, len(columns))
	for i, col := range columns {
		plan.Levels[i] = MergeLevel{Column: col.Column, Spans: make([]int, plan.Rows)}
	}

	mergeLevel(plan.Levels, columns, 0, 0, plan.Rows-1)

	return plan
}

// mergeLevel splits the inclusive row range [start, finish] into runs on
// columns[level] and descends into every run with the next level.
func mergeLevel(levels []MergeLevel, columns []ColumnValues, level, start, finish int) {
	if level >= len(columns) || finish < start {
		return
	}

	values := columns[level].Values
	spans := levels[level].Spans

	closeRun := func(runStart, runEnd int) {
		spans[runStart] = runEnd - runStart + 1
		mergeLevel(levels, columns, level+1, runStart, runEnd)
	}

	runStart := start
	for row := start + 1; row <= finish; row++ {
		if values[row] == values[runStart] {
			spans[row] = 0
			continue
		}

		closeRun(runStart, row-1)
		runStart = row
	}
	closeRun(runStart, finish)
}

// Span returns the row-span of row in column, or 1 when column is not a
// grouping column of the plan.
func (p MergePlan) Span(column string, row int) int {
	for _, level := range p.Levels {
		if level.Column == column && row >= 0 && row < len(level.Spans) {
			return level.Spans[row]
		}
	}

	return 1
}

// Apply paints the plan: hidden cells are hidden, run heads are shown with
// their row-span.
func (p MergePlan) Apply(w CellWriter) {
	for _, level := range p.Levels {
		for row, span := range level.Spans {
			if span == 0 {
				w.HideCell(row, level.Column)
				continue
			}

			w.ShowCell(row, level.Column)
			w.SetRowSpan(row, level.Column, span)
		}
	}
}

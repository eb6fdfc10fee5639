package rowsgroup

import (
	"github.com/samber/lo"
)

// toggleMonoOrder works around hosts that reset a multi-column ordering to a
// single ascending entry on a plain header click. Since a grouped table is
// always ordered by several columns, every click would otherwise reset the
// direction. A single-entry request for a column already present in previous
// is read as "toggle that column". A request equal to previous is the host
// re-applying the current ordering, not a click, and passes through.
func toggleMonoOrder(requested, previous Orderings) Orderings {
	if len(requested) != 1 || requested.Equal(previous) {
		return requested
	}

	idx := previous.Index(requested[0].Column)
	if idx < 0 {
		// A newly ordered column, proceed as is.
		return requested
	}

	return Orderings{{
		Column:    requested[0].Column,
		Direction: previous[idx].Direction.Toggle(),
	}}
}

// withGroupColumns moves the grouping columns to the front of order, in
// groupColumns order. A grouping column keeps the direction of its first
// entry in order and defaults to dir otherwise. The remaining entries follow
// in their original relative order.
func withGroupColumns(order Orderings, groupColumns []string, dir Direction) Orderings {
	known, rest := lo.FilterReject(order, func(item OrderBy, _ int) bool {
		return lo.Contains(groupColumns, item.Column)
	})

	ret := make(Orderings, 0, len(groupColumns)+len(rest))
	for _, column := range groupColumns {
		entry, ok := lo.Find(known, func(item OrderBy) bool {
			return item.Column == column
		})

		ret = append(ret, OrderBy{
			Column:    column,
			Direction: lo.Ternary(ok, entry.Direction, dir),
		})
	}

	return append(ret, rest...)
}

// recomputeOrder rewrites the ordering requested by the user or the host so
// that the grouping columns sort first.
func (m *GroupMerger) recomputeOrder(requested Orderings) (Orderings, error) {
	groupColumns, err := m.resolveColumns()
	if err != nil {
		return nil, err
	}

	if m.opts.monoOrderToggle {
		requested = toggleMonoOrder(requested, m.state.forcedOrder)
	}

	return withGroupColumns(requested, groupColumns, m.opts.groupDirection), nil
}

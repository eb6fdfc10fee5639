// Package rowsgroup provides visual row grouping for table widgets.
//
// Overview
//
// A grouped table shows adjacent cells with equal values in its grouping
// columns as a single cell spanning several rows. rowsgroup implements this
// on top of any table widget exposing the Host capability interface:
//   - GroupMerger: subscribes to the host's lifecycle events, keeps the
//     grouping columns in front of the table's ordering and merges cells
//     right before the host paints.
//   - PlanMerge: the pure, recursive run-length grouping of the visible rows,
//     one level per grouping column. MergePlan.Apply paints it.
//   - Plugin: attaches mergers to initializing tables from their settings or
//     from a global default, and registers the update operations on the
//     host's API.
//
// Key concepts
//   - Orderings: multi-column ordering with explicit directions.
//   - Paging and WindowQuery: the visible row window a host fetches from its
//     row source; SeekCursor continues a window without an OFFSET scan.
//
// The grid package provides a reference host, the render package HTML and
// ASCII renderers of a painted grid.
package rowsgroup

package rowsgroup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// officesHost holds three rows: (North, Alpha), (North, Alpha), (South, Alpha).
func officesHost() *fakeHost {
	return newFakeHost([]string{"region", "city", "name"}, map[string][]string{
		"region": {"North", "North", "South"},
		"city":   {"Alpha", "Alpha", "Alpha"},
		"name":   {"Ann", "Bob", "Cid"},
	})
}

func TestAttach(t *testing.T) {
	ctx := context.Background()
	host := officesHost()
	host.order = Orderings{desc("name")}

	m, err := Attach(ctx, host, []ColumnSelector{"region", "city"})
	require.NoError(t, err)

	want := Orderings{asc("region"), asc("city"), desc("name")}
	assert.Equal(t, want, host.order)
	assert.Equal(t, want, m.ForcedOrder())
	assert.Equal(t, 1, host.draws)
	assert.False(t, m.MergePending())
	assert.Zero(t, m.state.suppressOrder)

	assert.Equal(t, fakeCell{span: 2}, host.cells[cellKey{0, "region"}])
	assert.Equal(t, fakeCell{hidden: true, span: 1}, host.cells[cellKey{1, "region"}])
	assert.Equal(t, fakeCell{span: 1}, host.cells[cellKey{2, "region"}])
	assert.Equal(t, fakeCell{span: 2}, host.cells[cellKey{0, "city"}])
	assert.Equal(t, fakeCell{hidden: true, span: 1}, host.cells[cellKey{1, "city"}])
	assert.Equal(t, fakeCell{span: 1}, host.cells[cellKey{2, "city"}])
	_, touched := host.cells[cellKey{0, "name"}]
	assert.False(t, touched, "non-grouping columns are left alone")
}

func TestAttachErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown column", func(t *testing.T) {
		host := officesHost()

		_, err := Attach(ctx, host, []ColumnSelector{"region", "nope"})
		require.ErrorIs(t, err, errFakeUnknownColumn)
		assert.Zero(t, host.subscribers(), "a failed attach leaves no handler behind")
		assert.Zero(t, host.draws)
	})

	t.Run("draw failure", func(t *testing.T) {
		host := officesHost()
		host.drawErr = errors.New("boom")

		_, err := Attach(ctx, host, []ColumnSelector{"region"})
		require.ErrorIs(t, err, host.drawErr)
		assert.Zero(t, host.subscribers())
	})
}

func TestGroupMerger_OrderGuard(t *testing.T) {
	ctx := context.Background()
	host := officesHost()

	m, err := Attach(ctx, host, []ColumnSelector{"region"})
	require.NoError(t, err)
	require.Len(t, host.setOrders, 1)

	// A user order change is processed: the forced order is pushed and the
	// echo of that push is swallowed, so exactly one more order is set.
	require.NoError(t, host.userOrder(ctx, Orderings{desc("name")}))
	assert.Len(t, host.setOrders, 2)
	assert.Equal(t, Orderings{asc("region"), desc("name")}, host.order)
	assert.Equal(t, 3, host.draws)
	assert.Zero(t, m.state.suppressOrder)

	// The next genuine change is processed normally too.
	require.NoError(t, host.userOrder(ctx, Orderings{asc("region")}))
	assert.Len(t, host.setOrders, 3)
	assert.Equal(t, Orderings{desc("region")}, host.order, "a click on the group column toggles it")
	assert.Zero(t, m.state.suppressOrder)
}

func TestGroupMerger_OrderGuardDisarmedWithoutEcho(t *testing.T) {
	ctx := context.Background()
	host := officesHost()
	host.skipOrderEvent = true

	m, err := Attach(ctx, host, []ColumnSelector{"region"})
	require.NoError(t, err)
	assert.Zero(t, m.state.suppressOrder, "the token must not outlive the redraw")

	host.skipOrderEvent = false
	require.NoError(t, host.userOrder(ctx, Orderings{desc("name")}))
	assert.Len(t, host.setOrders, 2, "the user order must not be swallowed")
	assert.Equal(t, Orderings{asc("region"), desc("name")}, host.order)
}

func TestGroupMerger_MergeIdempotent(t *testing.T) {
	ctx := context.Background()
	host := officesHost()

	m, err := Attach(ctx, host, []ColumnSelector{"region", "city"})
	require.NoError(t, err)

	first := make(map[cellKey]fakeCell, len(host.cells))
	for k, v := range host.cells {
		first[k] = v
	}
	opsPerMerge := host.cellOps
	assert.Equal(t, 10, opsPerMerge)

	require.NoError(t, m.Update(ctx))
	assert.Equal(t, first, host.cells)
	assert.Equal(t, 2*opsPerMerge, host.cellOps)
}

func TestGroupMerger_MergeAfterWindowChange(t *testing.T) {
	ctx := context.Background()
	host := officesHost()

	m, err := Attach(ctx, host, []ColumnSelector{"region"})
	require.NoError(t, err)
	before := host.cellOps

	// Drawing without a preceding window change does not merge.
	host.skipOrderEvent = true
	require.NoError(t, host.Draw(ctx))
	assert.Equal(t, before, host.cellOps)

	for _, kind := range []EventKind{EventPage, EventSearch, EventLength, EventColumnVisibility, EventXHR} {
		require.NoError(t, host.emit(ctx, kind))
		assert.True(t, m.MergePending(), "%s must schedule a merge", kind)
	}

	// The page moved to rows that no longer share a region.
	host.data["region"] = []string{"East", "North", "South"}
	require.NoError(t, host.Draw(ctx))
	assert.False(t, m.MergePending())
	assert.Equal(t, before+6, host.cellOps, "several events result in a single merge")
	assert.Equal(t, fakeCell{span: 1}, host.cells[cellKey{1, "region"}], "stale hidden state is reset")
}

func TestGroupMerger_EmptyInput(t *testing.T) {
	ctx := context.Background()

	t.Run("no visible rows", func(t *testing.T) {
		host := newFakeHost([]string{"region"}, map[string][]string{"region": {}})

		_, err := Attach(ctx, host, []ColumnSelector{"region"})
		require.NoError(t, err)
		assert.Zero(t, host.cellOps)
	})

	t.Run("no grouping columns", func(t *testing.T) {
		host := officesHost()

		m, err := Attach(ctx, host, nil)
		require.NoError(t, err)
		assert.Zero(t, host.cellOps)
		assert.Empty(t, m.ForcedOrder())
	})
}

func TestGroupMerger_ColumnDataMismatch(t *testing.T) {
	ctx := context.Background()
	host := officesHost()

	m, err := Attach(ctx, host, []ColumnSelector{"city"})
	require.NoError(t, err)

	host.data["region"] = append(host.data["region"], "West")
	err = m.Update(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column 'city' has 3 values for 4 visible rows")
}

func TestGroupMerger_Detach(t *testing.T) {
	ctx := context.Background()
	host := officesHost()

	m, err := Attach(ctx, host, []ColumnSelector{"region"})
	require.NoError(t, err)
	require.Equal(t, 7, host.subscribers())

	m.Detach()
	assert.Zero(t, host.subscribers())

	setOrders := len(host.setOrders)
	require.NoError(t, host.userOrder(ctx, Orderings{desc("name")}))
	assert.Len(t, host.setOrders, setOrders)
	assert.Equal(t, Orderings{desc("name")}, host.order)
}

func TestGroupMerger_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	m, err := Attach(context.Background(), officesHost(), []ColumnSelector{"region"}, WithLogger(zap.New(core)))
	require.NoError(t, err)

	merged := logs.FilterMessage("cells merged").All()
	require.Len(t, merged, 1)
	assert.Equal(t, m.ID().String(), merged[0].ContextMap()["merger_id"])
	assert.EqualValues(t, 3, merged[0].ContextMap()["rows"])

	assert.Equal(t, 1, logs.FilterMessage("order notification swallowed").Len())
}

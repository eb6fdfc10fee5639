package rowsgroup

import (
	"context"

	"go.uber.org/zap"
)

// API names registered onto hosts implementing APIRegistrar.
const (
	APIUpdate         = "rowsgroup.update()"
	APIUpdateNextDraw = "rowsgroup.updateNextDraw()"
)

// PluginOption configures a Plugin.
type PluginOption func(*Plugin)

// WithDefaultColumns sets the grouping columns of tables that do not set
// their own.
func WithDefaultColumns(columns ...ColumnSelector) PluginOption {
	return func(p *Plugin) {
		p.defaults = append([]ColumnSelector(nil), columns...)
	}
}

// WithMergerOptions forwards opts to every GroupMerger the plugin attaches.
func WithMergerOptions(opts ...Option) PluginOption {
	return func(p *Plugin) {
		p.mergerOpts = append(p.mergerOpts, opts...)
	}
}

// Plugin attaches a GroupMerger to every initializing table that asks for
// grouping, either through its own settings or through the plugin defaults.
type Plugin struct {
	defaults   []ColumnSelector
	mergerOpts []Option
	log        *zap.Logger
	mergers    map[Host]*GroupMerger
}

func NewPlugin(opts ...PluginOption) *Plugin {
	p := &Plugin{
		mergers: make(map[Host]*GroupMerger),
	}
	for _, opt := range opts {
		opt(p)
	}

	o := defaultOptions()
	for _, opt := range p.mergerOpts {
		opt(&o)
	}
	p.log = o.logger

	return p
}

// Listener returns the plugin's init listener, to be registered on hosts.
func (p *Plugin) Listener() InitListener {
	return p.OnInit
}

// OnInit is the init trigger. Settings win over the plugin defaults; with
// neither, the table is left alone.
func (p *Plugin) OnInit(ctx context.Context, host Host, settings Settings) error {
	columns := settings.RowsGroup
	if len(columns) == 0 {
		columns = p.defaults
	}
	if len(columns) == 0 {
		return nil
	}

	m, err := Attach(ctx, host, columns, p.mergerOpts...)
	if err != nil {
		return err
	}
	p.mergers[host] = m

	if reg, ok := host.(APIRegistrar); ok {
		reg.RegisterAPI(APIUpdate, m.Update)
		reg.RegisterAPI(APIUpdateNextDraw, func(context.Context) error {
			m.MarkMergePending()
			return nil
		})
	}

	p.log.Info("rows grouping enabled",
		zap.String("merger_id", m.ID().String()),
		zap.Strings("rows_group", columns),
	)

	return nil
}

// Merger returns the merger attached to host, if any.
func (p *Plugin) Merger(host Host) (*GroupMerger, bool) {
	m, ok := p.mergers[host]
	return m, ok
}

// Command rowsgroup-demo serves a table whose grouping columns are merged.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Alp4ka/rowsgroup"
	"github.com/Alp4ka/rowsgroup/grid"
	"github.com/Alp4ka/rowsgroup/internal/config"
	"github.com/Alp4ka/rowsgroup/internal/logutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger, err := logutil.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, columns, err := newSource(ctx, cfg, logger)
	if err != nil {
		return err
	}

	plugin := rowsgroup.NewPlugin(
		rowsgroup.WithDefaultColumns(cfg.RowsGroup.Columns...),
		rowsgroup.WithMergerOptions(
			rowsgroup.WithLogger(logger.Named("rowsgroup")),
			rowsgroup.WithMonoOrderToggle(cfg.RowsGroup.ToggleMonoOrder),
			rowsgroup.WithGroupDirection(rowsgroup.Direction(cfg.RowsGroup.GroupDirection)),
		),
	)

	g := grid.New(source, columns,
		grid.WithInitListener(plugin.Listener()),
		grid.WithPageLength(cfg.Paging.Length),
		grid.WithLogger(logger.Named("grid")),
	)
	if err = g.Init(ctx); err != nil {
		return fmt.Errorf("init grid: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newServer(g, logger).routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

func loadConfig(path string) (config.Config, error) {
	cfg := config.Defaults()

	var err error
	if path != "" {
		if cfg, err = config.LoadYAML(path, cfg); err != nil {
			return cfg, err
		}
	}

	if cfg, err = config.EnvOverlay(cfg, os.Environ()); err != nil {
		return cfg, err
	}

	return cfg, config.Validate(cfg)
}

// newSource opens the configured table, or seeds memory rows when no DSN is
// set.
func newSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (grid.Source, []grid.Column, error) {
	if cfg.Database.DSN == "" {
		columns := demoColumns()
		rows, err := seedRows(cfg.Demo.Rows)
		if err != nil {
			return nil, nil, err
		}

		logger.Info("serving seeded rows", logutil.Values(
			zap.Int("rows", len(rows)),
			zap.Strings("rows_group", cfg.RowsGroup.Columns),
		))

		return grid.NewMemorySource(columns, rows), columns, nil
	}

	db, err := gorm.Open(dialector(cfg.Database.Driver, cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	columns, err := tableColumns(db.WithContext(ctx), cfg.Database.Table)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("serving database table", logutil.Values(
		zap.String("driver", cfg.Database.Driver),
		zap.String("table", cfg.Database.Table),
		zap.Int("columns", len(columns)),
	))

	source := grid.NewGormSource(db, cfg.Database.Table, cfg.Database.IDColumn, columns,
		grid.WithSourceLogger(logger.Named("source")),
	)

	return source, columns, nil
}

func dialector(driver, dsn string) gorm.Dialector {
	switch driver {
	case "mysql":
		return mysql.Open(dsn)
	case "sqlite":
		return sqlite.Open(dsn)
	default:
		return postgres.Open(dsn)
	}
}

// tableColumns lists the columns of table as searchable grid columns.
func tableColumns(db *gorm.DB, table string) ([]grid.Column, error) {
	types, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("table %s has no columns", table)
	}

	columns := make([]grid.Column, 0, len(types))
	for _, ct := range types {
		columns = append(columns, grid.NewColumn(ct.Name()))
	}

	return columns, nil
}

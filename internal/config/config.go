// Package config holds the demo server configuration: YAML file, then
// ROWSGROUP_ environment overlay, then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Alp4ka/rowsgroup"
)

const envPrefix = "ROWSGROUP_"

// Config is read once at startup.
type Config struct {
	RowsGroup RowsGroup `yaml:"rowsgroup"`
	Paging    Paging    `yaml:"paging"`
	Log       Log       `yaml:"log"`
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Demo      Demo      `yaml:"demo"`
}

type RowsGroup struct {
	// Columns are the default grouping column selectors.
	Columns         []string `yaml:"columns"`
	ToggleMonoOrder bool     `yaml:"toggle_mono_order"`
	GroupDirection  string   `yaml:"group_direction"`
}

type Paging struct {
	// Length is the page length, -1 for all rows.
	Length int `yaml:"length"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

// Database selects the gorm source. An empty DSN serves seeded memory rows.
type Database struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Table    string `yaml:"table"`
	IDColumn string `yaml:"id_column"`
}

type Demo struct {
	// Rows is the number of seeded rows of the memory source.
	Rows int `yaml:"rows"`
}

func Defaults() Config {
	return Config{
		RowsGroup: RowsGroup{
			Columns:         []string{"region", "city"},
			ToggleMonoOrder: true,
			GroupDirection:  string(rowsgroup.DirectionASC),
		},
		Paging: Paging{Length: rowsgroup.DefaultPageLength},
		Log:    Log{Level: "info"},
		Server: Server{Addr: ":8080"},
		Database: Database{
			Driver:   "postgres",
			Table:    "offices",
			IDColumn: "id",
		},
		Demo: Demo{Rows: 57},
	}
}

// LoadYAML decodes the file at path over base. Keys absent from the file
// keep their base values; unknown keys fail.
func LoadYAML(path string, base Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg := base
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(&cfg); err != nil {
		return base, fmt.Errorf("config: decode %s: %w", path, err)
	}

	return cfg, nil
}

// EnvOverlay applies ROWSGROUP_* variables of environ onto base. Variables
// outside the known set are ignored, malformed values fail.
func EnvOverlay(base Config, environ []string) (Config, error) {
	cfg := base
	for _, kv := range environ {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, envPrefix) {
			continue
		}

		var err error
		switch strings.TrimPrefix(key, envPrefix) {
		case "COLUMNS":
			cfg.RowsGroup.Columns = splitComma(val)
		case "TOGGLE_MONO_ORDER":
			cfg.RowsGroup.ToggleMonoOrder, err = strconv.ParseBool(val)
		case "GROUP_DIRECTION":
			cfg.RowsGroup.GroupDirection = strings.ToUpper(strings.TrimSpace(val))
		case "PAGE_LENGTH":
			cfg.Paging.Length, err = strconv.Atoi(strings.TrimSpace(val))
		case "LOG_LEVEL":
			cfg.Log.Level = strings.TrimSpace(val)
		case "LOG_DEVELOPMENT":
			cfg.Log.Development, err = strconv.ParseBool(val)
		case "SERVER_ADDR":
			cfg.Server.Addr = strings.TrimSpace(val)
		case "DATABASE_DRIVER":
			cfg.Database.Driver = strings.TrimSpace(val)
		case "DATABASE_DSN":
			cfg.Database.DSN = val
		case "DATABASE_TABLE":
			cfg.Database.Table = strings.TrimSpace(val)
		case "DATABASE_ID_COLUMN":
			cfg.Database.IDColumn = strings.TrimSpace(val)
		case "DEMO_ROWS":
			cfg.Demo.Rows, err = strconv.Atoi(strings.TrimSpace(val))
		}
		if err != nil {
			return base, fmt.Errorf("config: %s: %w", key, err)
		}
	}

	return cfg, nil
}

func Validate(cfg Config) error {
	var errs []error

	if !rowsgroup.Direction(cfg.RowsGroup.GroupDirection).Valid() {
		errs = append(errs, fmt.Errorf("config: rowsgroup.group_direction: invalid direction '%s'", cfg.RowsGroup.GroupDirection))
	}

	if cfg.Paging.Length != rowsgroup.AllRows && cfg.Paging.Length <= 0 {
		errs = append(errs, fmt.Errorf("config: paging.length: must be positive or %d", rowsgroup.AllRows))
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		errs = append(errs, errors.New("config: server.addr: required"))
	}

	if cfg.Database.DSN != "" {
		switch cfg.Database.Driver {
		case "postgres", "mysql", "sqlite":
		default:
			errs = append(errs, fmt.Errorf("config: database.driver: unsupported driver '%s'", cfg.Database.Driver))
		}
		if cfg.Database.Table == "" {
			errs = append(errs, errors.New("config: database.table: required with a dsn"))
		}
		if cfg.Database.IDColumn == "" {
			errs = append(errs, errors.New("config: database.id_column: required with a dsn"))
		}
	} else if cfg.Demo.Rows < 0 {
		errs = append(errs, errors.New("config: demo.rows: must not be negative"))
	}

	return errors.Join(errs...)
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

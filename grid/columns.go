package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// ErrUnknownColumn is returned when a column selector matches no column.
var ErrUnknownColumn = errors.New("unknown column")

// Column describes a grid column.
type Column struct {
	// Name is the canonical column name: the key of Row.Values and the
	// column of orderings.
	Name  string
	Title string
	// Searchable columns take part in the global search.
	Searchable bool
	// Hidden columns are not painted but can still be ordered and grouped.
	Hidden bool
	// Render formats a value for display. Nil uses the default formatting.
	Render func(v any) string
}

// NewColumn returns a visible, searchable column titled after its name.
func NewColumn(name string) Column {
	return Column{
		Name:       name,
		Title:      name,
		Searchable: true,
	}
}

// Display returns the displayed text of v in this column.
func (c Column) Display(v any) string {
	if c.Render != nil {
		return c.Render(v)
	}

	return displayText(v)
}

func displayText(v any) string {
	switch vt := v.(type) {
	case nil:
		return ""
	case string:
		return vt
	case []byte:
		return string(vt)
	case time.Time:
		return vt.Format(time.RFC3339)
	case fmt.Stringer:
		return vt.String()
	default:
		return fmt.Sprint(vt)
	}
}

// resolveColumn understands three selector forms: a column index ("2"), a
// name selector ("name:city") and a bare column name ("city").
func resolveColumn(columns []Column, sel string) (Column, error) {
	if idx, err := strconv.Atoi(sel); err == nil {
		if idx < 0 || idx >= len(columns) {
			return Column{}, fmt.Errorf("%w: index %d out of range", ErrUnknownColumn, idx)
		}

		return columns[idx], nil
	}

	name := strings.TrimPrefix(sel, "name:")
	col, ok := lo.Find(columns, func(c Column) bool {
		return c.Name == name
	})
	if !ok {
		return Column{}, fmt.Errorf("%w: '%s'", ErrUnknownColumn, sel)
	}

	return col, nil
}

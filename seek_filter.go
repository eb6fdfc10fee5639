package rowsgroup

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm/clause"
)

type (
	// comparison is Operator(Column, Value).
	comparison struct {
		Column   string
		Value    any
		Operator Operator
	}

	// conjunction joins comparisons with AND.
	conjunction []comparison

	// seekFilter is a disjunction of conjunctions:
	//
	//	(A11 AND A12) OR (A21 AND A22 AND A23) ...
	seekFilter []conjunction
)

// expression returns "Column Operator ?" bound to the comparison value.
func (c comparison) expression() clause.Expression {
	sqlClause, arg := c.sql()

	return clause.Expr{
		SQL:  sqlClause,
		Vars: []any{arg},
	}
}

func (c comparison) sql() (string, driver.Value) {
	return fmt.Sprintf("%s %s ?", c.Column, c.Operator), normalizeSeekValue(c.Value)
}

// normalizeSeekValue turns RFC 3339 text into time.Time so that timestamp
// columns compare as timestamps and not as strings.
func normalizeSeekValue(v any) any {
	asTime := func(vBytes []byte) any {
		dst := time.Time{}
		if err := dst.UnmarshalText(vBytes); err == nil {
			return dst
		}

		return v
	}

	switch vt := v.(type) {
	case string:
		return asTime([]byte(vt))
	case []byte:
		return asTime(vt)
	default:
		return v
	}
}

func (d conjunction) expression() clause.Expression {
	exprs := make([]clause.Expression, 0, len(d))
	for _, cmp := range d {
		exprs = append(exprs, cmp.expression())
	}

	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return clause.And(exprs...)
	}
}

// sql returns "(K1 AND K2 ...)" and its placeholder values.
func (d conjunction) sql() (string, []driver.Value) {
	parts := make([]string, 0, len(d))
	values := make([]driver.Value, 0, len(d))

	for _, cmp := range d {
		part, value := cmp.sql()
		parts = append(parts, part)
		values = append(values, value)
	}

	if len(parts) == 0 {
		return "", nil
	}

	return fmt.Sprintf("(%s)", strings.Join(parts, " AND ")), values
}

func (f seekFilter) expression() clause.Expression {
	exprs := make([]clause.Expression, 0, len(f))

	for _, conj := range f {
		if expr := conj.expression(); expr != nil {
			exprs = append(exprs, expr)
		}
	}

	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	default:
		return clause.Or(exprs...)
	}
}

// sql returns "((K11 AND K12) OR (K21 ...))" and its placeholder values, or
// "TRUE" for an empty filter.
func (f seekFilter) sql() (string, []driver.Value) {
	parts := make([]string, 0, len(f))
	values := make([]driver.Value, 0, len(f))

	for _, conj := range f {
		part, conjValues := conj.sql()
		if part == "" {
			continue
		}

		parts = append(parts, part)
		values = append(values, conjValues...)
	}

	if len(parts) == 0 {
		return "TRUE", nil
	}

	return fmt.Sprintf("(%s)", strings.Join(parts, " OR ")), values
}

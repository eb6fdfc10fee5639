package rowsgroup

import (
	"database/sql/driver"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// SeekCursor continues an ordered row set right after a known row without
// an OFFSET scan. It holds one (column, operator, value) triple per ordering
// entry:
//
//	[(C1, O1, V1), (C2, O2, V2) ... (Cn, On, Vn)]
//
// IMPORTANT:
// The ordering it was built for must end with a unique column, otherwise rows
// sharing the last row's key are skipped.
type SeekCursor struct {
	elements []SeekElement
}

// SeekElement is one (column, value, operator) triple of a SeekCursor.
type SeekElement struct {
	Column   string   `json:"c"`
	Value    any      `json:"v"`
	Operator Operator `json:"o"`
}

func NewSeekCursor(elements ...SeekElement) *SeekCursor {
	return &SeekCursor{elements: elements}
}

// NextSeekCursor builds the cursor continuing after last under order. Every
// ordered column must be present in last.
func NextSeekCursor(order Orderings, last map[string]any) (*SeekCursor, error) {
	if err := order.validate(); err != nil {
		return nil, fmt.Errorf("cannot build seek cursor: %w", err)
	}

	ret := &SeekCursor{elements: make([]SeekElement, 0, len(order))}
	for _, orderBy := range order {
		value, ok := last[orderBy.Column]
		if !ok {
			return nil, fmt.Errorf("cannot find value for column '%s' met in ordering", orderBy.Column)
		}

		ret.elements = append(ret.elements, SeekElement{
			Column:   orderBy.Column,
			Value:    value,
			Operator: orderBy.Direction.ForOperator(),
		})
	}

	return ret, nil
}

// IsEmpty reports whether the cursor points at the beginning of the row set.
func (c *SeekCursor) IsEmpty() bool {
	return c == nil || len(c.elements) == 0
}

func (c *SeekCursor) GetElements() []SeekElement {
	if c == nil {
		return nil
	}

	return c.elements
}

// Apply adds the seek filter to a gorm query.
func (c *SeekCursor) Apply(db *gorm.DB) *gorm.DB {
	exp := c.filter().expression()
	if exp == nil {
		return db
	}

	return db.Clauses(exp)
}

// ToSQL returns the seek filter as an SQL condition with "?" placeholders.
//
// Usage:
//
//	cond, args := c.ToSQL()
//	query := fmt.Sprintf("SELECT * FROM table WHERE %s", cond)
func (c *SeekCursor) ToSQL() (string, []driver.Value) {
	if c.IsEmpty() {
		return "TRUE", nil
	}

	return c.filter().sql()
}

// filter inflates the triples into
//
//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2) OR ...
func (c *SeekCursor) filter() seekFilter {
	if c.IsEmpty() {
		return nil
	}

	ret := make(seekFilter, 0, len(c.elements))
	for i := range c.elements {
		pinned := lo.Map(c.elements[:i], func(item SeekElement, _ int) comparison {
			return comparison{Column: item.Column, Value: item.Value, Operator: operatorEq}
		})

		conj := make(conjunction, 0, len(pinned)+1)
		conj = append(conj, pinned...)
		conj = append(conj, comparison(c.elements[i]))

		ret = append(ret, conj)
	}

	return ret
}

// Validate checks that the cursor was built for order.
func (c *SeekCursor) Validate(order Orderings) error {
	if c.IsEmpty() {
		return nil
	}

	if len(c.elements) != len(order) {
		return fmt.Errorf("seek cursor column number mismatch")
	}

	for i, elem := range c.elements {
		orderBy := order[i]

		if elem.Column != orderBy.Column {
			return fmt.Errorf("unexpected seek cursor column '%s'", elem.Column)
		}

		if !elem.Operator.Valid() {
			return fmt.Errorf("invalid seek cursor operator '%s'", elem.Operator)
		} else if elem.Operator.ForOrdering() != orderBy.Direction {
			return fmt.Errorf("unexpected seek cursor operator '%s'", elem.Operator)
		}
	}

	return nil
}

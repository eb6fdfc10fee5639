package rowsgroup

import "fmt"

// Operator is the comparison a seek cursor applies to a column to continue
// after the last row of the previous page.
type Operator string

func (o Operator) Valid() bool {
	return o == OperatorLT || o == OperatorGT
}

func (o Operator) ForOrdering() Direction {
	switch o {
	case OperatorGT:
		return DirectionASC
	case OperatorLT:
		return DirectionDESC
	default:
		panic(fmt.Errorf("cannot map operator '%s' to ordering", o))
	}
}

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"

	// operatorEq only appears inside seek filters, pinning the columns that
	// precede the one being advanced.
	operatorEq Operator = "="
)

package keyset

// Operator defines a comparison operator for filtering by column.
// Used in pagination filtering conditions.
type Operator string

// Valid reports whether o may bound a page: only strict comparisons do.
func (o Operator) Valid() bool {
	return o == OperatorLT || o == OperatorGT
}

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"

	// operatorEq is the equality operator. It is private because we use it
	// ONLY while building filtering conditions.
	operatorEq Operator = "="
)
